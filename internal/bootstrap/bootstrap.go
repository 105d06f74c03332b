// Package bootstrap builds the storage backends and the service from config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/service"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/config"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metadata"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/trainer"
)

// TrainerConfig applies the environment overrides to the default
// hyperparameters.
func TrainerConfig(env config.Env) trainer.Config {
	cfg := trainer.DefaultConfig()
	cfg.Seed = env.TrainSeed
	cfg.Workers = env.TrainWorkers
	return cfg
}

// Backend builds the bundle backend named by STORE_BACKEND, wrapped in a
// cache when CACHE_SIZE_BYTES is positive.
func Backend(ctx context.Context, env config.Env, rdb *redis.Client) (artifact.Backend, error) {
	var backend artifact.Backend
	switch env.StoreBackend {
	case config.BackendFile:
		fs, err := artifact.NewFileStore(env.ModelDir)
		if err != nil {
			return nil, err
		}
		backend = fs
	case config.BackendRedis:
		backend = artifact.NewRedisStore(rdb, "")
	case config.BackendS3:
		client, err := artifact.NewS3Client(ctx, artifact.S3Config{
			AccessKeyID:     env.S3AccessKeyID,
			SecretAccessKey: env.S3SecretKey,
			Region:          env.S3Region,
			Endpoint:        env.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		s3s, err := artifact.NewS3Store(client, env.S3Bucket, "")
		if err != nil {
			return nil, err
		}
		backend = s3s
	default:
		return nil, fmt.Errorf("unknown store backend %q", env.StoreBackend)
	}
	if env.CacheSizeBytes > 0 {
		backend = artifact.NewCachedStore(backend, env.CacheSizeBytes)
	}
	log.Info().Str("backend", backend.Name()).Msg("bundle store ready")
	return backend, nil
}

// Metadata builds the metadata store named by METADATA_BACKEND.
func Metadata(env config.Env, rdb *redis.Client) (metadata.Store, error) {
	switch env.MetadataBackend {
	case config.BackendMemory:
		return metadata.NewMemoryStore(), nil
	case config.BackendRedis:
		return metadata.NewRedisStore(rdb, ""), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", env.MetadataBackend)
	}
}

func needsRedis(env config.Env) bool {
	return env.StoreBackend == config.BackendRedis || env.MetadataBackend == config.BackendRedis
}

// Service wires the whole service. The returned cleanup closes any Redis
// connection.
func Service(ctx context.Context, env config.Env) (*service.Service, func(), error) {
	var rdb *redis.Client
	cleanup := func() {}
	if needsRedis(env) {
		rdb = redis.NewClient(&redis.Options{
			Addr:     env.RedisAddr,
			Password: env.RedisPassword,
			DB:       env.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", env.RedisAddr, err)
		}
		cleanup = func() { _ = rdb.Close() }
	}
	backend, err := Backend(ctx, env, rdb)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	meta, err := Metadata(env, rdb)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	svc, err := service.New(env.UploadDir, trainer.New(TrainerConfig(env)), artifact.NewStore(backend), meta)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
