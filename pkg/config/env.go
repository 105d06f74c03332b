package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Store and metadata backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

type Env struct {
	AppName         string
	AppEnv          string
	AppPort         int
	AppLogLevel     string
	StoreBackend    string
	MetadataBackend string
	ModelDir        string
	UploadDir       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	CacheSizeBytes  int
	TrainWorkers    int
	TrainSeed       int64
	MetricAddr      string
}

var (
	initialized bool
	once        sync.Once
	instance    Env
	initError   error
)

func setDefaults() {
	viper.SetDefault("APP_NAME", "retention-server")
	viper.SetDefault("APP_ENV", "local")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_LOG_LEVEL", "INFO")
	viper.SetDefault("STORE_BACKEND", BackendFile)
	viper.SetDefault("METADATA_BACKEND", BackendMemory)
	viper.SetDefault("MODEL_DIR", "models")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("CACHE_SIZE_BYTES", 0)
	viper.SetDefault("TRAIN_WORKERS", 1)
	viper.SetDefault("TRAIN_SEED", 42)
}

// Load reads the environment through viper and validates it.
func Load() (Env, error) {
	viper.AutomaticEnv()
	setDefaults()

	env := Env{
		AppName:         strings.TrimSpace(viper.GetString("APP_NAME")),
		AppEnv:          strings.TrimSpace(viper.GetString("APP_ENV")),
		AppPort:         viper.GetInt("APP_PORT"),
		AppLogLevel:     strings.TrimSpace(viper.GetString("APP_LOG_LEVEL")),
		StoreBackend:    strings.ToLower(strings.TrimSpace(viper.GetString("STORE_BACKEND"))),
		MetadataBackend: strings.ToLower(strings.TrimSpace(viper.GetString("METADATA_BACKEND"))),
		ModelDir:        viper.GetString("MODEL_DIR"),
		UploadDir:       viper.GetString("UPLOAD_DIR"),
		RedisAddr:       viper.GetString("REDIS_ADDR"),
		RedisPassword:   viper.GetString("REDIS_PASSWORD"),
		RedisDB:         viper.GetInt("REDIS_DB"),
		S3Bucket:        strings.TrimSpace(viper.GetString("S3_BUCKET")),
		S3Region:        viper.GetString("S3_REGION"),
		S3Endpoint:      viper.GetString("S3_ENDPOINT"),
		S3AccessKeyID:   viper.GetString("S3_ACCESS_KEY_ID"),
		S3SecretKey:     viper.GetString("S3_SECRET_ACCESS_KEY"),
		CacheSizeBytes:  viper.GetInt("CACHE_SIZE_BYTES"),
		TrainWorkers:    viper.GetInt("TRAIN_WORKERS"),
		TrainSeed:       viper.GetInt64("TRAIN_SEED"),
		MetricAddr:      strings.TrimSpace(viper.GetString("METRIC_ADDR")),
	}

	if env.AppPort <= 0 {
		return Env{}, fmt.Errorf("invalid APP_PORT: %d", env.AppPort)
	}
	switch env.StoreBackend {
	case BackendFile, BackendRedis:
	case BackendS3:
		if env.S3Bucket == "" {
			return Env{}, fmt.Errorf("invalid S3_BUCKET: cannot be empty with STORE_BACKEND=s3")
		}
	default:
		return Env{}, fmt.Errorf("invalid STORE_BACKEND: %q", env.StoreBackend)
	}
	switch env.MetadataBackend {
	case BackendMemory, BackendRedis:
	default:
		return Env{}, fmt.Errorf("invalid METADATA_BACKEND: %q", env.MetadataBackend)
	}
	if env.TrainWorkers <= 0 {
		return Env{}, fmt.Errorf("invalid TRAIN_WORKERS: %d", env.TrainWorkers)
	}
	if env.CacheSizeBytes < 0 {
		return Env{}, fmt.Errorf("invalid CACHE_SIZE_BYTES: %d", env.CacheSizeBytes)
	}
	return env, nil
}

func InitEnv() {
	if initialized {
		log.Debug().Msg("Env already initialized!")
		return
	}
	once.Do(func() {
		instance, initError = Load()
		if initError != nil {
			log.Panic().Err(initError).Msg("failed to load env")
		}
		initialized = true
		log.Info().Msg("Env initialized!")
	})
}

func Instance() Env {
	InitEnv()
	if initError != nil {
		panic(initError)
	}
	return instance
}
