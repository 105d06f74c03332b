package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/bootstrap"
	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/server"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/config"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/logger"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
)

func main() {
	config.InitEnv()
	env := config.Instance()
	logger.Init()
	metric.Init(env.MetricAddr, env.AppName, env.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := bootstrap.Service(ctx, env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build service")
	}
	defer cleanup()

	router := server.NewRouter(svc, env.AppEnv)
	if err := server.Run(ctx, fmt.Sprintf(":%d", env.AppPort), router); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
