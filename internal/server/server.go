// Package server exposes the retention service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/service"
)

// NewRouter builds the gin engine. env "prod" or "production" selects gin's
// release mode.
func NewRouter(svc *service.Service, env string) *gin.Engine {
	if env == "prod" || env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(HTTPLogger())
	router.MaxMultipartMemory = service.MaxUploadBytes

	router.GET("/health", Health)

	h := NewHandler(svc)
	v1 := router.Group("/api/v1")
	v1.GET("/health", Health)
	owned := v1.Group("", RequireOwner())
	owned.POST("/datasets", h.UploadDataset)
	owned.GET("/datasets/summary", h.Summary)
	owned.POST("/models/train", h.Train)
	owned.GET("/models", h.Models)
	owned.POST("/predict", h.Predict)
	return router
}

// Run serves router on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
