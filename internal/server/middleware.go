package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
)

const (
	HeaderOwnerID = "X-Owner-Id"
	ownerKey      = "owner"
)

// HTTPLogger logs the request
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		statusCode := c.Writer.Status()

		metricTags := metric.BuildTag(
			metric.NewTag(metric.TagPath, path),
			metric.NewTag(metric.TagMethod, method),
			metric.NewTag(metric.TagHttpStatusCode, strconv.Itoa(statusCode)),
		)
		metric.Incr(metric.ApiRequestCount, metricTags)
		metric.Timing(metric.ApiRequestLatency, latency, metricTags)
		log.Info().Msgf("[access] [%s] %s %s %d %v", c.ClientIP(), method, path, statusCode, latency)
	}
}

// RequireOwner rejects requests without a valid X-Owner-Id header.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(HeaderOwnerID)
		if err := artifact.ValidateOwner(owner); err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func ownerOf(c *gin.Context) string { return c.GetString(ownerKey) }

func abortWithError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Str("path", c.FullPath()).Msg("request failed")
	}
	metric.Incr(metric.ErrorCount, metric.BuildTag(metric.NewTag(metric.TagErrorCode, code)))
	c.AbortWithStatusJSON(status, errorBody(code, err))
}
