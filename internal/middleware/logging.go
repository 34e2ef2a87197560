package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingConfig request logging configuration
type LoggingConfig struct {
	Logger          *zap.Logger
	SkipPaths       []string
	SkipHealthCheck bool
}

// DefaultLoggingConfig default request logging configuration
func DefaultLoggingConfig(logger *zap.Logger) *LoggingConfig {
	return &LoggingConfig{
		Logger:          logger,
		SkipPaths:       []string{},
		SkipHealthCheck: true,
	}
}

// Logging request logging middleware
func Logging(config *LoggingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]struct{})
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}
	if config.SkipHealthCheck {
		skipPaths["/health"] = struct{}{}
		skipPaths["/ready"] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skipPaths[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			config.Logger.Error("HTTP request", fields...)
		case c.Writer.Status() >= 400:
			config.Logger.Warn("HTTP request", fields...)
		default:
			config.Logger.Info("HTTP request", fields...)
		}
	}
}
