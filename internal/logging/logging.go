package logging

import (
	"os"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/config"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger from cfg.
func Setup(cfg config.LogConfig) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Warning: unknown LOG_LEVEL %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Millisecond).String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
