package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// Logger returns a middleware that logs HTTP requests. Bodies are never
// logged; login and registration forms carry passwords. Pages answer with a
// redirect even when they fail, so an AppError recorded on the context is
// logged with its own status.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		outcome := status
		var appErr *apperrors.AppError
		if last := c.Errors.Last(); last != nil {
			appErr, _ = apperrors.As(last.Err)
		}
		if appErr != nil {
			outcome = appErr.StatusCode()
		}

		evt := log.Info()
		switch {
		case outcome >= 500:
			evt = log.Error()
		case outcome >= 400:
			evt = log.Warn()
		}

		evt.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_agent", c.Request.UserAgent())
		if appErr != nil {
			evt = evt.Int("error_status", outcome).Str("error", appErr.Message)
		}
		evt.Msg("request processed")
	}
}
