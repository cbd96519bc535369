package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"supplytrack/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLog starts an event carrying the request id and, on authenticated
// routes, the username.
func requestLog(c *gin.Context, ev *zerolog.Event) *zerolog.Event {
	ev = ev.Str("request_id", c.GetString(RequestIDKey))
	if claims := GetClaims(c); claims != nil {
		ev = ev.Str("user", claims.Username)
	}
	return ev
}

// ErrorHandler turns errors that handlers attached with c.Error into a generic
// response. The cause is logged, never returned to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		requestLog(c, log.Error()).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Err(err).
			Msg("unhandled error")

		if c.Writer.Written() {
			return
		}
		switch {
		case errors.Is(err, context.Canceled):
			// Client went away; nobody reads the body.
			c.AbortWithStatus(499)
		case errors.Is(err, context.DeadlineExceeded):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Request timed out"))
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
		}
	}
}

// Recovery converts panics into 500 responses and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestLog(c, log.Error()).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request: info below 400, warn for client errors,
// error for server errors.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		requestLog(c, ev).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
