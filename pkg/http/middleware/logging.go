package middleware

import (
	"time"

	applogger "habridge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests through the structured logger.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			if l != nil {
				l.Debug("http request",
					applogger.String("method", req.Method),
					applogger.String("uri", req.RequestURI),
					applogger.Int("status", res.Status),
					applogger.Int64("latency_us", time.Since(start).Microseconds()),
				)
			}
			return err
		}
	}
}
