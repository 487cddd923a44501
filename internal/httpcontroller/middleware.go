package httpcontroller

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/tonebarrier/internal/logger"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestLoggerMiddleware())
	s.Echo.Use(s.CacheControlMiddleware())
}

// RequestLoggerMiddleware logs every request with a short request id and
// records the HTTP metrics.
func (s *Server) RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()[:8]
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			status := c.Response().Status
			if s.metrics != nil {
				s.metrics.HTTP.RecordRequest(c.Request().Method, c.Path(), status, elapsed)
			}
			s.log.Debug("request handled",
				logger.String("request_id", requestID),
				logger.String("method", c.Request().Method),
				logger.String("path", c.Request().URL.Path),
				logger.Int("status", status),
				logger.Duration("duration", elapsed))
			return nil
		}
	}
}

// CacheControlMiddleware disables caching of API responses.
func (s *Server) CacheControlMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			c.Response().Header().Set(echo.HeaderXContentTypeOptions, "nosniff")
			return next(c)
		}
	}
}
