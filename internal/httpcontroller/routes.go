package httpcontroller

import "github.com/labstack/echo/v4"

// initRoutes registers the control API and the metrics endpoint.
func (s *Server) initRoutes() {
	api := s.Echo.Group("/api/v1")
	api.GET("/playback", s.GetPlayback)
	api.POST("/playback/toggle", s.TogglePlayback)
	api.GET("/nowplaying", s.GetNowPlaying)
	api.GET("/routes", s.GetRoutes)
	api.GET("/system", s.GetSystem)

	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}
