package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/playback"
	"github.com/tphakala/tonebarrier/internal/remote"
)

// PlaybackResponse reports the playback state.
type PlaybackResponse struct {
	Playing bool   `json:"playing"`
	State   string `json:"state"`
}

// NowPlayingResponse is the now-playing metadata with the playback state.
type NowPlayingResponse struct {
	remote.Metadata
	Playing bool `json:"playing"`
}

// RouteResponse describes one playback device.
type RouteResponse struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// GetPlayback handles GET /api/v1/playback.
func (s *Server) GetPlayback(c echo.Context) error {
	state := s.player.State()
	return c.JSON(http.StatusOK, PlaybackResponse{Playing: state == playback.Playing, State: state.String()})
}

// TogglePlayback handles POST /api/v1/playback/toggle.
func (s *Server) TogglePlayback(c echo.Context) error {
	playing, err := s.player.Toggle()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PlaybackResponse{Playing: playing, State: s.player.State().String()})
}

// GetNowPlaying handles GET /api/v1/nowplaying.
func (s *Server) GetNowPlaying(c echo.Context) error {
	return c.JSON(http.StatusOK, NowPlayingResponse{
		Metadata: s.nowPlaying,
		Playing:  s.player.State() == playback.Playing,
	})
}

// GetRoutes handles GET /api/v1/routes, the list of playback devices. The
// list is cached briefly since enumeration goes through the audio backend.
func (s *Server) GetRoutes(c echo.Context) error {
	if s.devices == nil {
		return c.JSON(http.StatusOK, []RouteResponse{})
	}
	if cached, ok := s.cache.Get(routesCacheKey); ok {
		return c.JSON(http.StatusOK, cached)
	}

	devices, err := s.devices.Devices()
	if err != nil {
		return err
	}
	routes := make([]RouteResponse, 0, len(devices))
	for _, d := range devices {
		routes = append(routes, RouteResponse{Index: d.Index, ID: d.ID, Name: d.Name, Default: d.IsDefault})
	}
	s.cache.SetDefault(routesCacheKey, routes)
	return c.JSON(http.StatusOK, routes)
}

// GetSystem handles GET /api/v1/system.
func (s *Server) GetSystem(c echo.Context) error {
	if cached, ok := s.cache.Get(systemCacheKey); ok {
		return c.JSON(http.StatusOK, cached)
	}

	info, err := s.systemInfo()
	if err != nil {
		// partial info is still useful
		s.log.Warn("host details unavailable", logger.Error(err))
		return c.JSON(http.StatusOK, info)
	}
	s.cache.Set(systemCacheKey, info, systemCacheTTL)
	return c.JSON(http.StatusOK, info)
}

// InvalidateRoutes drops the cached device list.
func (s *Server) InvalidateRoutes() {
	s.cache.Delete(routesCacheKey)
}

// errorHandler maps errors to JSON responses. Engine start and device
// failures are reported as 503 since a retry may succeed.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: msg})
		return
	}

	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		resp.Category = string(ee.Category)
		switch ee.Category {
		case errors.CategoryEngineStart, errors.CategoryAudioDevice:
			status = http.StatusServiceUnavailable
		case errors.CategoryValidation:
			status = http.StatusBadRequest
		}
	}

	s.log.Error("request failed",
		logger.String("path", c.Request().URL.Path),
		logger.Int("status", status),
		logger.Error(err))
	_ = c.JSON(status, resp)
}
