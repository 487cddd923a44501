// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/observability"
	"github.com/tphakala/tonebarrier/internal/playback"
	"github.com/tphakala/tonebarrier/internal/remote"
	"github.com/tphakala/tonebarrier/internal/session"
	"github.com/tphakala/tonebarrier/internal/sysinfo"
)

const (
	routesCacheTTL = 2 * time.Second
	systemCacheTTL = time.Minute

	routesCacheKey = "routes"
	systemCacheKey = "system"
)

// Player is the playback state machine as seen by the control API.
type Player interface {
	Toggle() (bool, error)
	State() playback.State
}

// Config holds the collaborators of the control server.
type Config struct {
	Settings   *conf.WebServerSettings
	Player     Player
	Devices    session.DeviceLister
	NowPlaying remote.Metadata
	Metrics    *observability.Metrics
	// SystemInfo defaults to sysinfo.Collect
	SystemInfo func() (sysinfo.Info, error)
}

// Server encapsulates the Echo server of the playback control API.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.WebServerSettings

	player     Player
	devices    session.DeviceLister
	nowPlaying remote.Metadata
	metrics    *observability.Metrics
	systemInfo func() (sysinfo.Info, error)
	cache      *cache.Cache
	log        logger.Logger

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// New initializes the HTTP server and its routes.
func New(cfg Config) *Server {
	settings := cfg.Settings
	if settings == nil {
		settings = &conf.WebServerSettings{}
	}
	if settings.Port == "" {
		settings.Port = "8080"
	}

	s := &Server{
		Echo:       echo.New(),
		Settings:   settings,
		player:     cfg.Player,
		devices:    cfg.Devices,
		nowPlaying: cfg.NowPlaying,
		metrics:    cfg.Metrics,
		systemInfo: cfg.SystemInfo,
		// no janitor goroutine; expired entries are skipped by Get
		cache: cache.New(routesCacheTTL, 0),
		log:   GetLogger(),
	}
	if s.systemInfo == nil {
		s.systemInfo = sysinfo.Collect
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Debug = settings.Debug
	s.Echo.HTTPErrorHandler = s.errorHandler

	s.configureMiddleware()
	s.initRoutes()
	return s
}

// Start listens on the configured port and serves in the background. It
// returns once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.Settings.Port)
	if err != nil {
		return errors.New(err).
			Component("httpcontroller").
			Category(errors.CategoryHTTP).
			Context("port", s.Settings.Port).
			Build()
	}
	s.Serve(ln)
	return nil
}

// Serve serves on ln in the background.
func (s *Server) Serve(ln net.Listener) {
	s.mu.Lock()
	s.listener = ln
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.Echo.Listener = ln
	go func() {
		defer close(done)
		if err := s.Echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", logger.Error(err))
		}
	}()

	s.log.Info("HTTP server started", logger.String("address", ln.Addr().String()))
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	err := s.Echo.Shutdown(ctx)
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return err
}
