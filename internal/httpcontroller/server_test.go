package httpcontroller

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/observability"
	"github.com/tphakala/tonebarrier/internal/playback"
	"github.com/tphakala/tonebarrier/internal/remote"
	"github.com/tphakala/tonebarrier/internal/sysinfo"
)

type fakePlayer struct {
	mu    sync.Mutex
	state playback.State
	err   error
}

func (p *fakePlayer) Toggle() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	if p.state == playback.Playing {
		p.state = playback.Stopped
	} else {
		p.state = playback.Playing
	}
	return p.state == playback.Playing, nil
}

func (p *fakePlayer) State() playback.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

type fakeDevices struct {
	devices []audiograph.DeviceInfo
	err     error
}

func (d fakeDevices) Devices() ([]audiograph.DeviceInfo, error) {
	return d.devices, d.err
}

func newTestServer(t *testing.T, player *fakePlayer, devices fakeDevices) *Server {
	t.Helper()
	m, err := observability.NewMetrics([]string{"stopped", "playing"})
	require.NoError(t, err)
	return New(Config{
		Settings: &conf.WebServerSettings{Enabled: true},
		Player:   player,
		Devices:  devices,
		NowPlaying: remote.Metadata{
			Title: "ToneBarrier", Artist: "James Alan Bush", Album: "The Life of a Demoniac", ArtworkRef: "WaveIcon",
		},
		Metrics: m,
	})
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func TestTogglePlayback(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakePlayer{}, fakeDevices{})

	rec := serve(s, http.MethodPost, "/api/v1/playback/toggle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"playing":true,"state":"playing"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(s, http.MethodGet, "/api/v1/playback")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"playing":true,"state":"playing"}`, rec.Body.String())

	rec = serve(s, http.MethodPost, "/api/v1/playback/toggle")
	assert.JSONEq(t, `{"playing":false,"state":"stopped"}`, rec.Body.String())
}

func TestToggleFailureMapsToServiceUnavailable(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{err: errors.Newf("device busy").
		Component("audiograph").
		Category(errors.CategoryEngineStart).
		Build()}
	s := newTestServer(t, player, fakeDevices{})

	rec := serve(s, http.MethodPost, "/api/v1/playback/toggle")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "engine-start", resp.Category)
	assert.Contains(t, resp.Error, "device busy")
}

func TestGetNowPlaying(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakePlayer{}, fakeDevices{})
	rec := serve(s, http.MethodGet, "/api/v1/nowplaying")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"title": "ToneBarrier",
		"artist": "James Alan Bush",
		"album": "The Life of a Demoniac",
		"artwork": "WaveIcon",
		"playing": false
	}`, rec.Body.String())
}

func TestGetRoutes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakePlayer{}, fakeDevices{devices: []audiograph.DeviceInfo{
		{Index: 0, ID: "a1", Name: "Speakers", IsDefault: true},
		{Index: 1, ID: "b2", Name: "Headphones"},
	}})
	rec := serve(s, http.MethodGet, "/api/v1/routes")
	require.Equal(t, http.StatusOK, rec.Code)

	var routes []RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	require.Len(t, routes, 2)
	assert.True(t, routes[0].Default)
	assert.Equal(t, "Headphones", routes[1].Name)

	failing := newTestServer(t, &fakePlayer{}, fakeDevices{err: errors.NewStd("backend closed")})
	rec = serve(failing, http.MethodGet, "/api/v1/routes")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type countingDevices struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDevices) Devices() ([]audiograph.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return []audiograph.DeviceInfo{{Index: 0, ID: "a1", Name: "Speakers", IsDefault: true}}, nil
}

func TestGetRoutesIsCached(t *testing.T) {
	t.Parallel()

	devices := &countingDevices{}
	s := New(Config{Player: &fakePlayer{}, Devices: devices})

	for range 3 {
		require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/v1/routes").Code)
	}
	assert.Equal(t, 1, devices.calls)

	s.InvalidateRoutes()
	rec := serve(s, http.MethodGet, "/api/v1/routes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, devices.calls)
	assert.JSONEq(t, `[{"index":0,"id":"a1","name":"Speakers","default":true}]`, rec.Body.String())
}

func TestGetSystem(t *testing.T) {
	t.Parallel()

	calls := 0
	s := New(Config{
		Player: &fakePlayer{},
		SystemInfo: func() (sysinfo.Info, error) {
			calls++
			return sysinfo.Info{OS: "linux", Arch: "arm64", CPU: "Cortex-A76", LogicalCores: 4, GoVersion: "go1.26.0"}, nil
		},
	})

	rec := serve(s, http.MethodGet, "/api/v1/system")
	require.Equal(t, http.StatusOK, rec.Code)

	var info sysinfo.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Cortex-A76", info.CPU)
	assert.Equal(t, 4, info.LogicalCores)

	serve(s, http.MethodGet, "/api/v1/system")
	assert.Equal(t, 1, calls, "system details are cached")
}

func TestGetSystemPartialInfo(t *testing.T) {
	t.Parallel()

	s := New(Config{
		Player: &fakePlayer{},
		SystemInfo: func() (sysinfo.Info, error) {
			return sysinfo.Info{OS: "linux", CPU: "unknown"}, errors.NewStd("no /proc")
		},
	})

	rec := serve(s, http.MethodGet, "/api/v1/system")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"os":"linux"`)
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakePlayer{}, fakeDevices{})
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/v1/unknown").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodGet, "/api/v1/playback/toggle").Code)

	serve(s, http.MethodGet, "/api/v1/playback")
	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tonebarrier_http_requests_total{method="GET",path="/api/v1/playback",status_code="200"} 1`)
}

func TestServeAndShutdown(t *testing.T) {
	s := newTestServer(t, &fakePlayer{}, fakeDevices{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.Serve(ln)
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/api/v1/playback")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
