// Package audiograph connects the tone renderer to a playback device and
// controls the running state of the render engine.
package audiograph

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/tone"
)

// Config holds the output request for the graph.
type Config struct {
	DeviceName   string
	BufferFrames int
}

// Engine is the built render chain: source node, mixer and output device.
type Engine struct {
	Source *tone.Renderer
	Format tone.Format // negotiated mixer/output format
	Device DeviceInfo
	device Device
}

// Graph owns the single engine of the process.
type Graph struct {
	mu      sync.Mutex
	backend Backend
	config  Config
	engine  *Engine

	running        atomic.Bool
	stopRequested  atomic.Bool
	unexpectedStop atomic.Pointer[func()]

	cancelDiagnostics context.CancelFunc
	diagnosticsDone   chan struct{}

	log logger.Logger
}

// New returns an unbuilt graph on backend.
func New(backend Backend, cfg Config) *Graph {
	return &Graph{
		backend: backend,
		config:  cfg,
		log:     GetLogger(),
	}
}

// Build creates the source node from source, connects it to the mixer using the
// output's negotiated format and prepares the device. Failures are graph
// configuration errors.
func (g *Graph) Build(source *tone.Renderer) (*Engine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.engine != nil {
		return g.engine, nil
	}
	if source == nil || source.Oscillator() == nil {
		return nil, graphConfigError(nil, "attach_source").
			Context("error", "render source is missing").
			Build()
	}

	rate := source.Oscillator().SampleRate()
	device, err := g.backend.OpenPlayback(DeviceConfig{
		DeviceName:   g.config.DeviceName,
		SampleRate:   rate,
		BufferFrames: g.config.BufferFrames,
	}, source.DataProc, g.onDeviceStop)
	if err != nil {
		return nil, graphConfigError(err, "connect_output").
			Context("backend", g.backend.Name()).
			Context("device_name", g.config.DeviceName).
			Build()
	}

	format := device.Format()
	switch {
	case !format.Valid():
		device.Close()
		return nil, graphConfigError(nil, "connect_mixer").
			Context("error", "incompatible output format").
			Context("format", format.String()).
			Build()
	case format.SampleRate != rate:
		device.Close()
		return nil, graphConfigError(nil, "connect_mixer").
			Context("error", "output sample rate does not match source").
			Context("format", format.String()).
			Context("source_rate", rate).
			Build()
	}
	source.SetFormat(format)

	ctx, cancel := context.WithCancel(context.Background())
	g.cancelDiagnostics = cancel
	g.diagnosticsDone = make(chan struct{})
	go func() {
		defer close(g.diagnosticsDone)
		source.DrainDiagnostics(ctx, g.log.Module("render"))
	}()

	g.engine = &Engine{Source: source, Format: format, Device: device.Info(), device: device}
	g.log.Info("audio graph prepared",
		logger.String("device", device.Info().Name),
		logger.String("format", format.String()),
		logger.String("backend", g.backend.Name()))
	return g.engine, nil
}

// Start starts rendering. It is a no-op when already running.
func (g *Graph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.engine == nil {
		return engineStartError(nil, "start_engine").
			Context("error", "audio graph not built").
			Build()
	}
	if g.running.Load() && g.engine.device.IsStarted() {
		return nil
	}

	g.stopRequested.Store(false)
	if err := g.engine.device.Start(); err != nil {
		return engineStartError(err, "start_engine").
			Context("device_name", g.engine.Device.Name).
			Build()
	}
	g.running.Store(true)
	g.log.Debug("audio engine started")
	return nil
}

// Stop stops rendering. It is a no-op when already stopped.
func (g *Graph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

func (g *Graph) stopLocked() {
	if g.engine == nil || !g.running.Load() {
		return
	}
	g.stopRequested.Store(true)
	if err := g.engine.device.Stop(); err != nil {
		g.log.Warn("failed to stop audio engine", logger.Error(err))
	}
	g.running.Store(false)
	g.log.Debug("audio engine stopped")
}

// IsRunning reports whether the engine is rendering.
func (g *Graph) IsRunning() bool {
	return g.running.Load()
}

// Engine returns the built engine, nil before Build.
func (g *Graph) Engine() *Engine {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine
}

// Devices lists the playback routes available on the backend.
func (g *Graph) Devices() ([]DeviceInfo, error) {
	return g.backend.PlaybackDevices()
}

// OnUnexpectedStop registers fn to run when the device stops without a Stop
// call, e.g. when it is unplugged. fn runs on its own goroutine.
func (g *Graph) OnUnexpectedStop(fn func()) {
	if fn == nil {
		g.unexpectedStop.Store(nil)
		return
	}
	g.unexpectedStop.Store(&fn)
}

// onDeviceStop runs on the backend's thread, possibly inside device.Stop while
// g.mu is held, so it only touches atomics.
func (g *Graph) onDeviceStop() {
	if g.stopRequested.Load() {
		return
	}
	if !g.running.CompareAndSwap(true, false) {
		return
	}
	if fn := g.unexpectedStop.Load(); fn != nil {
		go (*fn)()
	}
}

// Teardown stops the engine and releases the device and the backend.
func (g *Graph) Teardown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	if g.engine != nil {
		g.engine.device.Close()
		g.engine = nil
	}
	if g.cancelDiagnostics != nil {
		g.cancelDiagnostics()
		<-g.diagnosticsDone
		g.cancelDiagnostics = nil
	}

	if err := g.backend.Close(); err != nil {
		return errors.New(err).
			Component("audiograph").
			Category(errors.CategoryAudioDevice).
			Context("operation", "close_backend").
			Build()
	}
	return nil
}
