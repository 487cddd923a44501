// Package player assembles the tone player from its parts: render chain, audio
// session, playback state machine and the remote-control and HTTP surfaces.
package player

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/dispatch"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/httpcontroller"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/mqtt"
	"github.com/tphakala/tonebarrier/internal/observability"
	"github.com/tphakala/tonebarrier/internal/playback"
	"github.com/tphakala/tonebarrier/internal/remote"
	"github.com/tphakala/tonebarrier/internal/session"
	"github.com/tphakala/tonebarrier/internal/sysinfo"
	"github.com/tphakala/tonebarrier/internal/telemetry"
	"github.com/tphakala/tonebarrier/internal/tone"
)

const (
	queueCloseTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	sentryFlush       = 2 * time.Second

	// deviceSource marks interruptions raised by a lost output device.
	deviceSource = "device"
)

// Player owns every long-lived component of the process.
type Player struct {
	settings *conf.Settings
	log      logger.Logger

	queue     *dispatch.Queue // main queue: notifications and remote commands
	publisher *dispatch.Queue // now-playing state updates
	metrics   *observability.Metrics

	renderer *tone.Renderer
	graph    *audiograph.Graph
	session  *session.Session
	center   *session.NotificationCenter
	manager  *session.Manager
	machine  *playback.Machine
	monitor  *session.RouteMonitor
	sub      *session.Subscription

	metadata      remote.Metadata
	bridge        *remote.Bridge
	local         *remote.LocalCenter
	mqttClient    mqtt.Client
	interruptions *session.InterruptionSource
	server        *httpcontroller.Server

	// deviceLost is set while a device interruption waits for a new route
	deviceLost atomic.Bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds the player on backend. Session configuration and graph build
// failures are terminal and returned as is.
func New(settings *conf.Settings, backend audiograph.Backend) (*Player, error) {
	p := &Player{
		settings: settings,
		log:      GetLogger(),
		metadata: remote.MetadataFromSettings(&settings.NowPlaying),
	}

	metrics, err := observability.NewMetrics(playback.StateNames())
	if err != nil {
		return nil, errors.New(err).
			Component("player").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_metrics").
			Build()
	}
	p.metrics = metrics

	osc, err := tone.NewOscillator(settings.Audio.Frequency, settings.Audio.SampleRate, settings.Audio.Amplitude)
	if err != nil {
		return nil, err
	}
	p.renderer = tone.NewRenderer(osc, settings.Audio.BufferFrames)
	p.graph = audiograph.New(backend, audiograph.Config{
		DeviceName:   settings.Audio.Device,
		BufferFrames: settings.Audio.BufferFrames,
	})

	p.queue = dispatch.NewQueue("main", dispatch.DefaultBufferSize)
	p.publisher = dispatch.NewQueue("nowplaying", dispatch.DefaultBufferSize)

	p.session = session.NewSession(session.DefaultCapabilities())
	p.center = session.NewNotificationCenter(p.queue)
	p.manager = session.NewManager(p.session, p.graph, p.center, session.PreferencesFromSettings(&settings.Session))
	p.manager.ResumeOnInterruptEnd = settings.Session.ResumeOnInterruptEnd

	if err := p.manager.Configure(); err != nil {
		p.release()
		return nil, err
	}
	if _, err := p.graph.Build(p.renderer); err != nil {
		p.release()
		return nil, err
	}
	if err := p.metrics.Player.RegisterRenderer(p.renderer); err != nil {
		p.log.Warn("failed to register render metrics", logger.Error(err))
	}

	p.machine = playback.NewMachine(p.graph, p.manager)
	p.manager.AttachPlayback(p.machine)
	p.sub = p.manager.Subscribe(p.onInterruption, p.onRouteChange)
	p.graph.OnUnexpectedStop(p.onDeviceLost)
	p.monitor = session.NewRouteMonitor(p.graph, p.center, settings.Session.RoutePollInterval)

	p.initRemote()
	p.machine.OnChange(p.onStateChange)

	if settings.WebServer.Enabled {
		cfg := httpcontroller.Config{
			Settings:   &settings.WebServer,
			Player:     p.machine,
			Devices:    p.graph,
			NowPlaying: p.metadata,
		}
		if settings.Telemetry.Enabled {
			cfg.Metrics = p.metrics
		}
		p.server = httpcontroller.New(cfg)
	}

	p.log.Info("player ready",
		logger.Float64("frequency", osc.Frequency()),
		logger.Int("sample_rate", osc.SampleRate()),
		logger.Float64("amplitude", osc.Amplitude()),
		logger.Bool("mqtt", p.mqttClient != nil),
		logger.Bool("http", p.server != nil))
	return p, nil
}

// initRemote picks the MQTT center when MQTT is enabled and the in-process
// center otherwise.
func (p *Player) initRemote() {
	var nowPlaying remote.NowPlayingCenter
	var commands remote.CommandCenter

	if p.settings.MQTT.Enabled {
		cfg := mqtt.ConfigFromSettings(&p.settings.MQTT)
		cfg.WillTopic = strings.TrimSuffix(p.settings.MQTT.Topic, "/") + "/" + remote.TopicPlaybackState
		cfg.WillPayload = `{"playing":false,"rate":0}`

		p.mqttClient = mqtt.NewClient(cfg, p.metrics.MQTT)
		center := remote.NewMQTTCenter(p.mqttClient, p.queue, p.settings.MQTT.Topic)
		center.Retain = p.settings.MQTT.Retain
		nowPlaying, commands = center, center

		if p.settings.Session.InterruptionTopic {
			p.interruptions = session.NewInterruptionSource(p.mqttClient, p.center, p.settings.MQTT.Topic)
		}
	} else {
		p.local = remote.NewLocalCenter()
		nowPlaying, commands = p.local, p.local
	}

	p.bridge = remote.NewBridge(remote.BridgeConfig{
		NowPlaying: nowPlaying,
		Commands:   commands,
		IsPlaying:  p.machine.IsPlaying,
		Metrics:    p.metrics.Player,
	})
}

// Start brings up the outer surfaces. Failures of MQTT are logged and
// playback continues without remote control; an HTTP bind failure is returned.
func (p *Player) Start(ctx context.Context) error {
	p.logSystemDetails()
	p.monitor.Start(ctx)

	if p.mqttClient != nil {
		if err := p.mqttClient.Connect(ctx); err != nil {
			p.log.Warn("MQTT connection failed, continuing without remote control", logger.Error(err))
		}
		if p.interruptions != nil {
			if err := p.interruptions.Start(); err != nil {
				p.log.Warn("failed to subscribe to interruption topic",
					logger.String("topic", p.interruptions.Topic()),
					logger.Error(err))
			}
		}
	}

	if err := p.bridge.Publish(p.metadata); err != nil {
		p.log.Warn("failed to publish now playing metadata", logger.Error(err))
	}
	if err := p.bridge.UpdatePlaybackState(false); err != nil {
		p.log.Warn("failed to publish playback state", logger.Error(err))
	}
	if err := p.bridge.RegisterControls(p.machine); err != nil {
		p.log.Warn("failed to enable remote commands", logger.Error(err))
	}

	if p.server != nil {
		if err := p.server.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) logSystemDetails() {
	info, err := sysinfo.Collect()
	if err != nil {
		p.log.Debug("host details unavailable", logger.Error(err))
	}
	p.log.Info("system details",
		logger.String("os", info.OS),
		logger.String("arch", info.Arch),
		logger.String("platform", info.Platform),
		logger.String("platform_version", info.PlatformVersion),
		logger.String("cpu", info.CPU),
		logger.Int("logical_cores", info.LogicalCores),
		logger.String("go", info.GoVersion))
}

// Toggle flips playback, see playback.Machine.Toggle.
func (p *Player) Toggle() (bool, error) {
	return p.machine.Toggle()
}

// Machine returns the playback state machine.
func (p *Player) Machine() *playback.Machine {
	return p.machine
}

// Manager returns the session manager.
func (p *Player) Manager() *session.Manager {
	return p.manager
}

// Graph returns the audio graph.
func (p *Player) Graph() *audiograph.Graph {
	return p.graph
}

// Metrics returns the metric collectors.
func (p *Player) Metrics() *observability.Metrics {
	return p.metrics
}

// LocalCenter returns the in-process remote-control center, nil when MQTT is enabled.
func (p *Player) LocalCenter() *remote.LocalCenter {
	return p.local
}

// Server returns the HTTP control server, nil when disabled.
func (p *Player) Server() *httpcontroller.Server {
	return p.server
}

// onInterruption runs on the main queue.
func (p *Player) onInterruption(n session.Interruption) {
	p.metrics.Player.RecordInterruption(n.Type.String())
	if n.Source == deviceSource && n.Type == session.InterruptionBegan &&
		p.manager.InterruptionState() == session.NotInterrupted {
		p.deviceLost.Store(true)
	}
	p.manager.HandleInterruption(n)
}

// onRouteChange runs on the main queue. After a lost device, the first route
// change that brings a device back ends the device interruption.
func (p *Player) onRouteChange(n session.RouteChange) {
	p.metrics.Player.RecordRouteChange(n.Reason.String())
	p.manager.HandleRouteChange(n)
	if p.server != nil {
		p.server.InvalidateRoutes()
	}

	if p.deviceLost.Load() && p.restoresDevice(n) && p.deviceLost.CompareAndSwap(true, false) {
		p.manager.HandleInterruption(session.Interruption{Type: session.InterruptionEnded, Source: deviceSource})
	}
}

// restoresDevice reports whether n can end a device interruption: a device
// appeared, the default moved, or the lost device is still listed.
func (p *Player) restoresDevice(n session.RouteChange) bool {
	switch n.Reason {
	case session.RouteChangeNewDeviceAvailable, session.RouteChangeOverride:
		return true
	}
	engine := p.graph.Engine()
	return engine != nil && slices.Contains(n.CurrentRoute.Outputs, engine.Device.Name)
}

func (p *Player) onDeviceLost() {
	p.log.Warn("audio device stopped unexpectedly")
	p.center.PostInterruption(session.Interruption{Type: session.InterruptionBegan, Source: deviceSource})
}

// onStateChange runs under the machine lock, so settled states are handed to
// the publisher queue.
func (p *Player) onStateChange(s playback.State) {
	p.metrics.Player.SetState(s.String())
	if s == playback.Starting || s == playback.Stopping {
		return
	}
	playing := s == playback.Playing
	p.publisher.Async(func() {
		if err := p.bridge.UpdatePlaybackState(playing); err != nil {
			p.log.Warn("failed to publish playback state", logger.Error(err))
		}
	})
}

// Shutdown releases everything in reverse dependency order: HTTP server,
// playback, remote bridge, route monitor, subscriptions, graph and queues.
// Calling it more than once returns the first result.
func (p *Player) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.shutdown(ctx)
	})
	return p.shutdownErr
}

func (p *Player) shutdown(ctx context.Context) error {
	var errs []error

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	// publish the final stopped state before remote control goes away
	if _, err := p.machine.Pause(); err != nil {
		p.log.Warn("failed to stop playback", logger.Error(err))
	}
	_ = p.publisher.Sync(func() {})

	if err := p.bridge.Close(); err != nil {
		p.log.Warn("failed to disable remote commands", logger.Error(err))
	}
	if p.interruptions != nil && p.mqttClient.IsConnected() {
		if err := p.interruptions.Stop(); err != nil {
			p.log.Warn("failed to unsubscribe interruption topic", logger.Error(err))
		}
	}
	if p.mqttClient != nil {
		p.mqttClient.Disconnect()
	}

	p.monitor.Stop()
	p.sub.Release()
	p.manager.Close()

	errs = append(errs, p.release()...)
	p.log.Info("player stopped")

	telemetry.Flush(sentryFlush)
	if err := logger.Global().Flush(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release tears down the graph and drains both queues.
func (p *Player) release() []error {
	var errs []error
	if err := p.graph.Teardown(); err != nil {
		errs = append(errs, err)
	}
	if err := p.queue.Close(queueCloseTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := p.publisher.Close(queueCloseTimeout); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Run builds the player on the configured malgo backend, starts it and blocks
// until ctx is done. Playback starts immediately unless paused is set.
func Run(ctx context.Context, settings *conf.Settings, paused bool) error {
	backend, err := audiograph.NewMalgoBackend(settings.Audio.Backend)
	if err != nil {
		return err
	}
	return RunWithBackend(ctx, settings, backend, paused)
}

// RunWithBackend is Run on an explicit backend.
func RunWithBackend(ctx context.Context, settings *conf.Settings, backend audiograph.Backend, paused bool) error {
	p, err := New(settings, backend)
	if err != nil {
		return err
	}

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return p.Shutdown(shutdownCtx)
	}

	if err := p.Start(ctx); err != nil {
		return errors.Join(err, shutdown())
	}
	if !paused {
		if _, err := p.Toggle(); err != nil {
			p.log.Error("failed to start playback", logger.Error(err))
		}
	}

	<-ctx.Done()
	p.log.Info("shutting down player")
	return shutdown()
}
