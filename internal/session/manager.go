// Package session manages the device-session lease: preferences, activation
// coupled to the render engine, interruptions and route changes.
package session

import (
	"sync"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// Engine is the part of the audio graph the session drives.
type Engine interface {
	Start() error
	Stop()
	IsRunning() bool
}

// PlaybackController is the playback state machine as seen from interruption
// handling.
type PlaybackController interface {
	IsPlaying() bool
	Interrupt() error
	Resume() error
}

// InterruptionState is the interruption state of the session.
type InterruptionState int

const (
	NotInterrupted InterruptionState = iota
	Interrupted
)

func (s InterruptionState) String() string {
	if s == Interrupted {
		return "interrupted"
	}
	return "not-interrupted"
}

// Manager configures the session, couples its active flag to the engine and
// handles interruption and route-change notifications.
type Manager struct {
	platform Platform
	engine   Engine
	center   *NotificationCenter
	prefs    Preferences
	log      logger.Logger

	// ResumeOnInterruptEnd resumes playback when an interruption that paused it ends.
	ResumeOnInterruptEnd bool

	mu           sync.Mutex // guards interruption state and subscriptions
	state        InterruptionState
	wasPlaying   bool
	playback     PlaybackController
	subs         map[*Subscription]struct{}
	routeChanges int
}

// NewManager returns a manager for platform and engine.
func NewManager(platform Platform, engine Engine, center *NotificationCenter, prefs Preferences) *Manager {
	return &Manager{
		platform:             platform,
		engine:               engine,
		center:               center,
		prefs:                prefs,
		log:                  GetLogger(),
		ResumeOnInterruptEnd: true,
		subs:                 make(map[*Subscription]struct{}),
	}
}

// AttachPlayback sets the controller paused and resumed by interruptions.
func (m *Manager) AttachPlayback(pc PlaybackController) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playback = pc
}

// Configure applies every preference and collects each failure. Any failure
// fails the whole step with one session configuration error; callers must
// treat it as terminal.
func (m *Manager) Configure() error {
	var failures []ConfigFailure
	apply := func(operation string, err error) {
		if err != nil {
			failures = append(failures, failureFrom(operation, err))
		}
	}

	p := m.prefs
	apply("set_category", m.platform.SetCategory(p.Category, p.Options))
	apply("set_mode", m.platform.SetMode(p.Mode))
	apply("set_supports_multichannel_content", m.platform.SetSupportsMultichannelContent(p.Multichannel))
	apply("set_preferred_input_channels", m.platform.SetPreferredInputChannels(p.InputChannels))
	apply("set_preferred_output_channels", m.platform.SetPreferredOutputChannels(p.OutputChannels))
	apply("set_prefers_no_interruptions_from_system_alerts", m.platform.SetPrefersNoInterruptionsFromSystemAlerts(p.NoSystemAlerts))

	if len(failures) > 0 {
		first := failures[0]
		return errors.New(&SessionConfigError{Failures: failures}).
			Component("session").
			Category(errors.CategorySessionConfig).
			Priority(errors.PriorityCritical).
			Context("operation", "configure").
			Context("failures", len(failures)).
			Context("domain", first.Domain).
			Context("code", first.Code).
			Context("description", first.Description).
			Build()
	}

	m.log.Info("session configured",
		logger.String("category", string(p.Category)),
		logger.String("mode", string(p.Mode)),
		logger.String("options", p.Options.String()),
		logger.Int("input_channels", p.InputChannels),
		logger.Int("output_channels", p.OutputChannels))
	return nil
}

// Subscribe registers both handlers with the notification center. Handlers
// run on the main queue. Release the returned subscription to unregister them.
func (m *Manager) Subscribe(onInterruption func(Interruption), onRouteChange func(RouteChange)) *Subscription {
	sub := &Subscription{center: m.center}
	if onInterruption != nil {
		sub.tokens = append(sub.tokens, m.center.AddInterruptionObserver(onInterruption))
	}
	if onRouteChange != nil {
		sub.tokens = append(sub.tokens, m.center.AddRouteChangeObserver(onRouteChange))
	}
	sub.onDone = func() {
		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()
	return sub
}

// SubscribeDefault subscribes the manager's own interruption and route handlers.
func (m *Manager) SubscribeDefault() *Subscription {
	return m.Subscribe(m.HandleInterruption, m.HandleRouteChange)
}

// SetActive couples the session to the engine. Activating starts the engine
// if it is not running and then acquires the session; deactivating stops the
// engine and releases the session. It returns whether the engine is running
// and the session is active.
func (m *Manager) SetActive(active bool) (bool, error) {
	if active {
		if !m.engine.IsRunning() {
			if err := m.engine.Start(); err != nil {
				return false, err
			}
		}
		if err := m.platform.SetActive(true); err != nil {
			m.engine.Stop()
			return false, errors.New(err).
				Component("session").
				Category(errors.CategoryState).
				Context("operation", "activate_session").
				Build()
		}
	} else {
		if m.engine.IsRunning() {
			m.engine.Stop()
		}
		if err := m.platform.SetActive(false); err != nil {
			return false, errors.New(err).
				Component("session").
				Category(errors.CategoryState).
				Context("operation", "deactivate_session").
				Build()
		}
	}

	return m.engine.IsRunning() && m.platform.IsActive(), nil
}

// ToggleActive starts the engine and activates the session if the engine is
// stopped, otherwise stops it and deactivates the session.
func (m *Manager) ToggleActive() (bool, error) {
	return m.SetActive(!m.engine.IsRunning())
}

// IsActive reports whether the session is held.
func (m *Manager) IsActive() bool {
	return m.platform.IsActive()
}

// InterruptionState returns the current interruption state.
func (m *Manager) InterruptionState() InterruptionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// HandleInterruption drives the interruption state machine. Began remembers
// whether playback was running and pauses it; Ended resumes it if it was.
// Repeated Began or Ended notifications are ignored.
func (m *Manager) HandleInterruption(n Interruption) {
	m.mu.Lock()
	pc := m.playback
	var pause, resume bool

	switch n.Type {
	case InterruptionBegan:
		if m.state == Interrupted {
			m.mu.Unlock()
			m.log.Debug("duplicate interruption began ignored", logger.String("source", n.Source))
			return
		}
		m.state = Interrupted
		m.wasPlaying = pc != nil && pc.IsPlaying()
		pause = m.wasPlaying
	case InterruptionEnded:
		if m.state == NotInterrupted {
			m.mu.Unlock()
			m.log.Debug("interruption ended without began ignored", logger.String("source", n.Source))
			return
		}
		m.state = NotInterrupted
		resume = m.wasPlaying && m.ResumeOnInterruptEnd
		m.wasPlaying = false
	}
	m.mu.Unlock()

	m.log.Info("audio session interruption",
		logger.String("type", n.Type.String()),
		logger.String("source", n.Source),
		logger.Bool("pause", pause),
		logger.Bool("resume", resume))

	// the controller calls back into SetActive, so no manager lock is held here
	switch {
	case pause:
		if err := pc.Interrupt(); err != nil {
			m.log.Error("failed to pause playback for interruption", logger.Error(err))
		}
	case resume:
		if err := pc.Resume(); err != nil {
			m.log.Error("failed to resume playback after interruption", logger.Error(err))
		}
	}
}

// HandleRouteChange logs the change. Route changes do not alter playback.
func (m *Manager) HandleRouteChange(n RouteChange) {
	m.mu.Lock()
	m.routeChanges++
	m.mu.Unlock()

	fields := []logger.Field{
		logger.String("reason", n.Reason.String()),
		logger.String("previous_route", n.PreviousRoute.String()),
		logger.String("current_route", n.CurrentRoute.String()),
	}
	if n.Reason == RouteChangeCategoryChange {
		fields = append(fields, logger.String("category", string(n.Category)))
	}
	if len(n.Devices) > 0 {
		fields = append(fields, logger.Any("devices", n.Devices))
	}
	m.log.Info("audio route changed", fields...)
}

// RouteChangeCount returns the number of route changes handled.
func (m *Manager) RouteChangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.routeChanges
}

// Close releases every subscription still held and deactivates the session.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Release()
	}
	if err := m.platform.SetActive(false); err != nil {
		m.log.Warn("failed to release session", logger.Error(err))
	}
}
