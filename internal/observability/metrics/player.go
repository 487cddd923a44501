package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/tonebarrier/internal/tone"
)

// PlayerMetrics contains Prometheus metrics for playback, session and remote commands.
type PlayerMetrics struct {
	registry prometheus.Registerer

	state         *prometheus.GaugeVec
	transitions   *prometheus.CounterVec
	commands      *prometheus.CounterVec
	interruptions *prometheus.CounterVec
	routeChanges  *prometheus.CounterVec

	states []string
}

// NewPlayerMetrics creates and registers the player metrics. states lists
// every playback state name so the state gauge exports all of them.
func NewPlayerMetrics(registry prometheus.Registerer, states []string) (*PlayerMetrics, error) {
	m := &PlayerMetrics{
		registry: registry,
		states:   states,
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "playback_state",
			Help:      "Current playback state (1 for the active state)",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "playback_transitions_total",
			Help:      "Total number of playback state transitions by target state",
		}, []string{"state"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "remote_commands_total",
			Help:      "Total number of remote transport commands by command and status",
		}, []string{"command", "status"}),
		interruptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_interruptions_total",
			Help:      "Total number of session interruption notifications by type",
		}, []string{"type"}),
		routeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_route_changes_total",
			Help:      "Total number of audio route changes by reason",
		}, []string{"reason"}),
	}
	for _, s := range states {
		m.state.WithLabelValues(s).Set(0)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register player metrics: %w", err)
	}
	return m, nil
}

// SetState marks state as the current playback state and counts the transition.
func (m *PlayerMetrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range m.states {
		if s != state {
			m.state.WithLabelValues(s).Set(0)
		}
	}
	m.state.WithLabelValues(state).Set(1)
	m.transitions.WithLabelValues(state).Inc()
}

// RecordCommand counts a remote command and its outcome.
func (m *PlayerMetrics) RecordCommand(command string, success bool) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !success {
		status = StatusFailed
	}
	m.commands.WithLabelValues(command, status).Inc()
}

// RecordInterruption counts an interruption notification.
func (m *PlayerMetrics) RecordInterruption(kind string) {
	if m != nil {
		m.interruptions.WithLabelValues(kind).Inc()
	}
}

// RecordRouteChange counts a route change.
func (m *PlayerMetrics) RecordRouteChange(reason string) {
	if m != nil {
		m.routeChanges.WithLabelValues(reason).Inc()
	}
}

// RegisterRenderer exports the render counters of r. The counters are read
// at scrape time from the renderer's atomics.
func (m *PlayerMetrics) RegisterRenderer(r *tone.Renderer) error {
	counter := func(name, help string, value func(tone.RenderStats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "render",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(r.Stats())) })
	}

	collectors := []prometheus.Collector{
		counter("callbacks_total", "Total number of render callbacks",
			func(s tone.RenderStats) uint64 { return s.Callbacks }),
		counter("frames_total", "Total number of frames rendered",
			func(s tone.RenderStats) uint64 { return s.Frames }),
		counter("recovered_panics_total", "Total number of panics recovered in the render callback",
			func(s tone.RenderStats) uint64 { return s.Panics }),
		counter("silent_buffers_total", "Total number of buffers zero-filled instead of rendered",
			func(s tone.RenderStats) uint64 { return s.SilentBuffers }),
		counter("dropped_diagnostics_total", "Total number of render diagnostics dropped because the channel was full",
			func(s tone.RenderStats) uint64 { return s.DroppedDiagnostics }),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return fmt.Errorf("failed to register render metrics: %w", err)
		}
	}
	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *PlayerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.state.Describe(ch)
	m.transitions.Describe(ch)
	m.commands.Describe(ch)
	m.interruptions.Describe(ch)
	m.routeChanges.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PlayerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.state.Collect(ch)
	m.transitions.Collect(ch)
	m.commands.Collect(ch)
	m.interruptions.Collect(ch)
	m.routeChanges.Collect(ch)
}
