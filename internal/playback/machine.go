// Package playback holds the state machine that owns the play/pause toggle.
package playback

import (
	"sync"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// Graph is the render engine driven by the machine.
type Graph interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Session is the device-session lease coupled to playback.
type Session interface {
	SetActive(active bool) (bool, error)
}

// Machine is the single authority for starting and stopping playback. All
// transitions are serialized by one mutex; it must never be called from the
// render callback.
type Machine struct {
	graph   Graph
	session Session
	log     logger.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// NewMachine returns a stopped machine.
func NewMachine(graph Graph, session Session) *Machine {
	return &Machine{
		graph:   graph,
		session: session,
		log:     GetLogger(),
	}
}

// OnChange registers fn to receive every state change. Listeners run with the
// machine lock held and must not call back into the machine.
func (m *Machine) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsPlaying reports whether the machine is in the Playing state.
func (m *Machine) IsPlaying() bool {
	return m.State() == Playing
}

// Toggle starts playback when stopped and stops it otherwise. From Interrupted
// it stops, dropping the pending resume. It returns whether playback is running.
func (m *Machine) Toggle() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Stopped {
		err := m.startLocked()
		return m.playingLocked(), err
	}
	err := m.stopLocked(Stopped)
	return m.playingLocked(), err
}

// Play starts playback. It is a no-op when already playing.
func (m *Machine) Play() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Playing {
		return true, nil
	}
	err := m.startLocked()
	return m.playingLocked(), err
}

// Pause stops playback. It is a no-op when already stopped.
func (m *Machine) Pause() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Stopped {
		return false, nil
	}
	err := m.stopLocked(Stopped)
	return m.playingLocked(), err
}

// Interrupt pauses playback on behalf of an interruption. Only Playing moves
// to Interrupted.
func (m *Machine) Interrupt() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Playing {
		return nil
	}
	return m.stopLocked(Interrupted)
}

// Resume restarts playback paused by Interrupt. In any other state it does
// nothing, so a toggle during the interruption wins.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Interrupted {
		return nil
	}
	return m.startLocked()
}

func (m *Machine) startLocked() error {
	prev := m.state
	m.setLocked(Starting)

	if err := m.graph.Start(); err != nil {
		m.log.Error("failed to start audio engine",
			logger.String("from", prev.String()),
			logger.Error(err))
		m.setLocked(Stopped)
		return err
	}
	active, err := m.session.SetActive(true)
	if err == nil && !active {
		// engine stopped between Start and activation
		err = errors.Newf("audio session did not become active").
			Component("playback").
			Category(errors.CategoryEngineStart).
			Context("operation", "activate_session").
			Build()
	}
	if err != nil {
		m.log.Error("failed to activate audio session", logger.Error(err))
		m.graph.Stop()
		m.setLocked(Stopped)
		return err
	}

	m.setLocked(Playing)
	return nil
}

func (m *Machine) stopLocked(target State) error {
	m.setLocked(Stopping)
	m.graph.Stop()

	_, err := m.session.SetActive(false)
	if err != nil {
		m.log.Warn("failed to deactivate audio session", logger.Error(err))
	}
	m.setLocked(target)
	return err
}

func (m *Machine) playingLocked() bool {
	return m.state == Playing && m.graph.IsRunning()
}

func (m *Machine) setLocked(s State) {
	if m.state == s {
		return
	}
	m.log.Debug("playback state changed",
		logger.String("from", m.state.String()),
		logger.String("to", s.String()))
	m.state = s
	for _, fn := range m.listeners {
		fn(s)
	}
}
