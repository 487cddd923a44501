package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/tonebarrier/internal/dispatch"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var _ session.PlaybackController = (*Machine)(nil)

type fakeGraph struct {
	mu       sync.Mutex
	running  bool
	starts   int
	stops    int
	startErr error
}

func (g *fakeGraph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.startErr != nil {
		return g.startErr
	}
	if !g.running {
		g.starts++
	}
	g.running = true
	return nil
}

func (g *fakeGraph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.stops++
	}
	g.running = false
}

func (g *fakeGraph) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

type fixture struct {
	graph   *fakeGraph
	manager *session.Manager
	machine *Machine
}

func newFixture(t *testing.T, configure bool) *fixture {
	t.Helper()
	queue := dispatch.NewQueue("main", 8)
	t.Cleanup(func() { require.NoError(t, queue.Close(time.Second)) })

	graph := &fakeGraph{}
	manager := session.NewManager(
		session.NewSession(session.DefaultCapabilities()),
		graph,
		session.NewNotificationCenter(queue),
		session.DefaultPreferences(),
	)
	if configure {
		require.NoError(t, manager.Configure())
	}
	machine := NewMachine(graph, manager)
	manager.AttachPlayback(machine)
	return &fixture{graph: graph, manager: manager, machine: machine}
}

func TestToggleMatchesEngineState(t *testing.T) {
	f := newFixture(t, true)

	playing, err := f.machine.Toggle()
	require.NoError(t, err)
	assert.True(t, playing)
	assert.True(t, f.graph.IsRunning())
	assert.True(t, f.manager.IsActive())
	assert.Equal(t, Playing, f.machine.State())

	playing, err = f.machine.Toggle()
	require.NoError(t, err)
	assert.False(t, playing)
	assert.False(t, f.graph.IsRunning())
	assert.False(t, f.manager.IsActive())
	assert.Equal(t, Stopped, f.machine.State())
}

func TestToggleStartFailureReturnsToStopped(t *testing.T) {
	f := newFixture(t, true)
	f.graph.startErr = errors.Newf("device busy").
		Component("audiograph").
		Category(errors.CategoryEngineStart).
		Build()

	playing, err := f.machine.Toggle()
	require.Error(t, err)
	assert.False(t, playing)
	assert.True(t, errors.IsCategory(err, errors.CategoryEngineStart))
	assert.Equal(t, Stopped, f.machine.State())
	assert.False(t, f.manager.IsActive())

	// the next toggle tries again
	f.graph.startErr = nil
	playing, err = f.machine.Toggle()
	require.NoError(t, err)
	assert.True(t, playing)
}

func TestToggleSessionFailureStopsEngine(t *testing.T) {
	f := newFixture(t, false)

	playing, err := f.machine.Toggle()
	require.Error(t, err)
	assert.False(t, playing)
	assert.False(t, f.graph.IsRunning())
	assert.Equal(t, Stopped, f.machine.State())
}

// inactiveSession reports success without the session becoming active.
type inactiveSession struct{}

func (inactiveSession) SetActive(bool) (bool, error) { return false, nil }

func TestStartFailsWhenSessionStaysInactive(t *testing.T) {
	graph := &fakeGraph{}
	m := NewMachine(graph, inactiveSession{})

	playing, err := m.Toggle()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryEngineStart))
	assert.False(t, playing)
	assert.Equal(t, Stopped, m.State())
	assert.False(t, graph.IsRunning())
}

func TestPlayAndPauseAreIdempotent(t *testing.T) {
	f := newFixture(t, true)

	playing, err := f.machine.Pause()
	require.NoError(t, err)
	assert.False(t, playing)

	for range 2 {
		playing, err = f.machine.Play()
		require.NoError(t, err)
		assert.True(t, playing)
	}
	assert.Equal(t, 1, f.graph.starts)

	for range 2 {
		playing, err = f.machine.Pause()
		require.NoError(t, err)
		assert.False(t, playing)
	}
	assert.Equal(t, 1, f.graph.stops)
}

func TestInterruptAndResume(t *testing.T) {
	f := newFixture(t, true)

	// nothing to interrupt while stopped
	require.NoError(t, f.machine.Interrupt())
	assert.Equal(t, Stopped, f.machine.State())

	_, err := f.machine.Play()
	require.NoError(t, err)

	require.NoError(t, f.machine.Interrupt())
	assert.Equal(t, Interrupted, f.machine.State())
	assert.False(t, f.machine.IsPlaying())
	assert.False(t, f.graph.IsRunning())
	assert.False(t, f.manager.IsActive())

	require.NoError(t, f.machine.Resume())
	assert.Equal(t, Playing, f.machine.State())
	assert.True(t, f.graph.IsRunning())
	assert.True(t, f.manager.IsActive())
}

func TestToggleFromInterruptedClearsResume(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.machine.Play()
	require.NoError(t, err)
	require.NoError(t, f.machine.Interrupt())

	playing, err := f.machine.Toggle()
	require.NoError(t, err)
	assert.False(t, playing)
	assert.Equal(t, Stopped, f.machine.State())

	require.NoError(t, f.machine.Resume())
	assert.Equal(t, Stopped, f.machine.State())
	assert.False(t, f.graph.IsRunning())
}

func TestSessionInterruptionDrivesMachine(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.machine.Toggle()
	require.NoError(t, err)

	f.manager.HandleInterruption(session.Interruption{Type: session.InterruptionBegan, Source: "test"})
	assert.Equal(t, Interrupted, f.machine.State())
	assert.Equal(t, session.Interrupted, f.manager.InterruptionState())

	f.manager.HandleInterruption(session.Interruption{Type: session.InterruptionEnded, Source: "test"})
	assert.Equal(t, Playing, f.machine.State())
	assert.True(t, f.graph.IsRunning())
}

func TestOnChangeReportsTransitions(t *testing.T) {
	f := newFixture(t, true)

	var states []State
	f.machine.OnChange(func(s State) { states = append(states, s) })

	_, err := f.machine.Toggle()
	require.NoError(t, err)
	_, err = f.machine.Toggle()
	require.NoError(t, err)

	assert.Equal(t, []State{Starting, Playing, Stopping, Stopped}, states)
}

func TestConcurrentTogglesSerialize(t *testing.T) {
	f := newFixture(t, true)

	const toggles = 50
	var wg sync.WaitGroup
	for range toggles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			playing, err := f.machine.Toggle()
			assert.NoError(t, err)
			_ = playing
		}()
	}
	wg.Wait()

	assert.Equal(t, Stopped, f.machine.State())
	assert.False(t, f.graph.IsRunning())
	assert.Equal(t, toggles/2, f.graph.starts)
	assert.Equal(t, toggles/2, f.graph.stops)
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "interrupted", Interrupted.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, Playing.Active())
	assert.False(t, Interrupted.Active())
	assert.Equal(t, []string{"stopped", "starting", "playing", "stopping", "interrupted"}, StateNames())
}
