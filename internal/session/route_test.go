package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/dispatch"
	"github.com/tphakala/tonebarrier/internal/errors"
)

type fakeLister struct {
	mu      sync.Mutex
	devices []audiograph.DeviceInfo
	err     error
}

func (l *fakeLister) Devices() ([]audiograph.DeviceInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]audiograph.DeviceInfo(nil), l.devices...), l.err
}

func (l *fakeLister) set(devices ...audiograph.DeviceInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.devices = devices
}

var (
	speakers   = audiograph.DeviceInfo{Name: "Speakers", IsDefault: true}
	headphones = audiograph.DeviceInfo{Name: "Headphones"}
)

func TestDiffRoutes(t *testing.T) {
	t.Parallel()

	base := Route{Outputs: []string{"Speakers"}, Default: "Speakers"}
	tests := []struct {
		name    string
		prev    Route
		next    Route
		reasons []RouteChangeReason
	}{
		{"unchanged", base, base, nil},
		{"device added", base, Route{Outputs: []string{"Headphones", "Speakers"}, Default: "Speakers"},
			[]RouteChangeReason{RouteChangeNewDeviceAvailable}},
		{"device removed", Route{Outputs: []string{"Headphones", "Speakers"}, Default: "Headphones"}, base,
			[]RouteChangeReason{RouteChangeOldDeviceUnavailable}},
		{"all removed", base, Route{},
			[]RouteChangeReason{RouteChangeNoSuitableRouteForCategory}},
		{"swapped", base, Route{Outputs: []string{"Headphones"}, Default: "Headphones"},
			[]RouteChangeReason{RouteChangeOldDeviceUnavailable, RouteChangeNewDeviceAvailable}},
		{"default moved", Route{Outputs: []string{"Headphones", "Speakers"}, Default: "Speakers"},
			Route{Outputs: []string{"Headphones", "Speakers"}, Default: "Headphones"},
			[]RouteChangeReason{RouteChangeOverride}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			changes := diffRoutes(tt.prev, tt.next)
			var reasons []RouteChangeReason
			for _, c := range changes {
				reasons = append(reasons, c.Reason)
				assert.Equal(t, tt.prev, c.PreviousRoute)
			}
			assert.Equal(t, tt.reasons, reasons)
		})
	}
}

func TestRouteMonitorPostsChanges(t *testing.T) {
	queue := dispatch.NewQueue("main", 8)
	defer func() { require.NoError(t, queue.Close(time.Second)) }()
	center := NewNotificationCenter(queue)

	var changes []RouteChange
	center.AddRouteChangeObserver(func(c RouteChange) { changes = append(changes, c) })

	lister := &fakeLister{devices: []audiograph.DeviceInfo{speakers}}
	monitor := NewRouteMonitor(lister, center, time.Hour)

	monitor.Poll() // first snapshot posts nothing
	lister.set(speakers, headphones)
	monitor.Poll()
	lister.set(speakers)
	monitor.Poll()
	require.NoError(t, queue.Sync(func() {}))

	require.Len(t, changes, 2)
	assert.Equal(t, RouteChangeNewDeviceAvailable, changes[0].Reason)
	assert.Equal(t, []string{"Headphones"}, changes[0].Devices)
	assert.Equal(t, RouteChangeOldDeviceUnavailable, changes[1].Reason)
	assert.Equal(t, []string{"Headphones", "Speakers"}, changes[1].PreviousRoute.Outputs)
	assert.Equal(t, []string{"Speakers"}, monitor.Current().Outputs)
}

func TestRouteMonitorIgnoresListErrors(t *testing.T) {
	queue := dispatch.NewQueue("main", 8)
	defer func() { require.NoError(t, queue.Close(time.Second)) }()

	lister := &fakeLister{devices: []audiograph.DeviceInfo{speakers}}
	monitor := NewRouteMonitor(lister, NewNotificationCenter(queue), time.Hour)
	monitor.Poll()

	lister.err = errors.NewStd("backend closed")
	monitor.Poll()
	assert.Equal(t, []string{"Speakers"}, monitor.Current().Outputs)
}

func TestRouteMonitorPolls(t *testing.T) {
	queue := dispatch.NewQueue("main", 8)
	defer func() { require.NoError(t, queue.Close(time.Second)) }()
	center := NewNotificationCenter(queue)

	posted := make(chan RouteChange, 4)
	center.AddRouteChangeObserver(func(c RouteChange) { posted <- c })

	lister := &fakeLister{devices: []audiograph.DeviceInfo{speakers}}
	monitor := NewRouteMonitor(lister, center, 5*time.Millisecond)
	monitor.Start(context.Background())
	monitor.Start(context.Background())
	defer monitor.Stop()

	lister.set(speakers, headphones)
	select {
	case c := <-posted:
		assert.Equal(t, RouteChangeNewDeviceAvailable, c.Reason)
	case <-time.After(time.Second):
		t.Fatal("route change not posted")
	}

	monitor.Stop()
	monitor.Stop()
}

func TestRouteChangeReasonStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "CategoryChange", RouteChangeCategoryChange.String())
	assert.Equal(t, "WakeFromSleep", RouteChangeWakeFromSleep.String())
	assert.Equal(t, "Unknown", RouteChangeReason(99).String())
	assert.Equal(t, "<none>", Route{}.String())
	assert.Equal(t, "Headphones, Speakers (default: Speakers)",
		Route{Outputs: []string{"Headphones", "Speakers"}, Default: "Speakers"}.String())
}
