package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// RouteChangeReason is why the audio route changed.
type RouteChangeReason int

const (
	RouteChangeUnknown RouteChangeReason = iota
	RouteChangeNewDeviceAvailable
	RouteChangeOldDeviceUnavailable
	RouteChangeCategoryChange
	RouteChangeOverride
	RouteChangeWakeFromSleep
	RouteChangeNoSuitableRouteForCategory
)

func (r RouteChangeReason) String() string {
	switch r {
	case RouteChangeNewDeviceAvailable:
		return "NewDeviceAvailable"
	case RouteChangeOldDeviceUnavailable:
		return "OldDeviceUnavailable"
	case RouteChangeCategoryChange:
		return "CategoryChange"
	case RouteChangeOverride:
		return "Override"
	case RouteChangeWakeFromSleep:
		return "WakeFromSleep"
	case RouteChangeNoSuitableRouteForCategory:
		return "NoSuitableRouteForCategory"
	default:
		return "Unknown"
	}
}

// Route describes the playback outputs in use.
type Route struct {
	Outputs []string
	Default string
}

func (r Route) String() string {
	if len(r.Outputs) == 0 {
		return "<none>"
	}
	return strings.Join(r.Outputs, ", ") + " (default: " + r.Default + ")"
}

// RouteChange is posted when playback outputs change.
type RouteChange struct {
	Reason        RouteChangeReason
	PreviousRoute Route
	CurrentRoute  Route
	Category      Category // set for RouteChangeCategoryChange
	Devices       []string // devices added or removed
}

// DeviceLister lists playback devices; *audiograph.Graph satisfies it.
type DeviceLister interface {
	Devices() ([]audiograph.DeviceInfo, error)
}

// RouteMonitor polls the playback device list and posts route changes for
// added, removed and re-defaulted devices.
type RouteMonitor struct {
	lister   DeviceLister
	center   *NotificationCenter
	interval time.Duration
	log      logger.Logger

	mu      sync.Mutex
	current Route
	known   bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRouteMonitor returns a stopped monitor.
func NewRouteMonitor(lister DeviceLister, center *NotificationCenter, interval time.Duration) *RouteMonitor {
	return &RouteMonitor{
		lister:   lister,
		center:   center,
		interval: interval,
		log:      GetLogger().Module("route"),
	}
}

// Start takes an initial snapshot and begins polling. Calling Start on a
// running monitor is a no-op.
func (m *RouteMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	m.Poll()
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Poll()
			}
		}
	}()
}

// Stop ends polling and waits for the poller to exit.
func (m *RouteMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Current returns the last observed route.
func (m *RouteMonitor) Current() Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Poll compares the device list with the last snapshot and posts any changes.
func (m *RouteMonitor) Poll() {
	devices, err := m.lister.Devices()
	if err != nil {
		m.log.Warn("failed to list playback devices", logger.Error(err))
		return
	}
	next := routeFromDevices(devices)

	m.mu.Lock()
	prev, known := m.current, m.known
	m.current, m.known = next, true
	m.mu.Unlock()

	if !known {
		return
	}
	for _, change := range diffRoutes(prev, next) {
		m.center.PostRouteChange(change)
	}
}

func routeFromDevices(devices []audiograph.DeviceInfo) Route {
	var r Route
	for _, d := range devices {
		r.Outputs = append(r.Outputs, d.Name)
		if d.IsDefault {
			r.Default = d.Name
		}
	}
	slices.Sort(r.Outputs)
	return r
}

// diffRoutes returns the notifications describing the move from prev to next
func diffRoutes(prev, next Route) []RouteChange {
	var added, removed []string
	for _, name := range next.Outputs {
		if !slices.Contains(prev.Outputs, name) {
			added = append(added, name)
		}
	}
	for _, name := range prev.Outputs {
		if !slices.Contains(next.Outputs, name) {
			removed = append(removed, name)
		}
	}

	var changes []RouteChange
	if len(removed) > 0 {
		reason := RouteChangeOldDeviceUnavailable
		if len(next.Outputs) == 0 {
			reason = RouteChangeNoSuitableRouteForCategory
		}
		changes = append(changes, RouteChange{Reason: reason, PreviousRoute: prev, CurrentRoute: next, Devices: removed})
	}
	if len(added) > 0 {
		changes = append(changes, RouteChange{Reason: RouteChangeNewDeviceAvailable, PreviousRoute: prev, CurrentRoute: next, Devices: added})
	}
	if len(changes) == 0 && prev.Default != next.Default {
		changes = append(changes, RouteChange{Reason: RouteChangeOverride, PreviousRoute: prev, CurrentRoute: next})
	}
	return changes
}
