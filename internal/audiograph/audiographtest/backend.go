// Package audiographtest provides an in-memory playback backend for tests of
// packages built on the audio graph.
package audiographtest

import (
	"sync"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/tone"
)

// StereoF32 is the format devices report unless told otherwise.
var StereoF32 = tone.Format{SampleFormat: tone.FormatF32, Channels: 2, SampleRate: 48000}

// Backend is an audiograph.Backend with one scripted playback device.
type Backend struct {
	mu      sync.Mutex
	devices []audiograph.DeviceInfo
	device  *Device
	openErr error
	closed  bool
}

// NewBackend returns a backend listing Speakers (default) and Headphones whose
// device negotiates format.
func NewBackend(format tone.Format) *Backend {
	speakers := audiograph.DeviceInfo{ID: "hw:0,0", Name: "Speakers", IsDefault: true}
	return &Backend{
		devices: []audiograph.DeviceInfo{speakers, {Index: 1, ID: "hw:1,0", Name: "Headphones"}},
		device:  &Device{format: format, info: speakers},
	}
}

// Name implements audiograph.Backend.
func (b *Backend) Name() string { return "test" }

// PlaybackDevices implements audiograph.Backend.
func (b *Backend) PlaybackDevices() ([]audiograph.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]audiograph.DeviceInfo(nil), b.devices...), nil
}

// SetDevices replaces the listed playback devices.
func (b *Backend) SetDevices(devices []audiograph.DeviceInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = devices
}

// FailOpen makes the next OpenPlayback calls return err.
func (b *Backend) FailOpen(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

// OpenPlayback implements audiograph.Backend.
func (b *Backend) OpenPlayback(_ audiograph.DeviceConfig, data audiograph.DataProc, onStop func()) (audiograph.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.device.mu.Lock()
	b.device.data = data
	b.device.onStop = onStop
	b.device.mu.Unlock()
	return b.device, nil
}

// Close implements audiograph.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Device returns the playback device.
func (b *Backend) Device() *Device {
	return b.device
}

// Device is the scripted playback device. Stop invokes the stop callback the
// same way miniaudio does.
type Device struct {
	mu       sync.Mutex
	format   tone.Format
	info     audiograph.DeviceInfo
	started  bool
	starts   int
	closed   bool
	startErr error
	data     audiograph.DataProc
	onStop   func()
}

func (d *Device) Format() tone.Format        { return d.format }
func (d *Device) Info() audiograph.DeviceInfo { return d.info }

func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.starts++
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	d.started = false
	onStop := d.onStop
	d.mu.Unlock()
	if onStop != nil {
		onStop()
	}
	return nil
}

func (d *Device) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// FailStart makes Start return err until cleared with nil.
func (d *Device) FailStart(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startErr = err
}

// Starts returns how many times Start was called.
func (d *Device) Starts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.starts
}

// Pull runs one device callback of frameCount frames and returns the buffer.
func (d *Device) Pull(frameCount uint32) []byte {
	d.mu.Lock()
	data := d.data
	d.mu.Unlock()
	out := make([]byte, int(frameCount)*d.format.FrameSize())
	if data != nil {
		data(out, nil, frameCount)
	}
	return out
}

// Unplug simulates the device stopping on its own.
func (d *Device) Unplug() {
	d.mu.Lock()
	d.started = false
	onStop := d.onStop
	d.mu.Unlock()
	if onStop != nil {
		onStop()
	}
}
