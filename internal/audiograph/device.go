package audiograph

import (
	"runtime"
	"strings"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/tone"
)

// DeviceInfo describes a playback route.
type DeviceInfo struct {
	Index     int
	ID        string
	Name      string
	IsDefault bool
}

// DeviceConfig is the playback device request. Sample format and channel count
// are left to the device so its native format is negotiated.
type DeviceConfig struct {
	DeviceName   string // empty or "default" selects the system default
	SampleRate   int
	BufferFrames int // 0 lets the backend decide
}

// DataProc fills out with frameCount interleaved frames. It runs on the
// real-time audio thread.
type DataProc func(out, in []byte, frameCount uint32)

// Backend opens playback devices on a platform audio stack.
type Backend interface {
	Name() string
	PlaybackDevices() ([]DeviceInfo, error)
	OpenPlayback(cfg DeviceConfig, data DataProc, onStop func()) (Device, error)
	Close() error
}

// Device is an opened playback device.
type Device interface {
	// Format returns the negotiated buffer format.
	Format() tone.Format
	Info() DeviceInfo
	Start() error
	Stop() error
	IsStarted() bool
	Close()
}

// SelectDevice finds a device by name or ID. Empty, "default" and "sysdefault"
// select the default device, or the first device when none is marked default.
func SelectDevice(devices []DeviceInfo, deviceName string) (DeviceInfo, error) {
	if deviceName == "" || deviceName == "default" || deviceName == "sysdefault" {
		for _, d := range devices {
			if d.IsDefault {
				return d, nil
			}
		}
		if len(devices) > 0 {
			return devices[0], nil
		}
	}

	for _, d := range devices {
		if d.Name == deviceName || d.ID == deviceName {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.Contains(d.Name, deviceName) {
			return d, nil
		}
	}

	return DeviceInfo{}, errors.Newf("no matching playback device found").
		Component("audiograph").
		Category(errors.CategoryAudioDevice).
		Context("device_name", deviceName).
		Context("available_devices", len(devices)).
		Context("os", runtime.GOOS).
		Build()
}
