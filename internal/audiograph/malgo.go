package audiograph

import (
	"encoding/hex"
	"runtime"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/tone"
)

// MalgoBackend opens playback devices through miniaudio.
type MalgoBackend struct {
	name string
	ctx  *malgo.AllocatedContext
	mu   sync.Mutex
	log  logger.Logger
}

// NewMalgoBackend initializes a miniaudio context. backend is one of auto, alsa,
// pulseaudio, jack, coreaudio, wasapi or none; auto picks the platform default.
func NewMalgoBackend(backend string) (*MalgoBackend, error) {
	log := GetLogger().Module("malgo")

	backends, err := backendsFor(backend)
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio", logger.String("message", strings.TrimSpace(message)))
	})
	if err != nil {
		return nil, graphConfigError(err, "init_context").
			Context("backend", backend).
			Context("os", runtime.GOOS).
			Build()
	}

	return &MalgoBackend{name: backend, ctx: ctx, log: log}, nil
}

// backendsFor maps a configured backend name to the miniaudio backend list
func backendsFor(name string) ([]malgo.Backend, error) {
	switch name {
	case "", "auto":
		backend, ok := platformBackend()
		if !ok {
			return nil, nil
		}
		return []malgo.Backend{backend}, nil
	case "alsa":
		return []malgo.Backend{malgo.BackendAlsa}, nil
	case "pulseaudio":
		return []malgo.Backend{malgo.BackendPulseaudio}, nil
	case "jack":
		return []malgo.Backend{malgo.BackendJack}, nil
	case "coreaudio":
		return []malgo.Backend{malgo.BackendCoreaudio}, nil
	case "wasapi":
		return []malgo.Backend{malgo.BackendWasapi}, nil
	case "none", "null":
		return []malgo.Backend{malgo.BackendNull}, nil
	default:
		return nil, graphConfigError(nil, "select_backend").
			Category(errors.CategoryValidation).
			Context("error", "unsupported audio backend").
			Context("backend", name).
			Build()
	}
}

// platformBackend returns the native backend for the current platform
func platformBackend() (malgo.Backend, bool) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, true
	case "windows":
		return malgo.BackendWasapi, true
	case "darwin":
		return malgo.BackendCoreaudio, true
	default:
		return malgo.BackendNull, false
	}
}

// Name returns the configured backend name.
func (b *MalgoBackend) Name() string {
	return b.name
}

// PlaybackDevices lists the playback routes known to the backend.
func (b *MalgoBackend) PlaybackDevices() ([]DeviceInfo, error) {
	infos, err := b.playbackInfos()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		devices = append(devices, toDeviceInfo(i, &infos[i]))
	}
	return devices, nil
}

func (b *MalgoBackend) playbackInfos() ([]malgo.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		return nil, errors.Newf("audio backend closed").
			Component("audiograph").
			Category(errors.CategoryState).
			Context("operation", "enumerate_devices").
			Build()
	}
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component("audiograph").
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_devices").
			Build()
	}
	return infos, nil
}

func toDeviceInfo(index int, info *malgo.DeviceInfo) DeviceInfo {
	id := info.ID.String()
	if decoded, err := hex.DecodeString(id); err == nil {
		id = strings.TrimRight(string(decoded), "\x00")
	}
	return DeviceInfo{
		Index:     index,
		ID:        id,
		Name:      info.Name(),
		IsDefault: info.IsDefault == 1,
	}
}

// OpenPlayback initializes a playback device with the backend's native sample
// format and channel count. The sample rate is requested; miniaudio resamples
// when the hardware runs at a different rate.
func (b *MalgoBackend) OpenPlayback(cfg DeviceConfig, data DataProc, onStop func()) (Device, error) {
	infos, err := b.playbackInfos()
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatUnknown
	deviceConfig.Playback.Channels = 0
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	if cfg.BufferFrames > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(cfg.BufferFrames)
	}
	deviceConfig.Alsa.NoMMap = 1

	selected := DeviceInfo{Name: "default", IsDefault: true}
	if len(infos) > 0 {
		devices := make([]DeviceInfo, len(infos))
		for i := range infos {
			devices[i] = toDeviceInfo(i, &infos[i])
		}
		if selected, err = SelectDevice(devices, cfg.DeviceName); err != nil {
			return nil, err
		}
		deviceConfig.Playback.DeviceID = infos[selected.Index].ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: malgo.DataProc(data),
		Stop: onStop,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil, errors.Newf("audio backend closed").
			Component("audiograph").
			Category(errors.CategoryState).
			Context("operation", "init_device").
			Build()
	}
	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, errors.New(err).
			Component("audiograph").
			Category(errors.CategoryAudioDevice).
			Context("device_name", selected.Name).
			Context("operation", "init_device").
			Build()
	}

	d := &malgoDevice{device: device, info: selected}
	d.format = tone.Format{
		SampleFormat: sampleFormat(device.PlaybackFormat()),
		Channels:     int(device.PlaybackChannels()),
		SampleRate:   int(device.SampleRate()),
	}
	b.log.Debug("playback device initialized",
		logger.String("device", selected.Name),
		logger.String("format", d.format.String()))
	return d, nil
}

// Close releases the miniaudio context. Devices must be closed first.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

// sampleFormat maps miniaudio formats to render formats
func sampleFormat(f malgo.FormatType) tone.SampleFormat {
	switch f {
	case malgo.FormatU8:
		return tone.FormatU8
	case malgo.FormatS16:
		return tone.FormatS16
	case malgo.FormatS24:
		return tone.FormatS24
	case malgo.FormatS32:
		return tone.FormatS32
	case malgo.FormatF32:
		return tone.FormatF32
	default:
		return tone.FormatUnknown
	}
}

// malgoDevice wraps a miniaudio playback device
type malgoDevice struct {
	device *malgo.Device
	info   DeviceInfo
	format tone.Format
}

func (d *malgoDevice) Format() tone.Format { return d.format }
func (d *malgoDevice) Info() DeviceInfo    { return d.info }
func (d *malgoDevice) Start() error        { return d.device.Start() }
func (d *malgoDevice) Stop() error         { return d.device.Stop() }
func (d *malgoDevice) IsStarted() bool     { return d.device.IsStarted() }
func (d *malgoDevice) Close()              { d.device.Uninit() }
