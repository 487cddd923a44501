package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Audio = AudioSettings{
		Backend:    BackendAuto,
		Frequency:  DefaultFrequency,
		SampleRate: DefaultSampleRate,
		Amplitude:  DefaultAmplitude,
	}
	s.Session = SessionSettings{
		Category:          CategoryPlayAndRecord,
		Mode:              ModeDefault,
		InputChannels:     2,
		OutputChannels:    2,
		RoutePollInterval: time.Second,
	}
	s.WebServer = WebServerSettings{Enabled: true, Port: "8080"}
	s.Logging.DefaultLevel = "info"
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateAudioSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AudioSettings)
		wantErr string
	}{
		{"frequency at nyquist", func(a *AudioSettings) { a.Frequency = 24000 }, "frequency must be between"},
		{"zero frequency", func(a *AudioSettings) { a.Frequency = 0 }, "frequency must be between"},
		{"negative amplitude", func(a *AudioSettings) { a.Amplitude = -0.1 }, "amplitude"},
		{"amplitude above one", func(a *AudioSettings) { a.Amplitude = 1.01 }, "amplitude"},
		{"low sample rate", func(a *AudioSettings) { a.SampleRate = 4000 }, "sample rate"},
		{"unknown backend", func(a *AudioSettings) { a.Backend = "oss" }, "unsupported audio backend"},
		{"negative buffer", func(a *AudioSettings) { a.BufferFrames = -1 }, "buffer frames"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(&s.Audio)
			err := validateAudioSettings(&s.Audio)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSessionSettings(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Session.Category = "Ambient"
	s.Session.OutputChannels = 0
	s.Session.RoutePollInterval = 10 * time.Millisecond

	err := validateSessionSettings(&s.Session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported session category")
	assert.Contains(t, err.Error(), "output channels")
	assert.Contains(t, err.Error(), "route poll interval")
}

func TestValidateMQTTSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mqtt    MQTTSettings
		wantErr bool
	}{
		{"disabled ignores broker", MQTTSettings{Enabled: false}, false},
		{"valid", MQTTSettings{Enabled: true, Broker: "tcp://localhost:1883", Topic: "tone"}, false},
		{"missing broker", MQTTSettings{Enabled: true, Topic: "tone"}, true},
		{"bad scheme", MQTTSettings{Enabled: true, Broker: "http://localhost:1883", Topic: "tone"}, true},
		{"wildcard topic", MQTTSettings{Enabled: true, Broker: "tcp://localhost:1883", Topic: "tone/#"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateMQTTSettings(&tt.mqtt)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateSettingsAggregatesErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Audio.Amplitude = 2
	s.WebServer.Port = "http"
	s.Sentry.Enabled = true

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}
