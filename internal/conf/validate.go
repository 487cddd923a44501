// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	validBackends = []string{
		BackendAuto, BackendALSA, BackendPulseAudio, BackendJACK,
		BackendCoreAudio, BackendWASAPI, BackendNone,
	}
	validLogLevels = []string{"trace", "debug", "info", "warn", "error"}
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateSessionSettings(&settings.Session); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateSentrySettings(&settings.Sentry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateLoggingLevel(settings.Logging.DefaultLevel); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// normalizeBackend lower-cases name and maps the null alias to none
func normalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == backendNullAlias {
		return BackendNone
	}
	return name
}

// validateAudioSettings validates the tone and device settings
func validateAudioSettings(settings *AudioSettings) error {
	var errs []string

	settings.Backend = normalizeBackend(settings.Backend)
	if !slices.Contains(validBackends, settings.Backend) {
		errs = append(errs, fmt.Sprintf("unsupported audio backend %q", settings.Backend))
	}
	if settings.SampleRate < MinSampleRate || settings.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Sprintf("sample rate must be between %d and %d", MinSampleRate, MaxSampleRate))
	}
	// frequency must stay below Nyquist for the requested rate
	nyquist := float64(settings.SampleRate) / 2
	if settings.Frequency <= 0 || settings.Frequency >= nyquist {
		errs = append(errs, fmt.Sprintf("frequency must be between 0 and %g Hz", nyquist))
	}
	if settings.Amplitude < 0 || settings.Amplitude > 1 {
		errs = append(errs, "amplitude must be between 0.0 and 1.0")
	}
	if settings.BufferFrames < 0 {
		errs = append(errs, "buffer frames must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("audio settings errors: %v", errs)
	}
	return nil
}

// validateSessionSettings validates the session preferences
func validateSessionSettings(settings *SessionSettings) error {
	var errs []string

	settings.Category = strings.ToLower(settings.Category)
	if settings.Category != CategoryPlayAndRecord && settings.Category != CategoryPlayback {
		errs = append(errs, fmt.Sprintf("unsupported session category %q", settings.Category))
	}
	settings.Mode = strings.ToLower(settings.Mode)
	if settings.Mode != ModeDefault && settings.Mode != ModeMeasurement {
		errs = append(errs, fmt.Sprintf("unsupported session mode %q", settings.Mode))
	}
	if settings.OutputChannels < 1 || settings.OutputChannels > MaxChannels {
		errs = append(errs, fmt.Sprintf("output channels must be between 1 and %d", MaxChannels))
	}
	if settings.InputChannels < 0 || settings.InputChannels > MaxChannels {
		errs = append(errs, fmt.Sprintf("input channels must be between 0 and %d", MaxChannels))
	}
	if settings.RoutePollInterval < MinRoutePollInterval*time.Millisecond {
		errs = append(errs, fmt.Sprintf("route poll interval must be at least %dms", MinRoutePollInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("session settings errors: %v", errs)
	}
	return nil
}

// validateMQTTSettings validates the MQTT settings when MQTT is enabled
func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string
	u, err := url.Parse(settings.Broker)
	switch {
	case settings.Broker == "":
		errs = append(errs, "broker is required when MQTT is enabled")
	case err != nil || u.Host == "":
		errs = append(errs, fmt.Sprintf("invalid broker URL %q", settings.Broker))
	case !slices.Contains([]string{"tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss"}, u.Scheme):
		errs = append(errs, fmt.Sprintf("unsupported broker scheme %q", u.Scheme))
	}
	if strings.TrimSpace(settings.Topic) == "" {
		errs = append(errs, "topic prefix is required when MQTT is enabled")
	}
	if strings.ContainsAny(settings.Topic, "#+") {
		errs = append(errs, "topic prefix must not contain wildcards")
	}

	if len(errs) > 0 {
		return fmt.Errorf("mqtt settings errors: %v", errs)
	}
	return nil
}

// validateWebServerSettings validates the web server settings
func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver port must be between 1 and 65535, got %q", settings.Port)
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("sentry DSN is required when sentry is enabled")
	}
	return nil
}

func validateLoggingLevel(level string) error {
	if level == "" {
		return nil
	}
	if !slices.Contains(validLogLevels, strings.ToLower(level)) {
		return fmt.Errorf("invalid log level %q", level)
	}
	return nil
}
