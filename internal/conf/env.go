// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "TONEBARRIER_DEBUG", validateEnvBool},

		// Tone and device
		{"audio.backend", "TONEBARRIER_AUDIO_BACKEND", validateEnvBackend},
		{"audio.device", "TONEBARRIER_AUDIO_DEVICE", nil},
		{"audio.frequency", "TONEBARRIER_AUDIO_FREQUENCY", validateEnvFrequency},
		{"audio.samplerate", "TONEBARRIER_AUDIO_SAMPLERATE", validateEnvSampleRate},
		{"audio.amplitude", "TONEBARRIER_AUDIO_AMPLITUDE", validateEnvAmplitude},

		// Session
		{"session.routepollinterval", "TONEBARRIER_SESSION_ROUTEPOLLINTERVAL", validateEnvDuration},

		// MQTT
		{"mqtt.enabled", "TONEBARRIER_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "TONEBARRIER_MQTT_BROKER", validateEnvBroker},
		{"mqtt.topic", "TONEBARRIER_MQTT_TOPIC", nil},
		{"mqtt.username", "TONEBARRIER_MQTT_USERNAME", nil},
		{"mqtt.password", "TONEBARRIER_MQTT_PASSWORD", nil},

		// Web server and telemetry
		{"webserver.port", "TONEBARRIER_WEBSERVER_PORT", validateEnvPort},
		{"telemetry.enabled", "TONEBARRIER_TELEMETRY_ENABLED", validateEnvBool},
		{"sentry.enabled", "TONEBARRIER_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "TONEBARRIER_SENTRY_DSN", nil},

		// Logging
		{"logging.default_level", "TONEBARRIER_LOG_LEVEL", validateEnvLogLevel},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

func validateEnvBackend(value string) error {
	if !slices.Contains(validBackends, normalizeBackend(value)) {
		return fmt.Errorf("unsupported audio backend: %s", value)
	}
	return nil
}

func validateEnvFrequency(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid frequency value: %s", value)
	}
	if f <= 0 || f >= MaxSampleRate/2 {
		return fmt.Errorf("frequency must be between 0 and %d Hz, got %g", MaxSampleRate/2, f)
	}
	return nil
}

func validateEnvSampleRate(value string) error {
	rate, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid sample rate value: %s", value)
	}
	if rate < MinSampleRate || rate > MaxSampleRate {
		return fmt.Errorf("sample rate must be between %d and %d, got %d", MinSampleRate, MaxSampleRate, rate)
	}
	return nil
}

func validateEnvAmplitude(value string) error {
	a, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid amplitude value: %s", value)
	}
	if a < 0 || a > 1 {
		return fmt.Errorf("amplitude must be between 0.0 and 1.0, got %g", a)
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid duration value: %s", value)
	}
	return nil
}

func validateEnvBroker(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid broker URL: %s", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port value: %s", value)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !slices.Contains(validLogLevels, strings.ToLower(strings.TrimSpace(value))) {
		return fmt.Errorf("invalid log level: %s", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars()
}
