// config.go: settings struct for the tone player and functions to load it
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// AudioSettings contains settings for the tone generator and output device.
type AudioSettings struct {
	Backend      string  // audio backend: auto, alsa, pulseaudio, jack, coreaudio, wasapi, none
	Device       string  // playback device name, empty for system default
	Frequency    float64 // tone frequency in Hz
	SampleRate   int     // requested sample rate in Hz
	Amplitude    float64 // peak amplitude, 0.0 to 1.0
	BufferFrames int     // device period size in frames, 0 lets the backend decide
}

// SessionSettings holds the device-session preferences applied at startup.
type SessionSettings struct {
	Category             string        // playandrecord, playback
	Mode                 string        // default, measurement
	DefaultToSpeaker     bool          // route output to the built-in speaker when no other route is set
	Multichannel         bool          // allow multichannel content
	InputChannels        int           // preferred input channel count
	OutputChannels       int           // preferred output channel count
	NoSystemAlerts       bool          // prefer no interruptions from system alerts
	RoutePollInterval    time.Duration // interval between playback device scans
	InterruptionTopic    bool          // true to accept interruptions from MQTT
	ResumeOnInterruptEnd bool          // resume playback when an interruption ends
}

// NowPlayingSettings is the metadata shown on the now-playing surface.
type NowPlayingSettings struct {
	Title   string
	Artist  string
	Album   string
	Artwork string // artwork reference
}

// MQTTSettings contains settings for the MQTT remote-control surface.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT
	Broker   string // MQTT (tcp://host:port)
	Topic    string // topic prefix
	Username string // MQTT username
	Password string // MQTT password
	ClientID string // client id prefix, a random suffix is appended
	Retain   bool   // retain now-playing messages
}

// WebServerSettings contains settings for the HTTP control surface.
type WebServerSettings struct {
	Enabled bool   // true to enable web server
	Port    string // port for web server
	Debug   bool
}

// TelemetrySettings contains settings for telemetry.
type TelemetrySettings struct {
	Enabled bool // true to enable Prometheus compatible /metrics endpoint
}

// SentrySettings contains settings for error reporting.
type SentrySettings struct {
	Enabled bool   // true to report errors to Sentry
	DSN     string // Sentry DSN
	Debug   bool
}

// Settings contains all configuration options for the application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`

	Main struct {
		Name string // instance name, used in MQTT client id and metadata
	}

	Audio      AudioSettings
	Session    SessionSettings
	NowPlaying NowPlayingSettings
	MQTT       MQTTSettings
	WebServer  WebServerSettings
	Telemetry  TelemetrySettings
	Sentry     SentrySettings
	Logging    logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into the settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults and environment bindings and reads the configuration file.
// An explicit config file set with viper.SetConfigFile is created from the
// embedded default when missing.
func initViper() error {
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
			return createDefaultConfig(cfgFile)
		}
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(filepath.Join(configPaths[0], "config.yaml"))
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the embedded default config to configPath and reads it
func createDefaultConfig(configPath string) error {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
