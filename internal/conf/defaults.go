// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/tonebarrier/internal/logger"
)

// Default tone parameters.
const (
	DefaultFrequency  = 440.0
	DefaultSampleRate = 48000
	DefaultAmplitude  = 0.25
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "tonebarrier")

	viper.SetDefault("audio.backend", BackendAuto)
	viper.SetDefault("audio.device", "")
	viper.SetDefault("audio.frequency", DefaultFrequency)
	viper.SetDefault("audio.samplerate", DefaultSampleRate)
	viper.SetDefault("audio.amplitude", DefaultAmplitude)
	viper.SetDefault("audio.bufferframes", 0)

	viper.SetDefault("session.category", CategoryPlayAndRecord)
	viper.SetDefault("session.mode", ModeDefault)
	viper.SetDefault("session.defaulttospeaker", true)
	viper.SetDefault("session.multichannel", true)
	viper.SetDefault("session.inputchannels", 2)
	viper.SetDefault("session.outputchannels", 2)
	viper.SetDefault("session.nosystemalerts", true)
	viper.SetDefault("session.routepollinterval", 2*time.Second)
	viper.SetDefault("session.interruptiontopic", true)
	viper.SetDefault("session.resumeoninterruptend", true)

	viper.SetDefault("nowplaying.title", "ToneBarrier")
	viper.SetDefault("nowplaying.artist", "James Alan Bush")
	viper.SetDefault("nowplaying.album", "The Life of a Demoniac")
	viper.SetDefault("nowplaying.artwork", "WaveIcon")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "tonebarrier")
	viper.SetDefault("mqtt.clientid", "tonebarrier")
	viper.SetDefault("mqtt.retain", true)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("telemetry.enabled", true)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
}
