package play

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/player"
)

// Command creates the play command, which runs the player until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	var paused bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the tone",
		Long:  "Start the tone player with its HTTP and MQTT control surfaces and run until interrupted.",
		Annotations: map[string]string{
			"backend":    "audio.backend",
			"device":     "audio.device",
			"frequency":  "audio.frequency",
			"amplitude":  "audio.amplitude",
			"samplerate": "audio.samplerate",
			"port":       "webserver.port",
			"mqtt":       "mqtt.enabled",
			"broker":     "mqtt.broker",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return player.Run(ctx, settings, paused)
		},
	}

	setupFlags(cmd)
	cmd.Flags().BoolVar(&paused, "paused", false, "Start with playback paused")

	return cmd
}

// setupFlags configures flags specific to the play command. Values are read
// through viper, see the command annotations.
func setupFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", conf.BackendAuto, "Audio backend (auto, alsa, pulseaudio, jack, coreaudio, wasapi, none)")
	cmd.Flags().String("device", "", "Playback device name or ID, empty for the system default")
	cmd.Flags().Float64P("frequency", "f", conf.DefaultFrequency, "Tone frequency in Hz")
	cmd.Flags().Float64P("amplitude", "a", conf.DefaultAmplitude, "Peak amplitude, 0.0 to 1.0")
	cmd.Flags().Int("samplerate", conf.DefaultSampleRate, "Sample rate in Hz")
	cmd.Flags().String("port", "8080", "Port of the HTTP control server")
	cmd.Flags().Bool("mqtt", false, "Enable MQTT remote control")
	cmd.Flags().String("broker", "tcp://localhost:1883", "MQTT broker URL")
}
