package render

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/export"
	"github.com/tphakala/tonebarrier/internal/tone"
)

// Command creates the render command, which writes the tone to a WAV file.
func Command(settings *conf.Settings) *cobra.Command {
	opts := export.DefaultWAVOptions()
	var seconds float64

	cmd := &cobra.Command{
		Use:   "render [output.wav]",
		Short: "Render the tone to a WAV file",
		Long:  "Render the configured tone offline into a PCM WAV file, starting at phase zero.",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			"frequency":  "audio.frequency",
			"amplitude":  "audio.amplitude",
			"samplerate": "audio.samplerate",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			osc, err := tone.NewOscillator(settings.Audio.Frequency, settings.Audio.SampleRate, settings.Audio.Amplitude)
			if err != nil {
				return err
			}
			opts.Duration = time.Duration(seconds * float64(time.Second))
			if err := export.SaveWAV(args[0], osc, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s of %.1f Hz tone to %s\n", opts.Duration, osc.Frequency(), args[0])
			return nil
		},
	}

	cmd.Flags().Float64Var(&seconds, "seconds", opts.Duration.Seconds(), "Length of the rendered tone in seconds")
	cmd.Flags().IntVar(&opts.Channels, "channels", opts.Channels, "Number of channels")
	cmd.Flags().IntVar(&opts.BitDepth, "bitdepth", opts.BitDepth, "Bit depth (16, 24 or 32)")
	cmd.Flags().Float64P("frequency", "f", conf.DefaultFrequency, "Tone frequency in Hz")
	cmd.Flags().Float64P("amplitude", "a", conf.DefaultAmplitude, "Peak amplitude, 0.0 to 1.0")
	cmd.Flags().Int("samplerate", conf.DefaultSampleRate, "Sample rate in Hz")

	return cmd
}
