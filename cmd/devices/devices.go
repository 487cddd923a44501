package devices

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/conf"
)

// Command creates the devices command, which lists playback devices.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List playback devices",
		Long:  "List the playback devices of the configured audio backend. The default device is marked with *.",
		Annotations: map[string]string{
			"backend": "audio.backend",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := audiograph.NewMalgoBackend(settings.Audio.Backend)
			if err != nil {
				return err
			}
			defer backend.Close()
			return PrintDevices(cmd.OutOrStdout(), backend, settings.Audio.Device)
		},
	}

	cmd.Flags().String("backend", conf.BackendAuto, "Audio backend (auto, alsa, pulseaudio, jack, coreaudio, wasapi, none)")

	return cmd
}

// PrintDevices writes one line per playback device of backend. The device
// the player would select for deviceName is marked with *.
func PrintDevices(w io.Writer, backend audiograph.Backend, deviceName string) error {
	devices, err := backend.PlaybackDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		_, err := fmt.Fprintf(w, "No playback devices found on %s backend\n", backend.Name())
		return err
	}

	selected, selErr := audiograph.SelectDevice(devices, deviceName)

	fmt.Fprintf(w, "Playback devices (%s):\n", backend.Name())
	for _, d := range devices {
		marker := " "
		if selErr == nil && d.ID == selected.ID {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %d: %s (%s)\n", marker, d.Index, d.Name, d.ID); err != nil {
			return err
		}
	}
	if selErr != nil {
		_, err := fmt.Fprintf(w, "Configured device %q not found\n", deviceName)
		return err
	}
	return nil
}
