package devices

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/audiograph"
	"github.com/tphakala/tonebarrier/internal/audiograph/audiographtest"
)

func TestPrintDevicesMarksSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		deviceName string
		want       string
	}{
		{"system default", "", "Playback devices (test):\n* 0: Speakers (hw:0,0)\n  1: Headphones (hw:1,0)\n"},
		{"by name", "Headphones", "Playback devices (test):\n  0: Speakers (hw:0,0)\n* 1: Headphones (hw:1,0)\n"},
		{"by id", "hw:1,0", "Playback devices (test):\n  0: Speakers (hw:0,0)\n* 1: Headphones (hw:1,0)\n"},
		{"missing", "USB DAC", "Playback devices (test):\n  0: Speakers (hw:0,0)\n  1: Headphones (hw:1,0)\nConfigured device \"USB DAC\" not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			require.NoError(t, PrintDevices(&out, audiographtest.NewBackend(audiographtest.StereoF32), tt.deviceName))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestPrintDevicesEmpty(t *testing.T) {
	t.Parallel()

	backend := audiographtest.NewBackend(audiographtest.StereoF32)
	backend.SetDevices([]audiograph.DeviceInfo{})

	var out bytes.Buffer
	require.NoError(t, PrintDevices(&out, backend, ""))
	assert.Equal(t, "No playback devices found on test backend\n", out.String())
}
