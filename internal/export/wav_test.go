package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/tone"
)

func newOscillator(t *testing.T) *tone.Oscillator {
	t.Helper()
	osc, err := tone.NewOscillator(440, 48000, 0.25)
	require.NoError(t, err)
	return osc
}

func TestSaveWAVWritesTone(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "tone.wav")
	opts := WAVOptions{Duration: 250 * time.Millisecond, Channels: 2, BitDepth: 16}
	require.NoError(t, SaveWAV(path, newOscillator(t), opts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(48000), dec.SampleRate)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
	require.Len(t, buf.Data, 12000*2)

	assert.Zero(t, buf.Data[0], "the file starts at phase zero")
	peak := 0
	for i := 0; i < len(buf.Data); i += 2 {
		assert.Equal(t, buf.Data[i], buf.Data[i+1], "both channels carry the same sample")
		peak = max(peak, buf.Data[i])
	}
	assert.InDelta(t, 0.25*32767, peak, 10)
}

func TestWriteWAVResetsPhase(t *testing.T) {
	t.Parallel()

	osc := newOscillator(t)
	osc.Produce(make([]float32, 17), 17)
	require.NotZero(t, osc.Phase())

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	frames, err := WriteWAV(f, osc, WAVOptions{Duration: 10 * time.Millisecond, Channels: 1, BitDepth: 24})
	require.NoError(t, err)
	assert.Equal(t, 480, frames)
}

func TestWAVOptionsValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts WAVOptions
	}{
		{"zero duration", WAVOptions{Duration: 0, Channels: 2, BitDepth: 16}},
		{"no channels", WAVOptions{Duration: time.Second, Channels: 0, BitDepth: 16}},
		{"eight bit", WAVOptions{Duration: time.Second, Channels: 2, BitDepth: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := SaveWAV(filepath.Join(t.TempDir(), "x.wav"), newOscillator(t), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}

	assert.NoError(t, DefaultWAVOptions().validate())
}
