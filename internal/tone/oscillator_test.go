package tone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/errors"
)

func newDefaultOscillator(t *testing.T) *Oscillator {
	t.Helper()
	osc, err := NewOscillator(440, 48000, 0.25)
	require.NoError(t, err)
	return osc
}

func TestOscillatorFirstSampleIsZero(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)

	buf := make([]float32, 4)
	osc.Produce(buf, len(buf))

	assert.InDelta(t, 0.0, buf[0], 1e-9)
	assert.InDelta(t, 0.25*math.Sin(2*math.Pi*440/48000), buf[1], 1e-6)
}

func TestOscillatorPhaseStaysBounded(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)

	buf := make([]float32, 1024)
	for _, n := range []int{1, 7, 64, 109, 110, 512, 1024, 3} {
		for range 200 {
			osc.Produce(buf, n)
			p := osc.Phase()
			require.GreaterOrEqual(t, p, float32(0))
			require.Less(t, p, twoPi)
		}
	}
}

func TestOscillatorAmplitudeBound(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)

	buf := make([]float32, 48000)
	osc.Produce(buf, len(buf))
	for _, s := range buf {
		require.LessOrEqual(t, math.Abs(float64(s)), 0.25+1e-6)
	}
}

func TestOscillatorContinuityAcrossBuffers(t *testing.T) {
	t.Parallel()
	whole := newDefaultOscillator(t)
	chunked := newDefaultOscillator(t)

	const total = 4800
	reference := make([]float32, total)
	whole.Produce(reference, total)

	got := make([]float32, 0, total)
	buf := make([]float32, 97)
	for len(got) < total {
		n := min(len(buf), total-len(got))
		chunked.Produce(buf, n)
		got = append(got, buf[:n]...)
	}

	for i := range reference {
		require.InDelta(t, reference[i], got[i], 1e-6, "sample %d differs", i)
	}

	// max step between neighbours is bounded by amplitude times the phase increment
	maxStep := 0.25*2*math.Pi*440/48000 + 1e-6
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, math.Abs(float64(got[i]-got[i-1])), maxStep)
	}
}

func TestOscillatorPeriod(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)
	assert.InDelta(t, 109.09, osc.Period(), 0.01)

	buf := make([]float32, 440)

	// after 109 samples the phase has not wrapped, after 110 it has
	probe := newDefaultOscillator(t)
	probe.Produce(buf, 109)
	assert.Greater(t, probe.Phase(), float32(6.2))
	probe.Produce(buf, 1)
	assert.Less(t, probe.Phase(), float32(0.1))

	// one second of samples holds 440 cycles
	one := newDefaultOscillator(t)
	second := make([]float32, 48000)
	one.Produce(second, len(second))
	crossings := 0
	for i := 1; i < len(second); i++ {
		if second[i-1] < 0 && second[i] >= 0 {
			crossings++
		}
	}
	assert.InDelta(t, 440, crossings, 1)
}

func TestOscillatorClampsFrameCount(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)

	buf := make([]float32, 8)
	assert.NotPanics(t, func() { osc.Produce(buf, 100) })
	assert.InDelta(t, float64(8*osc.increment), float64(osc.Phase()), 1e-5)
}

func TestOscillatorReset(t *testing.T) {
	t.Parallel()
	osc := newDefaultOscillator(t)
	buf := make([]float32, 50)
	osc.Produce(buf, len(buf))
	require.NotZero(t, osc.Phase())

	osc.Reset()
	assert.Zero(t, osc.Phase())
}

func TestNewOscillatorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		frequency  float64
		sampleRate int
		amplitude  float64
	}{
		{"zero sample rate", 440, 0, 0.25},
		{"zero frequency", 0, 48000, 0.25},
		{"nyquist frequency", 24000, 48000, 0.25},
		{"negative amplitude", 440, 48000, -0.1},
		{"amplitude above one", 440, 48000, 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewOscillator(tt.frequency, tt.sampleRate, tt.amplitude)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func BenchmarkOscillatorProduce(b *testing.B) {
	osc, err := NewOscillator(440, 48000, 0.25)
	require.NoError(b, err)
	buf := make([]float32, 512)

	b.ReportAllocs()
	for b.Loop() {
		osc.Produce(buf, len(buf))
	}
}
