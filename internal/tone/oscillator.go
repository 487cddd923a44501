// Package tone generates the sine signal and renders it into device buffers
// on the real-time audio thread.
package tone

import (
	"math"

	"github.com/tphakala/tonebarrier/internal/errors"
)

const twoPi = float32(2 * math.Pi)

// Oscillator produces a sine wave sample by sample and owns its phase.
// It is not safe for concurrent use; only the render thread advances it.
type Oscillator struct {
	phase      float32
	increment  float32
	amplitude  float32
	frequency  float64
	sampleRate int
}

// NewOscillator returns an oscillator at zero phase. frequency must lie in
// (0, sampleRate/2) and amplitude in [0, 1].
func NewOscillator(frequency float64, sampleRate int, amplitude float64) (*Oscillator, error) {
	if sampleRate <= 0 {
		return nil, errors.Newf("invalid sample rate %d", sampleRate).
			Component("tone").
			Category(errors.CategoryValidation).
			Context("sample_rate", sampleRate).
			Build()
	}
	if frequency <= 0 || frequency >= float64(sampleRate)/2 {
		return nil, errors.Newf("frequency %g Hz outside (0, %g)", frequency, float64(sampleRate)/2).
			Component("tone").
			Category(errors.CategoryValidation).
			Context("frequency", frequency).
			Context("sample_rate", sampleRate).
			Build()
	}
	if amplitude < 0 || amplitude > 1 {
		return nil, errors.Newf("amplitude %g outside [0, 1]", amplitude).
			Component("tone").
			Category(errors.CategoryValidation).
			Context("amplitude", amplitude).
			Build()
	}

	return &Oscillator{
		increment:  float32(2 * math.Pi * frequency / float64(sampleRate)),
		amplitude:  float32(amplitude),
		frequency:  frequency,
		sampleRate: sampleRate,
	}, nil
}

// Produce writes frameCount samples of amplitude*sin(phase) into buf, advancing
// the phase after each one. Phase carries over between calls. frameCount is
// clamped to len(buf).
func (o *Oscillator) Produce(buf []float32, frameCount int) {
	if frameCount > len(buf) {
		frameCount = len(buf)
	}
	phase := o.phase
	for i := range frameCount {
		buf[i] = o.amplitude * float32(math.Sin(float64(phase)))
		phase += o.increment
		if phase >= twoPi {
			phase -= twoPi
		}
	}
	o.phase = phase
}

// Phase returns the current phase in radians, always in [0, 2π).
func (o *Oscillator) Phase() float32 {
	return o.phase
}

// Reset returns the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Frequency returns the tone frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// SampleRate returns the rate the phase increment was computed for.
func (o *Oscillator) SampleRate() int { return o.sampleRate }

// Amplitude returns the peak amplitude.
func (o *Oscillator) Amplitude() float64 { return float64(o.amplitude) }

// Period returns the number of samples in one cycle.
func (o *Oscillator) Period() float64 {
	return float64(o.sampleRate) / o.frequency
}
