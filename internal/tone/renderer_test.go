package tone

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebarrier/internal/logger"
)

func newTestRenderer(t *testing.T, maxFrames int, format Format) *Renderer {
	t.Helper()
	osc, err := NewOscillator(440, 48000, 0.25)
	require.NoError(t, err)
	r := NewRenderer(osc, maxFrames)
	r.SetFormat(format)
	return r
}

func TestRenderFillsFirstChannel(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t, 0, Format{})

	left := make([]float32, 64)
	right := make([]float32, 64)
	isSilence := true

	status := r.Render(&isSilence, Timestamp{}, 64, [][]float32{left, right})

	assert.Equal(t, StatusOK, status)
	assert.False(t, isSilence)
	assert.InDelta(t, 0.0, left[0], 1e-9)
	assert.NotZero(t, left[10])
	assert.Equal(t, make([]float32, 64), right, "only the first channel is rendered")
}

func TestRenderWithoutBuffer(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t, 0, Format{})

	isSilence := false
	assert.Equal(t, StatusNoBuffer, r.Render(&isSilence, Timestamp{}, 64, nil))
	assert.True(t, isSilence)
}

func TestDataProcFloat32Stereo(t *testing.T) {
	t.Parallel()
	format := Format{SampleFormat: FormatF32, Channels: 2, SampleRate: 48000}
	r := newTestRenderer(t, 0, format)

	const frames = 256
	out := make([]byte, frames*format.FrameSize())
	r.DataProc(out, nil, frames)

	ref, err := NewOscillator(440, 48000, 0.25)
	require.NoError(t, err)
	expected := make([]float32, frames)
	ref.Produce(expected, frames)

	for i := range frames {
		l := math.Float32frombits(binary.LittleEndian.Uint32(out[i*8:]))
		rr := math.Float32frombits(binary.LittleEndian.Uint32(out[i*8+4:]))
		require.InDelta(t, expected[i], l, 1e-7)
		require.Equal(t, l, rr, "frame %d channels differ", i)
	}

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Callbacks)
	assert.Equal(t, uint64(frames), stats.Frames)
}

func TestDataProcChunksLargeCallbacks(t *testing.T) {
	t.Parallel()
	format := Format{SampleFormat: FormatF32, Channels: 1, SampleRate: 48000}
	small := newTestRenderer(t, 32, format)
	large := newTestRenderer(t, 1024, format)

	const frames = 1000
	a := make([]byte, frames*4)
	b := make([]byte, frames*4)
	small.DataProc(a, nil, frames)
	large.DataProc(b, nil, frames)

	assert.True(t, bytes.Equal(a, b), "chunked rendering must match single-pass rendering")
	assert.Equal(t, uint64(frames), small.Stats().Frames)
}

func TestDataProcIntegerFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format SampleFormat
		decode func([]byte) float64
	}{
		{"s16", FormatS16, func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) / math.MaxInt16 }},
		{"s24", FormatS24, func(b []byte) float64 {
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			return float64(v) / 8388607
		}},
		{"s32", FormatS32, func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) / math.MaxInt32 }},
		{"u8", FormatU8, func(b []byte) float64 { return (float64(b[0]) - 128) / 127 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			format := Format{SampleFormat: tt.format, Channels: 2, SampleRate: 48000}
			r := newTestRenderer(t, 0, format)

			const frames = 120
			out := make([]byte, frames*format.FrameSize())
			r.DataProc(out, nil, frames)

			ref, err := NewOscillator(440, 48000, 0.25)
			require.NoError(t, err)
			expected := make([]float32, frames)
			ref.Produce(expected, frames)

			size := tt.format.BytesPerSample()
			tolerance := 2.0 / 127 // u8 quantization dominates
			for i := range frames {
				frame := out[i*format.FrameSize():]
				require.InDelta(t, float64(expected[i]), tt.decode(frame[:size]), tolerance)
				require.Equal(t, frame[:size], frame[size:2*size])
			}
		})
	}
}

func TestDataProcUnknownFormatIsSilent(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t, 0, Format{SampleFormat: FormatUnknown, Channels: 2})

	out := bytes.Repeat([]byte{0xff}, 64)
	r.DataProc(out, nil, 16)

	assert.Equal(t, make([]byte, 64), out)
	assert.Equal(t, uint64(1), r.Stats().SilentBuffers)

	select {
	case d := <-r.Diagnostics():
		assert.Equal(t, DiagnosticFormat, d.Kind)
	default:
		t.Fatal("expected a format diagnostic")
	}
}

func TestDataProcRecoversFromPanic(t *testing.T) {
	t.Parallel()
	// a renderer without an oscillator panics inside Produce
	r := NewRenderer(nil, 16)
	r.SetFormat(Format{SampleFormat: FormatF32, Channels: 2, SampleRate: 48000})

	out := bytes.Repeat([]byte{0xaa}, 16*8)
	assert.NotPanics(t, func() { r.DataProc(out, nil, 16) })
	assert.Equal(t, make([]byte, len(out)), out, "failed buffer is zero-filled")

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Panics)
	assert.Equal(t, uint64(1), stats.SilentBuffers)

	select {
	case d := <-r.Diagnostics():
		assert.Equal(t, DiagnosticPanic, d.Kind)
		assert.NotNil(t, d.Value)
		assert.Equal(t, uint32(16), d.FrameCount)
	default:
		t.Fatal("expected a panic diagnostic")
	}
}

func TestDiagnosticsDropWhenFull(t *testing.T) {
	t.Parallel()
	r := NewRenderer(nil, 16)
	r.SetFormat(Format{SampleFormat: FormatF32, Channels: 1, SampleRate: 48000})

	out := make([]byte, 64)
	for range diagnosticsBuffer + 5 {
		r.DataProc(out, nil, 16)
	}
	assert.Equal(t, uint64(5), r.Stats().DroppedDiagnostics)
}

func TestDataProcDoesNotAllocate(t *testing.T) {
	format := Format{SampleFormat: FormatS16, Channels: 2, SampleRate: 48000}
	r := newTestRenderer(t, 256, format)
	out := make([]byte, 1024*format.FrameSize())

	allocs := testing.AllocsPerRun(100, func() {
		r.DataProc(out, nil, 1024)
	})
	assert.Zero(t, allocs)
}

func TestDrainDiagnosticsLogs(t *testing.T) {
	t.Parallel()
	r := NewRenderer(nil, 16)
	r.SetFormat(Format{SampleFormat: FormatF32, Channels: 1, SampleRate: 48000})
	r.DataProc(make([]byte, 64), nil, 16)

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.DrainDiagnostics(ctx, log)
	}()

	require.Eventually(t, func() bool { return len(r.diagnostics) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, buf.String(), "render callback recovered from panic")
	assert.Contains(t, buf.String(), "kind=panic")
}
