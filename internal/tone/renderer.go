package tone

import (
	"sync/atomic"
	"time"
)

// DefaultMaxFrames is the scratch buffer size used when NewRenderer gets a non-positive size.
const DefaultMaxFrames = 4096

const diagnosticsBuffer = 16

// Status is returned from Render to the audio clock.
type Status int

const (
	StatusOK Status = iota
	StatusNoBuffer
	StatusRecovered
)

// Timestamp is the render time reported by the audio clock.
type Timestamp struct {
	SampleTime float64 // frames rendered before this callback
	HostTime   time.Time
}

// DiagnosticKind classifies a render diagnostic.
type DiagnosticKind int

const (
	DiagnosticPanic DiagnosticKind = iota
	DiagnosticFormat
)

func (k DiagnosticKind) String() string {
	if k == DiagnosticFormat {
		return "format"
	}
	return "panic"
}

// Diagnostic describes a failure caught on the render thread. It is delivered
// to Diagnostics() and must be logged from a non-real-time goroutine.
type Diagnostic struct {
	Kind       DiagnosticKind
	Value      any
	FrameCount uint32
	Format     Format
	At         time.Time
}

// RenderStats holds render counters.
type RenderStats struct {
	Callbacks          uint64
	Frames             uint64
	Panics             uint64
	SilentBuffers      uint64
	DroppedDiagnostics uint64
}

// Renderer is the real-time render callback. Render and DataProc are called
// from the audio thread and never allocate, lock, log or perform I/O.
type Renderer struct {
	osc     *Oscillator
	scratch []float32
	chans   [][]float32 // single-element view over scratch handed to Render
	format  Format

	diagnostics chan Diagnostic

	callbacks    atomic.Uint64
	frames       atomic.Uint64
	panics       atomic.Uint64
	silent       atomic.Uint64
	droppedDiags atomic.Uint64
	sampleTime   atomic.Uint64
}

// NewRenderer returns a renderer pulling samples from osc. maxFrames sizes the
// mono scratch buffer; larger callbacks are rendered in chunks.
func NewRenderer(osc *Oscillator, maxFrames int) *Renderer {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	r := &Renderer{
		osc:         osc,
		scratch:     make([]float32, maxFrames),
		chans:       make([][]float32, 1),
		diagnostics: make(chan Diagnostic, diagnosticsBuffer),
	}
	return r
}

// SetFormat sets the interleaved device format used by DataProc. Call it only
// while the device is stopped.
func (r *Renderer) SetFormat(f Format) {
	r.format = f
}

// Format returns the device format used by DataProc.
func (r *Renderer) Format() Format {
	return r.format
}

// Oscillator returns the signal source.
func (r *Renderer) Oscillator() *Oscillator {
	return r.osc
}

// Render fills the first channel buffer in out with frameCount samples and
// clears *isSilence. Other channel buffers are left untouched.
func (r *Renderer) Render(isSilence *bool, ts Timestamp, frameCount uint32, out [][]float32) (status Status) {
	defer func() {
		if rec := recover(); rec != nil {
			status = StatusRecovered
			r.report(DiagnosticPanic, rec, frameCount)
			if len(out) > 0 {
				clear(out[0])
			}
			if isSilence != nil {
				*isSilence = true
			}
		}
	}()

	if len(out) == 0 || len(out[0]) == 0 {
		if isSilence != nil {
			*isSilence = true
		}
		return StatusNoBuffer
	}

	r.osc.Produce(out[0], int(frameCount))
	if isSilence != nil {
		*isSilence = false
	}
	return StatusOK
}

// DataProc adapts Render to the interleaved byte buffers of the device data
// callback: mono samples are rendered into scratch and written to every channel
// in the negotiated format. Failed or unwritable buffers are zero-filled.
func (r *Renderer) DataProc(out, _ []byte, frameCount uint32) {
	defer r.recoverDataProc(out, frameCount)

	r.callbacks.Add(1)

	frameSize := r.format.FrameSize()
	if frameSize == 0 {
		clear(out)
		r.silent.Add(1)
		r.report(DiagnosticFormat, nil, frameCount)
		return
	}

	frames := min(int(frameCount), len(out)/frameSize)
	offset := 0
	var isSilence bool
	for frames > 0 {
		n := min(frames, len(r.scratch))
		r.chans[0] = r.scratch[:n]
		ts := Timestamp{SampleTime: float64(r.sampleTime.Load())}
		if r.Render(&isSilence, ts, uint32(n), r.chans) != StatusOK || isSilence {
			clear(out[offset:])
			r.silent.Add(1)
			return
		}
		writeFrames(out[offset:], r.scratch[:n], r.format)
		offset += n * frameSize
		frames -= n
		r.sampleTime.Add(uint64(n))
		r.frames.Add(uint64(n))
	}
	clear(out[offset:])
}

func (r *Renderer) recoverDataProc(out []byte, frameCount uint32) {
	if rec := recover(); rec != nil {
		clear(out)
		r.report(DiagnosticPanic, rec, frameCount)
	}
}

// report counts a failure and hands the diagnostic off without blocking
func (r *Renderer) report(kind DiagnosticKind, value any, frameCount uint32) {
	if kind == DiagnosticPanic {
		r.panics.Add(1)
	}
	select {
	case r.diagnostics <- Diagnostic{Kind: kind, Value: value, FrameCount: frameCount, Format: r.format, At: time.Now()}:
	default:
		r.droppedDiags.Add(1)
	}
}

// Diagnostics returns the channel of failures caught on the render thread.
func (r *Renderer) Diagnostics() <-chan Diagnostic {
	return r.diagnostics
}

// Stats returns the current render counters.
func (r *Renderer) Stats() RenderStats {
	return RenderStats{
		Callbacks:          r.callbacks.Load(),
		Frames:             r.frames.Load(),
		Panics:             r.panics.Load(),
		SilentBuffers:      r.silent.Load(),
		DroppedDiagnostics: r.droppedDiags.Load(),
	}
}
