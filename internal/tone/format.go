package tone

import "fmt"

// SampleFormat is the encoding of one sample in a device buffer.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatF32
)

// BytesPerSample returns the encoded size of one sample, 0 for FormatUnknown.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatF32:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	default:
		return "unknown"
	}
}

// Format describes the interleaved buffer layout negotiated with the output device.
type Format struct {
	SampleFormat SampleFormat
	Channels     int
	SampleRate   int
}

// FrameSize returns the bytes per interleaved frame, 0 if the format is incomplete.
func (f Format) FrameSize() int {
	if f.Channels <= 0 {
		return 0
	}
	return f.SampleFormat.BytesPerSample() * f.Channels
}

// Valid reports whether buffers in this format can be written.
func (f Format) Valid() bool {
	return f.FrameSize() > 0 && f.SampleRate > 0
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dch %dHz", f.SampleFormat, f.Channels, f.SampleRate)
}
