package tone

import (
	"encoding/binary"
	"math"
)

// writeFrames encodes the mono samples in src into dst, copying each sample to
// every channel of the interleaved frame. dst must hold len(src) frames.
func writeFrames(dst []byte, src []float32, format Format) {
	channels := format.Channels
	size := format.SampleFormat.BytesPerSample()
	offset := 0

	for _, sample := range src {
		sample = clamp(sample)
		for range channels {
			putSample(dst[offset:offset+size], sample, format.SampleFormat)
			offset += size
		}
	}
}

func putSample(dst []byte, sample float32, format SampleFormat) {
	switch format {
	case FormatF32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(sample))
	case FormatS16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(sample*math.MaxInt16)))
	case FormatS24:
		v := int32(sample * 8388607)
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
		dst[2] = byte(v >> 16)
	case FormatS32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(float64(sample)*math.MaxInt32)))
	case FormatU8:
		dst[0] = uint8(int16(sample*127) + 128)
	}
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
