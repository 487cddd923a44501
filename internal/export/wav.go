// Package export renders the tone offline into audio files.
package export

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/tone"
)

const (
	// chunkFrames is the number of frames encoded per write
	chunkFrames = 4096

	wavFormatPCM = 1
)

// WAVOptions describes the rendered file.
type WAVOptions struct {
	Duration time.Duration
	Channels int // mono tone copied to every channel
	BitDepth int // 16, 24 or 32
}

// DefaultWAVOptions returns ten seconds of 16-bit stereo.
func DefaultWAVOptions() WAVOptions {
	return WAVOptions{Duration: 10 * time.Second, Channels: 2, BitDepth: 16}
}

func (o WAVOptions) validate() error {
	var msg string
	switch {
	case o.Duration <= 0:
		msg = "duration must be positive"
	case o.Channels < 1 || o.Channels > 8:
		msg = "channels must be between 1 and 8"
	case o.BitDepth != 16 && o.BitDepth != 24 && o.BitDepth != 32:
		msg = "bit depth must be 16, 24 or 32"
	default:
		return nil
	}
	return errors.Newf("%s", msg).
		Component("export").
		Category(errors.CategoryValidation).
		Context("duration", o.Duration.String()).
		Context("channels", o.Channels).
		Context("bit_depth", o.BitDepth).
		Build()
}

// WriteWAV renders opts.Duration of osc into w as PCM WAV and returns the
// number of frames written. osc is reset first so the file starts at phase 0.
func WriteWAV(w io.WriteSeeker, osc *tone.Oscillator, opts WAVOptions) (int, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}

	rate := osc.SampleRate()
	total := int(math.Round(opts.Duration.Seconds() * float64(rate)))
	scale := float64(int64(1)<<(opts.BitDepth-1) - 1)

	enc := wav.NewEncoder(w, rate, opts.BitDepth, opts.Channels, wavFormatPCM)
	mono := make([]float32, chunkFrames)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: opts.Channels},
		Data:           make([]int, chunkFrames*opts.Channels),
		SourceBitDepth: opts.BitDepth,
	}

	osc.Reset()
	written := 0
	for written < total {
		n := min(chunkFrames, total-written)
		osc.Produce(mono, n)

		data := buf.Data[:n*opts.Channels]
		for i, s := range mono[:n] {
			v := int(math.Round(float64(s) * scale))
			for ch := range opts.Channels {
				data[i*opts.Channels+ch] = v
			}
		}
		buf.Data = data
		if err := enc.Write(buf); err != nil {
			return written, fileError(err, "encode_wav")
		}
		buf.Data = buf.Data[:cap(buf.Data)]
		written += n
	}

	if err := enc.Close(); err != nil {
		return written, fileError(err, "finalize_wav")
	}
	return written, nil
}

// SaveWAV writes the rendered tone to path, creating parent directories.
func SaveWAV(path string, osc *tone.Oscillator, opts WAVOptions) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fileError(err, "create_directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return fileError(err, "create_file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fileError(cerr, "close_file")
		}
	}()

	frames, err := WriteWAV(f, osc, opts)
	if err != nil {
		return err
	}

	GetLogger().Info("tone rendered to WAV file",
		logger.String("path", path),
		logger.Int("frames", frames),
		logger.Int("channels", opts.Channels),
		logger.Int("bit_depth", opts.BitDepth),
		logger.Float64("frequency", osc.Frequency()))
	return nil
}

func fileError(err error, operation string) error {
	return errors.New(err).
		Component("export").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Build()
}

// GetLogger returns the export module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("export")
}
