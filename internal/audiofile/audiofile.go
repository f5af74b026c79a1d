// Package audiofile loads audio files as mono core.Signal values and writes
// them back as 16-bit PCM WAV.
package audiofile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// ErrUnsupportedFormat reports a file extension no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Extensions lists the input formats Load accepts.
var Extensions = []string{".wav", ".mp3", ".flac", ".ogg"}

// DecodeError reports an unreadable or unsupported audio source.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Supported reports whether path has an extension Load can decode.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Load decodes the file at path, downmixes it to mono and scales integer PCM
// by 2^(bits-1) so full scale maps to [-1, 1).
func Load(path string) (core.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Signal{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	sig, err := Decode(f, filepath.Ext(path))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
			return core.Signal{}, de
		}

		return core.Signal{}, &DecodeError{Path: path, Err: err}
	}

	return sig, nil
}

// Decode reads a stream in the format named by ext (".wav", ".mp3", ...).
// Failures are returned as *DecodeError with an empty Path.
func Decode(r io.ReadSeeker, ext string) (core.Signal, error) {
	var (
		samples []float64
		rate    int
		err     error
	)

	switch strings.ToLower(ext) {
	case ".wav":
		samples, rate, err = decodeWAV(r)
	case ".mp3":
		samples, rate, err = decodeMP3(r)
	case ".flac":
		samples, rate, err = decodeFLAC(r)
	case ".ogg":
		samples, rate, err = decodeOgg(r)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return core.Signal{}, &DecodeError{Err: err}
	}

	if len(samples) == 0 {
		return core.Signal{}, &DecodeError{Err: fmt.Errorf("no audio frames: %w", core.ErrEmptyBuffer)}
	}

	sig, err := core.NewSignal(samples, rate)
	if err != nil {
		return core.Signal{}, &DecodeError{Err: err}
	}

	return sig, nil
}

// Save writes sig to path as 16-bit mono PCM WAV.
func Save(path string, sig core.Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Encode(f, sig); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.Close()
}

// downmix averages interleaved frames of channels samples and divides by
// scale.
func downmix[T int | int32 | float32](interleaved []T, channels int, scale float64) []float64 {
	if channels < 1 {
		channels = 1
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)

	for i := range out {
		var sum float64
		for c := range channels {
			sum += float64(interleaved[i*channels+c])
		}

		out[i] = sum / float64(channels) / scale
	}

	return out
}
