package audiofile

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	outputBitDepth = 16
	pcmFormat      = 1
	int16Scale     = 1 << 15
)

var errInvalidWAV = errors.New("invalid WAV file")

func decodeWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read PCM: %w", err)
	}

	bits := buf.SourceBitDepth
	if bits <= 0 {
		bits = int(dec.BitDepth)
	}

	scale, err := pcmScale(bits)
	if err != nil {
		return nil, 0, err
	}

	return downmix(buf.Data, buf.Format.NumChannels, scale), buf.Format.SampleRate, nil
}

// pcmScale returns 2^(bits-1), the full-scale value of signed integer PCM
// with the given bit depth.
func pcmScale(bits int) (float64, error) {
	if bits < 1 || bits > 32 {
		return 0, fmt.Errorf("unsupported bit depth %d", bits)
	}

	return math.Ldexp(1, bits-1), nil
}

// Encode writes sig as 16-bit mono PCM WAV. Samples are scaled by 2^15,
// truncated toward zero and clamped to the int16 range.
func Encode(w io.WriteSeeker, sig core.Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}

	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = toInt16(v)
	}

	enc := wav.NewEncoder(w, sig.SampleRate, outputBitDepth, 1, pcmFormat)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sig.SampleRate},
		Data:           data,
		SourceBitDepth: outputBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write PCM: %w", err)
	}

	return enc.Close()
}

func toInt16(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	s := math.Trunc(v * int16Scale)

	return int(core.Clamp(s, math.MinInt16, math.MaxInt16))
}
