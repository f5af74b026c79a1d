package audiofile

import (
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// go-mp3 always emits 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.Reader) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	pcm := make([]int, len(raw)/2)
	for i := range pcm {
		pcm[i] = int(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
	}

	return downmix(pcm, mp3Channels, int16Scale), dec.SampleRate(), nil
}

func decodeFLAC(r io.Reader) ([]float64, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, fmt.Errorf("flac: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, 0, fmt.Errorf("flac: invalid channel count %d", channels)
	}

	scale, err := pcmScale(int(stream.Info.BitsPerSample))
	if err != nil {
		return nil, 0, fmt.Errorf("flac: %w", err)
	}

	var pcm []int32

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, 0, fmt.Errorf("flac: %w", err)
		}

		if len(frame.Subframes) < channels {
			return nil, 0, fmt.Errorf("flac: frame has %d subframes, want %d", len(frame.Subframes), channels)
		}

		n := int(frame.BlockSize)
		for i := range n {
			for c := range channels {
				pcm = append(pcm, frame.Subframes[c].Samples[i])
			}
		}
	}

	return downmix(pcm, channels, scale), int(stream.Info.SampleRate), nil
}

func decodeOgg(r io.Reader) ([]float64, int, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("ogg: %w", err)
	}

	return downmix(data, format.Channels, 1), format.SampleRate, nil
}
