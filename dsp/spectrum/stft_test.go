package spectrum

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/internal/testutil"
)

func TestNewSTFTValidation(t *testing.T) {
	tests := []struct {
		name    string
		fft     int
		hop     int
		wantErr bool
	}{
		{name: "defaults", fft: 512, hop: 128},
		{name: "hop equals fft", fft: 64, hop: 64},
		{name: "not power of two", fft: 500, hop: 100, wantErr: true},
		{name: "too small", fft: 8, hop: 2, wantErr: true},
		{name: "zero hop", fft: 512, hop: 0, wantErr: true},
		{name: "hop too large", fft: 512, hop: 513, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSTFT(tt.fft, tt.hop)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSTFT() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, core.ErrInvalidParameter) {
				t.Fatalf("NewSTFT() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestSTFTShape(t *testing.T) {
	s, err := NewSTFT(512, 128)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}

	spec, err := s.Forward(make([]float64, 1000))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if spec.NumBins() != 257 {
		t.Fatalf("bins = %d, want 257", spec.NumBins())
	}

	if spec.NumFrames() != 1+1000/128 {
		t.Fatalf("frames = %d, want %d", spec.NumFrames(), 1+1000/128)
	}
}

func TestSTFTRoundTrip(t *testing.T) {
	input := testutil.DeterministicNoise(3, 0.8, 3001)

	for _, cfg := range []struct{ fft, hop int }{{512, 128}, {256, 64}, {1024, 256}, {64, 32}, {32, 1}} {
		s, err := NewSTFT(cfg.fft, cfg.hop)
		if err != nil {
			t.Fatalf("NewSTFT(%d,%d) error = %v", cfg.fft, cfg.hop, err)
		}

		spec, err := s.Forward(input)
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}

		out, err := s.Inverse(spec, len(input))
		if err != nil {
			t.Fatalf("Inverse() error = %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, out, input, 1e-9)
	}
}

func TestSTFTInverseTargetLength(t *testing.T) {
	s, err := NewSTFT(64, 16)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}

	input := testutil.DeterministicSine(440, 8000, 0.5, 200)

	spec, err := s.Forward(input)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	short, err := s.Inverse(spec, 150)
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, short, input[:150], 1e-9)

	long, err := s.Inverse(spec, 400)
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}

	if len(long) != 400 {
		t.Fatalf("len = %d, want 400", len(long))
	}

	testutil.RequireSliceNearlyEqual(t, long[:200], input, 1e-9)
}

func TestSTFTSinePeaksAtExpectedBin(t *testing.T) {
	const (
		fs  = 8000.0
		fft = 256
	)

	bin := 32
	freq := float64(bin) * fs / fft

	s, err := NewSTFT(fft, 64)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}

	spec, err := s.Forward(testutil.DeterministicSine(freq, fs, 1, 4096))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	mid := spec.NumFrames() / 2
	best, bestMag := 0, 0.0

	for k := range spec.NumBins() {
		if m := cmplx.Abs(spec.Bins[k][mid]); m > bestMag {
			best, bestMag = k, m
		}
	}

	if best != bin {
		t.Fatalf("peak bin = %d, want %d", best, bin)
	}
}

func TestSTFTErrors(t *testing.T) {
	s, err := NewSTFT(64, 16)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}

	if _, err := s.Forward(nil); !errors.Is(err, core.ErrEmptyBuffer) {
		t.Fatalf("Forward(nil) error = %v, want ErrEmptyBuffer", err)
	}

	other, err := NewSTFT(128, 16)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}

	spec, err := other.Forward(make([]float64, 100))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if _, err := s.Inverse(spec, 100); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Inverse(mismatch) error = %v, want ErrInvalidParameter", err)
	}

	if _, err := other.Inverse(spec, 0); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Inverse(length=0) error = %v, want ErrInvalidParameter", err)
	}
}

func TestSpectrogramClone(t *testing.T) {
	spec := &Spectrogram{Bins: [][]complex128{{1, 2}}, FFTSize: 16, HopSize: 4}
	c := spec.Clone()
	c.Bins[0][0] = 9

	if spec.Bins[0][0] != 1 {
		t.Fatal("Clone must not share bin storage")
	}

	if math.IsNaN(real(c.Bins[0][1])) {
		t.Fatal("unexpected NaN")
	}
}
