package weighting

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
)

func TestKWeightingResponse(t *testing.T) {
	for _, sr := range []float64{16000, 44100, 48000, 96000} {
		chain, err := New(TypeK, sr)
		if err != nil {
			t.Fatalf("New(K, %v) error = %v", sr, err)
		}

		if chain.NumSections() != 2 {
			t.Fatalf("sections = %d, want 2", chain.NumSections())
		}

		// BS.1770 offsets the loudness by -0.691 dB to cancel this gain.
		if db := chain.MagnitudeDB(997, sr); math.Abs(db-0.691) > 0.3 {
			t.Errorf("%v Hz: 997 Hz gain = %.3f dB, want ~0.691 dB", sr, db)
		}

		if db := chain.MagnitudeDB(20, sr); db > -10 {
			t.Errorf("%v Hz: 20 Hz gain = %.3f dB, want < -10 dB", sr, db)
		}

		if db := chain.MagnitudeDB(sr*0.4, sr); math.Abs(db-4) > 0.3 {
			t.Errorf("%v Hz: high-frequency gain = %.3f dB, want ~+4 dB", sr, db)
		}
	}
}

func TestZWeightingIsFlat(t *testing.T) {
	chain, err := New(TypeZ, 48000)
	if err != nil {
		t.Fatalf("New(Z) error = %v", err)
	}

	for _, f := range []float64{10, 1000, 20000} {
		if db := chain.MagnitudeDB(f, 48000); math.Abs(db) > 1e-12 {
			t.Fatalf("%v Hz: %v dB, want 0", f, db)
		}
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		sr   float64
	}{
		{name: "zero rate", typ: TypeK, sr: 0},
		{name: "nan rate", typ: TypeK, sr: math.NaN()},
		{name: "rate below shelf", typ: TypeK, sr: 2000},
		{name: "unknown type", typ: Type(42), sr: 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.typ, tt.sr)
			if !errors.Is(err, core.ErrInvalidParameter) {
				t.Fatalf("New() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestTypeString(t *testing.T) {
	if TypeK.String() != "K" || TypeZ.String() != "Z" || Type(9).String() != "Unknown" {
		t.Fatal("unexpected Type.String output")
	}
}
