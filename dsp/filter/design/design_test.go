package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-restore/dsp/filter/biquad"
)

func TestHighpassResponse(t *testing.T) {
	const sr = 48000.0

	hp := Highpass(100, defaultQ, sr)

	if db := hp.MagnitudeDB(100, sr); math.Abs(db+3.0103) > 0.01 {
		t.Fatalf("cutoff gain = %.3f dB, want -3.01 dB", db)
	}

	if db := hp.MagnitudeDB(10000, sr); math.Abs(db) > 0.01 {
		t.Fatalf("passband gain = %.3f dB, want 0 dB", db)
	}

	if db := hp.MagnitudeDB(10, sr); db > -35 {
		t.Fatalf("stopband gain = %.3f dB, want < -35 dB", db)
	}
}

func TestHighShelfResponse(t *testing.T) {
	const sr = 48000.0

	hs := HighShelf(1500, 4, defaultQ, sr)

	if db := hs.MagnitudeDB(20, sr); math.Abs(db) > 0.05 {
		t.Fatalf("low-frequency gain = %.3f dB, want 0 dB", db)
	}

	if db := hs.MagnitudeDB(20000, sr); math.Abs(db-4) > 0.1 {
		t.Fatalf("high-frequency gain = %.3f dB, want +4 dB", db)
	}

	if db := hs.MagnitudeDB(1500, sr); math.Abs(db-2) > 0.05 {
		t.Fatalf("shelf midpoint gain = %.3f dB, want +2 dB", db)
	}
}

func TestInvalidDesignsReturnZero(t *testing.T) {
	zero := biquad.Coefficients{}

	cases := []biquad.Coefficients{
		Highpass(0, defaultQ, 48000),
		Highpass(30000, defaultQ, 48000),
		Highpass(100, defaultQ, 0),
		HighShelf(math.NaN(), 4, defaultQ, 48000),
	}

	for i, c := range cases {
		if c != zero {
			t.Fatalf("case %d: got %+v, want zero coefficients", i, c)
		}
	}

	if got := Highpass(100, 0, 48000); got != Highpass(100, defaultQ, 48000) {
		t.Fatal("non-positive q should fall back to the default")
	}
}
