package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// Params holds numeric settings for one operation, keyed by parameter name.
type Params struct {
	Num map[string]float64
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// ParseParams parses "key=value" pairs.
func ParseParams(pairs []string) (Params, error) {
	p := Params{Num: make(map[string]float64, len(pairs))}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return Params{}, fmt.Errorf("parameter %q: want key=value: %w", pair, core.ErrInvalidParameter)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || !core.IsFinite(v) {
			return Params{}, fmt.Errorf("parameter %q: value must be a finite number: %w", pair, core.ErrInvalidParameter)
		}

		p.Num[key] = v
	}

	return p, nil
}

// ParseOperation builds the operation named by name (slug or display name)
// from its defaults overridden by params. Unknown keys and out-of-range
// values are rejected with core.ErrInvalidParameter.
func ParseOperation(name string, params Params) (Operation, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}

	op, err := Default(kind)
	if err != nil {
		return nil, err
	}

	b := binder{p: params, used: map[string]bool{}}

	switch o := op.(type) {
	case NoiseReduction:
		b.int("fft-size", &o.Gate.FFTSize)
		b.int("hop-size", &o.Gate.HopSize)
		b.float("noise-fraction", &o.Gate.NoiseFrameFraction)
		b.float("n-std-thresh", &o.Gate.NStdThresh)
		b.float("freq-smooth-hz", &o.Gate.FreqMaskSmoothHz)
		b.float("time-smooth-ms", &o.Gate.TimeMaskSmoothMs)
		b.float("prop-decrease", &o.Gate.PropDecrease)
		op = o
	case EchoReduction:
		b.int("filter-length", &o.Config.FilterLength)
		b.float("step-size", &o.Config.StepSize)
		b.float("delay-ms", &o.Config.DelayMs)
		op = o
	case ReverbReduction:
		b.int("fft-size", &o.Config.FFTSize)
		b.int("hop-size", &o.Config.HopSize)
		b.int("iterations", &o.Config.Iterations)
		b.int("taps", &o.Config.Taps)
		b.int("delay", &o.Config.Delay)
		b.float("epsilon", &o.Config.Epsilon)
		op = o
	case VolumeNormalization:
		b.float("target-lufs", &o.TargetLUFS)
		op = o
	case VolumeCompression:
		b.float("threshold-db", &o.Config.ThresholdDB)
		b.float("ratio", &o.Config.Ratio)
		b.float("attack", &o.Config.AttackSec)
		b.float("release", &o.Config.ReleaseSec)
		b.float("knee-db", &o.Config.KneeDB)
		b.float("makeup-db", &o.Config.MakeupGainDB)
		op = o
	}

	if err := b.finish(kind); err != nil {
		return nil, err
	}

	if err := op.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", kind.Slug(), err)
	}

	return op, nil
}

// binder copies recognised keys into operation fields and remembers the
// first conversion error.
type binder struct {
	p    Params
	used map[string]bool
	err  error
}

func (b *binder) float(key string, dst *float64) {
	v, ok := b.p.Num[key]
	if !ok {
		return
	}

	b.used[key] = true
	*dst = v
}

func (b *binder) int(key string, dst *int) {
	v, ok := b.p.Num[key]
	if !ok {
		return
	}

	b.used[key] = true

	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		if b.err == nil {
			b.err = fmt.Errorf("parameter %s must be an integer: %g: %w", key, v, core.ErrInvalidParameter)
		}

		return
	}

	*dst = int(v)
}

func (b *binder) finish(kind Kind) error {
	if b.err != nil {
		return fmt.Errorf("%s: %w", kind.Slug(), b.err)
	}

	var unknown []string

	for key := range b.p.Num {
		if !b.used[key] {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)

		return fmt.Errorf("%s: unknown parameters %s: %w",
			kind.Slug(), strings.Join(unknown, ", "), core.ErrInvalidParameter)
	}

	return nil
}
