package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/effects/dynamics"
	"github.com/cwbudde/algo-restore/dsp/effects/restoration"
)

// Stage describes one completed operation.
type Stage struct {
	Op      Kind
	Output  core.Signal
	Elapsed time.Duration
	// Attrs carries stage measurements such as applied gain or ERLE.
	Attrs []slog.Attr
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDenoiser replaces the default spectral gate used by NoiseReduction.
func WithDenoiser(d restoration.Denoiser) Option {
	return func(p *Pipeline) { p.denoiser = d }
}

// WithLogger sets the logger that receives one debug record per stage.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStageHook registers fn to be called after every completed stage.
func WithStageHook(fn func(Stage)) Option {
	return func(p *Pipeline) { p.hook = fn }
}

// Pipeline executes operations in Kind order. A Pipeline holds no signal
// state, but an injected Denoiser may; use one Pipeline per goroutine.
type Pipeline struct {
	denoiser restoration.Denoiser
	logger   *slog.Logger
	hook     func(Stage)
}

// New returns a pipeline configured by opts.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Order validates ops, rejects repeated kinds and returns them sorted into
// execution order.
func Order(ops []Operation) ([]Operation, error) {
	seen := make(map[Kind]bool, len(ops))

	for _, op := range ops {
		if op == nil || !op.Kind().Valid() {
			return nil, fmt.Errorf("invalid operation %v: %w", op, core.ErrInvalidParameter)
		}

		if seen[op.Kind()] {
			return nil, fmt.Errorf("operation %q selected more than once: %w", op.Kind(), core.ErrInvalidParameter)
		}

		seen[op.Kind()] = true
	}

	ordered := slices.Clone(ops)
	slices.SortStableFunc(ordered, func(a, b Operation) int { return int(a.Kind()) - int(b.Kind()) })

	return ordered, nil
}

// Run applies ops to sig and returns the final signal. With no operations
// the result is a copy of sig. ctx is checked between stages only.
func (p *Pipeline) Run(ctx context.Context, sig core.Signal, ops ...Operation) (core.Signal, error) {
	if err := sig.Validate(); err != nil {
		return core.Signal{}, err
	}

	ordered, err := Order(ops)
	if err != nil {
		return core.Signal{}, err
	}

	for _, op := range ordered {
		if err := p.validate(op); err != nil {
			return core.Signal{}, &OperationError{Op: op.Kind(), Err: err}
		}
	}

	cur := sig.Clone()

	for _, op := range ordered {
		if err := ctx.Err(); err != nil {
			return core.Signal{}, err
		}

		start := time.Now()

		out, attrs, err := p.apply(op, cur)
		if err == nil {
			err = checkStage(cur.Samples, out)
		}

		if err != nil {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "stage failed",
				slog.String("op", op.Kind().Slug()), slog.Any("error", err))

			return core.Signal{}, &OperationError{Op: op.Kind(), Err: err}
		}

		cur = cur.WithSamples(out)
		stage := Stage{Op: op.Kind(), Output: cur, Elapsed: time.Since(start), Attrs: attrs}

		p.logger.LogAttrs(ctx, slog.LevelDebug, "stage complete", append([]slog.Attr{
			slog.String("op", op.Kind().Slug()),
			slog.Int("samples", cur.Len()),
			slog.Duration("elapsed", stage.Elapsed),
		}, attrs...)...)

		if p.hook != nil {
			p.hook(stage)
		}
	}

	return cur, nil
}

// validate checks op's parameters. An injected Denoiser does not read the
// gate settings, so they are not checked when one is present.
func (p *Pipeline) validate(op Operation) error {
	if _, ok := op.(NoiseReduction); ok && p.denoiser != nil {
		return nil
	}

	return op.validate()
}

func (p *Pipeline) apply(op Operation, sig core.Signal) ([]float64, []slog.Attr, error) {
	switch o := op.(type) {
	case NoiseReduction:
		d := p.denoiser
		if d == nil {
			gate, err := restoration.NewSpectralGate(o.Gate)
			if err != nil {
				return nil, nil, err
			}

			d = gate
		}

		out, err := d.Denoise(sig.Samples, sig.SampleRate)

		return out, nil, err

	case EchoReduction:
		ec, err := restoration.NewEchoCanceller(sig.SampleRate, o.Config)
		if err != nil {
			return nil, nil, err
		}

		out, err := ec.Process(sig.Samples)

		return out, []slog.Attr{
			slog.Int("delay_samples", ec.DelaySamples()),
			slog.Float64("erle_db", ec.LastERLE()),
		}, err

	case ReverbReduction:
		d, err := restoration.NewDereverberator(sig.SampleRate, o.Config)
		if err != nil {
			return nil, nil, err
		}

		out, err := d.Process(sig.Samples)

		return out, nil, err

	case VolumeNormalization:
		n, err := dynamics.NewNormalizer(o.TargetLUFS)
		if err != nil {
			return nil, nil, err
		}

		res, err := n.Normalize(sig.Samples, sig.SampleRate)
		if err != nil {
			return nil, nil, err
		}

		return res.Samples, []slog.Attr{
			slog.Float64("input_lufs", res.InputLUFS),
			slog.Float64("gain_db", res.GainDB),
			slog.Bool("skipped", res.Skipped),
		}, nil

	case VolumeCompression:
		c, err := dynamics.NewCompressor(float64(sig.SampleRate), o.Config)
		if err != nil {
			return nil, nil, err
		}

		out, err := c.Process(sig.Samples)
		m := c.Metrics()

		return out, []slog.Attr{
			slog.Float64("max_gain_reduction_db", m.MaxGainReductionDB),
		}, err

	default:
		return nil, nil, fmt.Errorf("unsupported operation %T: %w", op, core.ErrInvalidParameter)
	}
}

// checkStage enforces the stage contract: same length, finite samples and
// every sample clipped to [-1, 1].
func checkStage(in, out []float64) error {
	if err := core.LengthMatch(in, out); err != nil {
		return err
	}

	if err := core.CheckFinite(out); err != nil {
		return err
	}

	core.ClipInPlace(out)

	return nil
}
