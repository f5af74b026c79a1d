// Package batch restores every supported audio file of a directory, one
// pipeline per file, on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-restore/dsp/pipeline"
	"github.com/cwbudde/algo-restore/internal/audiofile"
	"github.com/cwbudde/algo-restore/internal/storage"
)

var (
	// ErrNoInputs is returned when a directory holds no supported audio files.
	ErrNoInputs = errors.New("no supported audio files found")

	// ErrOutputCollision marks inputs whose output name could not be made
	// unique within the batch.
	ErrOutputCollision = errors.New("output name collides with another input")
)

// FileResult reports the outcome for one input file.
type FileResult struct {
	Input    string
	Output   string
	Err      error
	Duration time.Duration
}

// OK reports whether the file was restored and published.
func (r FileResult) OK() bool { return r.Err == nil }

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for per-file records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPipelineOptions passes opts to the pipeline built for each file.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(r *Runner) { r.pipelineOpts = append(r.pipelineOpts, opts...) }
}

// WithProgress registers fn to be called after each file completes, with
// the number of completed files and the total.
func WithProgress(fn func(done, total int, res FileResult)) Option {
	return func(r *Runner) { r.progress = fn }
}

// Runner applies a fixed set of operations to many files.
type Runner struct {
	store        storage.Storage
	ops          []pipeline.Operation
	workers      int
	logger       *slog.Logger
	pipelineOpts []pipeline.Option
	progress     func(done, total int, res FileResult)
}

// NewRunner validates ops once so a bad selection fails before any file is
// touched.
func NewRunner(store storage.Storage, ops []pipeline.Operation, opts ...Option) (*Runner, error) {
	if _, err := pipeline.Order(ops); err != nil {
		return nil, err
	}

	r := &Runner{
		store:   store,
		ops:     ops,
		workers: 1,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Discover lists the supported audio files in inDir.
func (r *Runner) Discover(ctx context.Context, inDir string) ([]string, error) {
	refs, err := r.store.List(ctx, inDir)
	if err != nil {
		return nil, err
	}

	var inputs []string

	for _, ref := range refs {
		if audiofile.Supported(ref) {
			inputs = append(inputs, ref)
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%s: %w", inDir, ErrNoInputs)
	}

	return inputs, nil
}

// OutputName maps an input reference to its "<stem>.wav" output name.
func OutputName(input string) string {
	base := storage.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
}

// PlanOutputs assigns each input its output reference in outDir. Inputs
// that share a stem, such as take.wav and take.MP3, are written as
// <stem>_<ext>.wav instead. Any name still shared after that is reported
// as ErrOutputCollision for every input involved.
func PlanOutputs(inputs []string, outDir string) ([]string, []error) {
	names := make([]string, len(inputs))
	seen := make(map[string]int, len(inputs))

	for i, in := range inputs {
		names[i] = OutputName(in)
		seen[names[i]]++
	}

	for i, in := range inputs {
		if seen[names[i]] > 1 {
			base := storage.Base(in)
			ext := filepath.Ext(base)
			names[i] = strings.TrimSuffix(base, ext) + "_" + strings.TrimPrefix(ext, ".") + ".wav"
		}
	}

	clear(seen)

	for _, name := range names {
		seen[name]++
	}

	outputs := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	for i, name := range names {
		outputs[i] = storage.Join(outDir, name)
		if seen[name] > 1 {
			errs[i] = fmt.Errorf("%s: %w", name, ErrOutputCollision)
		}
	}

	return outputs, errs
}

// Run restores every supported file in inDir into outDir. One FileResult is
// returned per input in discovery order. A failing file never stops the
// others; the returned error is non-nil only when discovery fails or ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context, inDir, outDir string) ([]FileResult, error) {
	inputs, err := r.Discover(ctx, inDir)
	if err != nil {
		return nil, err
	}

	outputs, planErrs := PlanOutputs(inputs, outDir)
	results := make([]FileResult, len(inputs))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			var res FileResult
			if planErrs[i] != nil {
				res = FileResult{Input: in, Output: outputs[i], Err: planErrs[i]}
				r.logger.Error("processing failed",
					slog.String("file", storage.Base(in)), slog.Any("error", planErrs[i]))
			} else {
				res = r.ProcessFile(gctx, in, outputs[i])
			}

			results[i] = res

			mu.Lock()
			done++
			n := done
			mu.Unlock()

			if r.progress != nil {
				r.progress(n, len(inputs), res)
			}

			return nil
		})
	}

	_ = g.Wait()

	for i, in := range inputs {
		if results[i].Input == "" {
			results[i] = FileResult{Input: in, Err: ctx.Err()}
		}
	}

	return results, ctx.Err()
}

// ProcessFile fetches, restores and publishes one file.
func (r *Runner) ProcessFile(ctx context.Context, input, output string) FileResult {
	start := time.Now()
	res := FileResult{Input: input, Output: output}

	log := r.logger.With(slog.String("file", storage.Base(input)))
	log.Info("processing started")

	res.Err = r.processFile(ctx, log, input, output)
	res.Duration = time.Since(start)

	if res.Err != nil {
		log.Error("processing failed", slog.Any("error", res.Err))
	} else {
		log.Info("saved", slog.String("output", output), slog.Duration("elapsed", res.Duration))
	}

	return res
}

func (r *Runner) processFile(ctx context.Context, log *slog.Logger, input, output string) error {
	local, err := r.store.Fetch(ctx, input)
	if err != nil {
		return err
	}

	var temps []string
	if local != input {
		temps = append(temps, local)
	}

	defer func() {
		if err := r.store.CleanupTemp(context.WithoutCancel(ctx), temps); err != nil {
			log.Warn("temp cleanup failed", slog.Any("error", err))
		}
	}()

	sig, err := audiofile.Load(local)
	if err != nil {
		return err
	}

	opts := append([]pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithStageHook(func(s pipeline.Stage) {
			log.Info(s.Op.String() + " successful")
		}),
	}, r.pipelineOpts...)

	out, err := pipeline.New(opts...).Run(ctx, sig, r.ops...)
	if err != nil {
		return err
	}

	tmp, err := r.store.TempPath(OutputName(input))
	if err != nil {
		return err
	}

	temps = append(temps, tmp)

	if err := audiofile.Save(tmp, out); err != nil {
		return err
	}

	return r.store.Publish(ctx, tmp, output)
}
