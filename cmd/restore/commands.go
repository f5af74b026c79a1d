package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/cwbudde/algo-restore/internal/audiofile"
	"github.com/cwbudde/algo-restore/internal/batch"
	"github.com/cwbudde/algo-restore/internal/cli"
	"github.com/cwbudde/algo-restore/internal/storage"
	"github.com/cwbudde/algo-restore/measure/level"
	"github.com/cwbudde/algo-restore/measure/loudness"
	"github.com/go-playground/validator/v10"
)

// OperationFlags selects operations and overrides their parameters.
type OperationFlags struct {
	Op  []string `short:"p" help:"Operation to apply (repeatable): noise-reduction, echo-reduction, reverb-reduction, volume-normalization, volume-compression or all." required:"" placeholder:"NAME"`
	Set []string `short:"s" help:"Parameter override as op.key=value, e.g. volume-compression.ratio=6 (repeatable)." placeholder:"OP.KEY=VALUE"`
}

// ProcessCmd restores one file.
type ProcessCmd struct {
	OperationFlags `embed:""`

	In  string `arg:"" help:"Input audio file or s3:// reference."`
	Out string `short:"o" required:"" help:"Output WAV file or s3:// reference."`
}

// Run executes the process command.
func (c *ProcessCmd) Run(rc *runContext) error {
	ops, err := buildOperations(c.Op, c.Set)
	if err != nil {
		return err
	}

	store, err := storage.Open(rc.ctx, rc.cfg.TempDir, rc.cfg.S3Config())
	if err != nil {
		return err
	}

	runner, err := batch.NewRunner(store, ops, batch.WithLogger(rc.cfg.NewLogger(os.Stderr)))
	if err != nil {
		return err
	}

	res := runner.ProcessFile(rc.ctx, c.In, c.Out)
	if res.Err != nil {
		return fmt.Errorf("processing failed: %w", res.Err)
	}

	cli.PrintStatus(os.Stdout, true, fmt.Sprintf("%s -> %s (%s)", res.Input, res.Output, res.Duration.Round(time.Millisecond)))

	return nil
}

// BatchCmd restores every supported file of a directory.
type BatchCmd struct {
	OperationFlags `embed:""`

	InDir   string `arg:"" name:"in-dir" help:"Input directory or s3:// prefix."`
	OutDir  string `arg:"" name:"out-dir" help:"Output directory or s3:// prefix."`
	Workers int    `short:"w" help:"Files processed concurrently. Overrides RESTORE_WORKERS." validate:"min=0,max=64"`
}

// Run executes the batch command.
func (c *BatchCmd) Run(rc *runContext) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	ops, err := buildOperations(c.Op, c.Set)
	if err != nil {
		return err
	}

	workers := rc.cfg.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}

	store, err := storage.Open(rc.ctx, rc.cfg.TempDir, rc.cfg.S3Config())
	if err != nil {
		return err
	}

	logger := rc.cfg.NewLogger(os.Stderr)
	logger.Info("batch started",
		slog.String("in", c.InDir), slog.String("out", c.OutDir), slog.Int("workers", workers))

	runner, err := batch.NewRunner(store, ops,
		batch.WithWorkers(workers),
		batch.WithLogger(logger),
		batch.WithProgress(func(done, total int, res batch.FileResult) {
			msg := fmt.Sprintf("[%d/%d] %s", done, total, storage.Base(res.Input))
			if res.Err != nil {
				msg += ": " + res.Err.Error()
			}

			cli.PrintStatus(os.Stdout, res.OK(), msg)
		}),
	)
	if err != nil {
		return err
	}

	results, err := runner.Run(rc.ctx, c.InDir, c.OutDir)
	if err != nil && results == nil {
		return err
	}

	failed := 0

	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	cli.PrintKeyValue(os.Stdout, "Processed", fmt.Sprintf("%d", len(results)-failed))
	cli.PrintKeyValue(os.Stdout, "Failed", fmt.Sprintf("%d", failed))

	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}

	return nil
}

// MeasureCmd reports loudness statistics for one file.
type MeasureCmd struct {
	In string `arg:"" help:"Input audio file or s3:// reference."`
}

// Run executes the measure command.
func (c *MeasureCmd) Run(rc *runContext) error {
	store, err := storage.Open(rc.ctx, rc.cfg.TempDir, rc.cfg.S3Config())
	if err != nil {
		return err
	}

	local, err := store.Fetch(rc.ctx, c.In)
	if err != nil {
		return err
	}

	if local != c.In {
		defer func() { _ = store.CleanupTemp(rc.ctx, []string{local}) }()
	}

	sig, err := audiofile.Load(local)
	if err != nil {
		return err
	}

	m, err := loudness.Measure(sig.Samples, sig.SampleRate)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render(storage.Base(c.In)))
	cli.PrintKeyValue(os.Stdout, "Integrated loudness", formatLevel(m.IntegratedLUFS, "LUFS"))
	cli.PrintKeyValue(os.Stdout, "Max short-term", formatLevel(m.MaxShortTermLUFS, "LUFS"))
	cli.PrintKeyValue(os.Stdout, "Max momentary", formatLevel(m.MaxMomentaryLUFS, "LUFS"))
	lv := level.Calculate(sig.Samples)

	cli.PrintKeyValue(os.Stdout, "Sample peak", formatLevel(lv.PeakDB, "dBFS"))
	cli.PrintKeyValue(os.Stdout, "RMS", formatLevel(lv.RMSDB, "dBFS"))
	cli.PrintKeyValue(os.Stdout, "Crest factor", fmt.Sprintf("%.1f dB", lv.CrestFactorDB))
	cli.PrintKeyValue(os.Stdout, "DC offset", fmt.Sprintf("%.5f", lv.DC))
	cli.PrintKeyValue(os.Stdout, "Clipped samples", fmt.Sprintf("%d (%.3f%%)", lv.ClippedSamples, 100*lv.ClippedRatio()))
	cli.PrintKeyValue(os.Stdout, "Sample rate", fmt.Sprintf("%d Hz", sig.SampleRate))
	cli.PrintKeyValue(os.Stdout, "Duration", sig.Duration().Round(time.Millisecond).String())

	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run executes the version command.
func (VersionCmd) Run() error {
	cli.PrintVersion(os.Stdout, version)
	return nil
}

func formatLevel(v float64, unit string) string {
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return "-inf " + unit
	}

	return fmt.Sprintf("%.1f %s", v, unit)
}

var errNoOperations = errors.New("no operations selected")
