// Command restore applies audio restoration operations to single files or
// whole directories.
//
// Usage:
//
//	restore process IN -o OUT --op noise-reduction --op volume-compression
//	restore process IN -o OUT --op volume-compression --set volume-compression.ratio=6
//	restore batch IN_DIR OUT_DIR --op reverb-reduction --workers 8
//	restore measure IN
//	restore version
//
// Inputs and outputs may be local paths or s3://bucket/key references when
// RESTORE_S3_REGION is set.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/cwbudde/algo-restore/internal/cli"
	"github.com/cwbudde/algo-restore/internal/config"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	LogLevel  string `help:"Log level (debug, info, warn, error). Overrides RESTORE_LOG_LEVEL." placeholder:"LEVEL"`
	LogFormat string `help:"Log format (text, json). Overrides RESTORE_LOG_FORMAT." placeholder:"FORMAT"`

	Process ProcessCmd `cmd:"" help:"Restore a single audio file."`
	Batch   BatchCmd   `cmd:"" help:"Restore every supported audio file in a directory."`
	Measure MeasureCmd `cmd:"" help:"Print loudness, peak and duration of an audio file."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// runContext is passed to every command's Run method.
type runContext struct {
	ctx context.Context
	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	var c CLI

	parser, err := kong.New(&c,
		kong.Name("restore"),
		kong.Description("Audio restoration: noise, echo and reverb reduction, loudness normalization and compression."),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter()),
	)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 2
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}

	if err := applyOverrides(cfg, c.LogLevel, c.LogFormat); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}

	if err := kctx.Run(&runContext{ctx: ctx, cfg: cfg}); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}

	return 0
}

// applyOverrides lets flags take precedence over the environment.
func applyOverrides(cfg *config.Config, level, format string) error {
	if level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	return nil
}
