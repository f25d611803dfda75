// Package generate provides the "fixturegen generate" command.
package generate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/generators"
	"github.com/tabulensis/fixturegen/internal/manifest"
	"github.com/tabulensis/fixturegen/internal/output"
	"github.com/tabulensis/fixturegen/internal/progress"
)

// Options are the per-run settings that do not live in config.
type Options struct {
	Clean     bool
	WriteLock string
	Verbose   bool
	JSON      bool
	// Out receives status lines; nil means stdout.
	Out io.Writer
}

// Report is the JSON form of a run.
type Report struct {
	Manifest string            `json:"manifest"`
	Warnings []string          `json:"warnings,omitempty"`
	Summary  *manifest.Summary `json:"summary"`
	Lock     string            `json:"lock,omitempty"`
}

// NewCommand creates the "generate" command.
func NewCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate every fixture the manifest declares",
		Long: `Runs each manifest scenario in order and writes its outputs.

A scenario whose generator is unknown, or whose outputs already exist without
--force, is skipped with a warning. A failing scenario is reported and the run
continues; the exit code is non-zero only when the manifest cannot be loaded or
fails preflight.

Example:
  fixturegen generate --manifest fixtures/manifest.yaml --output-dir fixtures/generated
  fixturegen generate --force --write-lock fixtures/fixtures.lock.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ForCommand(cmd.Flags())
			if err != nil {
				return err
			}
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")
			opts.JSON, _ = cmd.Flags().GetBool("json")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report, err := Run(ctx, cfg, opts)
			if err != nil {
				return err
			}
			if opts.JSON {
				return output.PrintJSON(os.Stdout, "generate", report)
			}
			return nil
		},
	}

	cmd.Flags().String("manifest", config.DefaultManifest, "Path to manifest YAML")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory into which artifacts are written")
	cmd.Flags().String("fixtures-root", config.DefaultFixturesRoot, "Fallback directory for template and base files")
	cmd.Flags().Bool("force", false, "Overwrite existing artifacts")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Delete the output directory contents before generating")
	cmd.Flags().StringVar(&opts.WriteLock, "write-lock", "", "Write a checksum lock file for the outputs")

	return cmd
}

// Run loads, preflights and executes the manifest named by cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Report, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}

	reg := generators.Default()
	interp := manifest.NewInterpolator(nil)
	pre := manifest.Preflight(m, manifest.Options{
		Registry:     reg,
		OutputDir:    cfg.OutputDir,
		FixturesRoot: cfg.FixturesRoot,
		Interpolator: interp,
	})
	if !opts.JSON {
		for _, w := range pre.Warnings {
			fmt.Fprintf(out, "%s %s\n", yellow("WARN"), w)
		}
	}
	if err := pre.Err(); err != nil {
		return nil, err
	}

	if opts.Clean {
		if err := manifest.CleanOutputDir(cfg.OutputDir); err != nil {
			return nil, err
		}
	}

	runner := manifest.NewRunner(reg, cfg.OutputDir)
	runner.Env = generators.Env{FixturesRoot: cfg.FixturesRoot}
	runner.Force = cfg.Force
	runner.Verbose = opts.Verbose
	runner.Interpolator = interp
	runner.Out = out
	if opts.JSON {
		runner.Out = io.Discard
	}

	bar := progress.New(len(m.Scenarios))
	runner.OnStart = bar.Begin
	runner.OnResult = func(r manifest.Result) { bar.Record(r.ID, string(r.Status)) }

	summary, err := runner.Run(ctx, m)
	if err != nil {
		return nil, err
	}
	bar.Finish()

	report := &Report{Manifest: cfg.Manifest, Warnings: pre.Warnings, Summary: summary}
	if !opts.JSON {
		fmt.Fprintf(out, "\n  %s generated, %s skipped, %s failed\n",
			green(summary.Generated), yellow(summary.Skipped), red(summary.Failed))
	}

	if opts.WriteLock != "" {
		if err := manifest.WriteLock(m, cfg.OutputDir, opts.WriteLock); err != nil {
			return nil, err
		}
		report.Lock = opts.WriteLock
		if !opts.JSON {
			fmt.Fprintf(out, "  Lock file written to %s\n", opts.WriteLock)
		}
	}
	return report, nil
}
