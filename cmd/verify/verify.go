// Package verify provides the "fixturegen verify" command.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/manifest"
	"github.com/tabulensis/fixturegen/internal/output"
	"github.com/tabulensis/fixturegen/internal/progress"
)

// Result is the outcome of a verification.
type Result struct {
	Manifest string   `json:"manifest"`
	Lock     string   `json:"lock,omitempty"`
	Outputs  []string `json:"outputs"`
	Problems []string `json:"problems"`
}

// NewCommand creates the "verify" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check generated fixtures against the manifest and lock file",
		Long: `Checks that every declared output exists and that ZIP outputs open as
containers. With --lock, also compares output checksums against a lock file
written by "fixturegen generate --write-lock".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ForCommand(cmd.Flags())
			if err != nil {
				return err
			}
			jsonFlag, _ := cmd.Flags().GetBool("json")

			res, err := Run(cfg)
			if err != nil {
				return err
			}
			if len(res.Problems) > 0 {
				err = fmt.Errorf("%d problem(s) found", len(res.Problems))
			}
			if jsonFlag {
				if err != nil {
					if encErr := output.PrintJSONError(os.Stdout, "verify", err, output.ExitUserError, res); encErr != nil {
						return encErr
					}
					return err
				}
				return output.PrintJSON(os.Stdout, "verify", res)
			}
			Print(os.Stdout, res)
			return err
		},
	}

	cmd.Flags().String("manifest", config.DefaultManifest, "Path to manifest YAML")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory holding the generated artifacts")
	cmd.Flags().String("lock", "", "Lock file to compare checksums against")

	return cmd
}

// Run verifies the outputs of the configured manifest.
func Run(cfg *config.Config) (*Result, error) {
	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}

	res := &Result{Manifest: cfg.Manifest, Lock: cfg.Lock, Problems: []string{}}
	for _, s := range m.Scenarios {
		res.Outputs = append(res.Outputs, s.Output...)
	}

	spinner := progress.NewSpinner(fmt.Sprintf("Opening %d output(s)", len(res.Outputs)))
	spinner.Start()
	res.Problems = append(res.Problems, manifest.Verify(m, cfg.OutputDir)...)
	if cfg.Lock != "" {
		spinner.Update("Checking checksums against " + cfg.Lock)
		res.Problems = append(res.Problems, manifest.VerifyLock(m, cfg.OutputDir, cfg.Lock)...)
	}
	spinner.Stop(fmt.Sprintf("Checked %d output(s)", len(res.Outputs)))
	return res, nil
}

// Print writes a human-readable verification report.
func Print(w io.Writer, res *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if len(res.Problems) == 0 {
		what := "outputs"
		if res.Lock != "" {
			what = "outputs and checksums"
		}
		fmt.Fprintf(w, "%s %d %s verified\n", green("✓"), len(res.Outputs), what)
		return
	}
	for _, p := range res.Problems {
		fmt.Fprintf(w, "  %s %s\n", red("✗"), p)
	}
}
