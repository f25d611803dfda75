// Package doctor provides the "fixturegen doctor" command for checking that a
// fixtures checkout is ready to generate.
package doctor

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/generators"
	"github.com/tabulensis/fixturegen/internal/manifest"
	"github.com/tabulensis/fixturegen/internal/output"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, manifest, and generator registry",
		Long:  "Run diagnostic checks to verify fixturegen is configured and the manifest would pass preflight.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ForCommand(cmd.Flags())
			if err != nil {
				return err
			}
			checks := RunChecks(cfg, generators.Default())

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON(os.Stdout, "doctor", checks)
			}

			if errCount := Print(os.Stdout, checks); errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
	cmd.Flags().String("manifest", config.DefaultManifest, "Path to manifest YAML")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory into which artifacts are written")
	cmd.Flags().String("fixtures-root", config.DefaultFixturesRoot, "Fallback directory for template and base files")
	return cmd
}

// Print writes checks with status icons and a summary, and returns the number
// of errors.
func Print(w io.Writer, checks []Check) int {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(w, "fixturegen doctor")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)

	okCount, warnCount, errCount := 0, 0, 0
	for _, c := range checks {
		var icon string
		switch c.Status {
		case "ok":
			icon = green("✓")
			okCount++
		case "warning":
			icon = yellow("!")
			warnCount++
		case "error":
			icon = red("✗")
			errCount++
		}
		fmt.Fprintf(w, "  %s %s: %s\n", icon, c.Name, c.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)
	return errCount
}

// RunChecks inspects the runtime, the loaded configuration, and the manifest
// cfg points at.
func RunChecks(cfg *config.Config, reg *generators.Registry) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	// Config file
	if path := config.ConfigPath(); fileExists(path) {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: path})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found, using defaults and flags", path),
		})
	}

	for _, issue := range config.Validate() {
		// The manifest gets its own check below.
		if issue.Severity == "info" || issue.Key == "manifest" {
			continue
		}
		checks = append(checks, Check{Name: "Config " + issue.Key, Status: issue.Severity, Message: issue.Message})
	}

	checks = append(checks, Check{
		Name:    "Generators",
		Status:  "ok",
		Message: fmt.Sprintf("%d registered", len(reg.Names())),
	})

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return append(checks, Check{Name: "Manifest", Status: "error", Message: err.Error()})
	}
	checks = append(checks, Check{
		Name:    "Manifest",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%d scenarios)", cfg.Manifest, len(m.Scenarios)),
	})

	pre := manifest.Preflight(m, manifest.Options{
		Registry:     reg,
		OutputDir:    cfg.OutputDir,
		FixturesRoot: cfg.FixturesRoot,
	})
	for _, msg := range pre.Errors {
		checks = append(checks, Check{Name: "Preflight", Status: "error", Message: msg})
	}
	for _, msg := range pre.Warnings {
		checks = append(checks, Check{Name: "Preflight", Status: "warning", Message: msg})
	}
	if len(pre.Errors) == 0 && len(pre.Warnings) == 0 {
		checks = append(checks, Check{Name: "Preflight", Status: "ok", Message: "No problems found"})
	}

	return checks
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
