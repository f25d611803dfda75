// Package cmd contains all CLI commands for the fixturegen binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/cmd/completion"
	cmdconfig "github.com/tabulensis/fixturegen/cmd/config"
	"github.com/tabulensis/fixturegen/cmd/doctor"
	"github.com/tabulensis/fixturegen/cmd/generate"
	"github.com/tabulensis/fixturegen/cmd/generators"
	"github.com/tabulensis/fixturegen/cmd/mutate"
	"github.com/tabulensis/fixturegen/cmd/verify"
	"github.com/tabulensis/fixturegen/cmd/version"
	cmdwatch "github.com/tabulensis/fixturegen/cmd/watch"
	"github.com/tabulensis/fixturegen/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configFile string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fixturegen",
		Short: "Deterministic workbook and Power BI fixture generator",
		Long: `fixturegen builds spreadsheet fixtures from a YAML manifest.

Every scenario names a generator and its outputs. Running the same manifest
twice produces byte-identical .xlsx, .xlsm and .pbix files, so fixtures can be
checked in and verified against a checksum lock file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			if jsonOutput {
				// Progress bars stay off when output is machine-readable.
				_ = os.Setenv("FIXTUREGEN_JSON", "true")
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./.fixturegen.yaml, then ~/.fixturegen/.fixturegen.yaml)")

	// Register subcommands
	rootCmd.AddCommand(generate.NewCommand())
	rootCmd.AddCommand(verify.NewCommand())
	rootCmd.AddCommand(mutate.NewCommand())
	rootCmd.AddCommand(generators.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(output.ExitUserError)
	}
}
