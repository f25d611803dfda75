// Package config provides the "fixturegen config" commands.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/output"
)

// action runs a config subcommand after the configuration is loaded.
type action func(w io.Writer, args []string, jsonOut bool) error

type subcommand struct {
	use   string
	short string
	args  cobra.PositionalArgs
	run   action
}

var subcommands = []subcommand{
	{"show", "Show the effective settings", cobra.NoArgs, show},
	{"get <key>", "Print one setting", cobra.ExactArgs(1), get},
	{"set <key> <value>", "Change one setting in the config file", cobra.ExactArgs(2), set},
	{"reset", "Delete the config file and restore defaults", cobra.NoArgs, reset},
	{"path", "Print the config file in use", cobra.NoArgs, path},
	{"validate", "Check that configured paths and values are usable", cobra.NoArgs, validate},
	{"env", "Print the settings as FIXTUREGEN_* exports", cobra.NoArgs, env},
}

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change fixturegen settings",
		Long: `Settings come from .fixturegen.yaml (or the file given with --config),
overridden by FIXTUREGEN_* variables and then by command flags.

Keys: ` + strings.Join(config.Keys, ", "),
	}
	for _, sc := range subcommands {
		cmd.AddCommand(sc.command())
	}
	return cmd
}

func (sc subcommand) command() *cobra.Command {
	return &cobra.Command{
		Use:   sc.use,
		Short: sc.short,
		Args:  sc.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			if _, err := config.Load(file); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			return sc.run(cmd.OutOrStdout(), args, jsonOut)
		},
	}
}

// settings maps every key to its effective value.
func settings() map[string]string {
	m := make(map[string]string, len(config.Keys))
	for _, key := range config.Keys {
		m[key] = config.Get(key)
	}
	return m
}

func show(w io.Writer, _ []string, jsonOut bool) error {
	if jsonOut {
		return output.PrintJSON(w, "config show", settings())
	}
	_, err := io.WriteString(w, config.ShowConfig())
	return err
}

func get(w io.Writer, args []string, jsonOut bool) error {
	val := config.Get(args[0])
	if jsonOut {
		return output.PrintJSON(w, "config get", map[string]string{args[0]: val})
	}
	if val == "" {
		val = "(not set)"
	}
	fmt.Fprintf(w, "%s: %s\n", args[0], val)
	return nil
}

func set(w io.Writer, args []string, _ bool) error {
	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = %s (saved to %s)\n", args[0], args[1], config.ConfigPath())
	return nil
}

func reset(w io.Writer, _ []string, _ bool) error {
	file := config.ConfigPath()
	if err := config.ResetConfig(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %s; defaults restored\n", file)
	return nil
}

func path(w io.Writer, _ []string, _ bool) error {
	fmt.Fprintln(w, config.ConfigPath())
	return nil
}

func validate(w io.Writer, _ []string, jsonOut bool) error {
	issues := config.Validate()
	errs := 0
	for _, issue := range issues {
		if issue.Severity == "error" {
			errs++
		}
	}
	var err error
	if errs > 0 {
		err = fmt.Errorf("configuration has %d error(s)", errs)
	}

	if jsonOut {
		if err != nil {
			if encErr := output.PrintJSONError(w, "config validate", err, output.ExitUserError, issues); encErr != nil {
				return encErr
			}
			return err
		}
		return output.PrintJSON(w, "config validate", issues)
	}
	printIssues(w, issues)
	return err
}

func printIssues(w io.Writer, issues []config.ConfigIssue) {
	marks := map[string]string{
		"error":   color.New(color.FgRed).Sprint("✗"),
		"warning": color.New(color.FgYellow).Sprint("!"),
		"info":    color.New(color.FgGreen).Sprint("✓"),
	}
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s %-18s %s\n", marks[issue.Severity], issue.Key, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(w, "    fix: %s\n", issue.Fix)
		}
	}
}

func env(w io.Writer, _ []string, jsonOut bool) error {
	vars := config.ToEnv()
	if jsonOut {
		return output.PrintJSON(w, "config env", vars)
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "export %s=%q\n", name, vars[name])
	}
	return nil
}
