// Package generators provides the "fixturegen generators" command.
package generators

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/internal/generators"
	"github.com/tabulensis/fixturegen/internal/output"
)

// Entry describes one registered generator.
type Entry struct {
	Name        string `json:"name"`
	Outputs     string `json:"outputs"`
	Description string `json:"description"`
}

// NewCommand creates the "generators" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generators",
		Short: "List the registered generators",
		Long:  "Lists every generator name a manifest scenario can use, with the number of outputs it accepts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := List(generators.Default())

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON(os.Stdout, "generators", entries)
			}
			return Print(os.Stdout, entries)
		},
	}
}

// List returns the registry's generators sorted by name.
func List(reg *generators.Registry) []Entry {
	var entries []Entry
	for _, name := range reg.Names() {
		spec, _ := reg.Lookup(name)
		entries = append(entries, Entry{Name: name, Outputs: spec.Arity.String(), Description: spec.Description})
	}
	return entries
}

// Print writes entries as an aligned table.
func Print(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOUTPUTS\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Outputs, e.Description)
	}
	return tw.Flush()
}
