//go:build ignore

// This program writes the template workbooks the sample manifest reads.
//
//	go run testdata/generate_fixtures.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/datamashup/mashuptest"
	"github.com/tabulensis/fixturegen/internal/generators"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

var templates = filepath.Join("testdata", "templates")

func main() {
	if err := os.MkdirAll(templates, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeBaseQuery("base_query.xlsx", openxml.UTF8); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating base_query.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := writeBaseQuery("base_query_utf16.xlsx", openxml.UTF16LE); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating base_query_utf16.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := generators.Default().Run("basic_grid", generators.Args{"rows": 20, "cols": 8}, generators.Env{}, templates, []string{"grid_base.xlsx"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating grid_base.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

func writeBaseQuery(name string, enc openxml.Encoding) error {
	data, err := mashuptest.Workbook(enc)
	if err != nil {
		return err
	}
	return artifact.WriteFile(filepath.Join(templates, name), data)
}
