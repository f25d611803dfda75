// Package mutate derives a "B" workbook from an "A" workbook by editing a
// single worksheet part. Every other package entry is copied unchanged.
package mutate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/container"
)

// Mode selects a mutation.
type Mode string

const (
	CellEditNumericMode Mode = "cell_edit_numeric"
	RowBlockSwapMode    Mode = "row_block_swap"
)

// DefaultWorksheet is preferred when no part is named.
const DefaultWorksheet = "xl/worksheets/sheet1.xml"

// ErrNoWorksheet is returned when a package has no worksheet parts.
var ErrNoWorksheet = errors.New("no worksheet parts found under xl/worksheets/")

// Extensions lists the workbook formats the mutators accept.
var Extensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// Defaults used by the CLI and the openxml_mutate generator.
const (
	DefaultEdits    = 10
	DefaultRowCount = 200
)

// Options configures a mutation. Edits must be positive for
// cell_edit_numeric and RowCount for row_block_swap.
type Options struct {
	Mode          Mode
	WorksheetPart string
	Seed          int64
	Edits         int
	RowCount      int
}

// Result reports what a mutation did.
type Result struct {
	MutatedPart    string `json:"mutated_part"`
	Mode           Mode   `json:"mode"`
	Seed           int64  `json:"seed"`
	EditsRequested int    `json:"edits_requested,omitempty"`
	EditsApplied   int    `json:"edits_applied,omitempty"`
	*SwapResult    `json:",omitempty"`
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case CellEditNumericMode, RowBlockSwapMode:
		return m, nil
	}
	return "", fmt.Errorf("unsupported mode: %q (expected %s or %s)", s, CellEditNumericMode, RowBlockSwapMode)
}

// DefaultWorksheetPart picks sheet1.xml when present, else the
// lexicographically first xl/worksheets/*.xml entry.
func DefaultWorksheetPart(names []string) (string, error) {
	var worksheets []string
	for _, n := range names {
		if n == DefaultWorksheet {
			return n, nil
		}
		if strings.HasPrefix(n, "xl/worksheets/") && strings.HasSuffix(n, ".xml") {
			worksheets = append(worksheets, n)
		}
	}
	if len(worksheets) == 0 {
		return "", ErrNoWorksheet
	}
	sort.Strings(worksheets)
	return worksheets[0], nil
}

// SupportedInput reports whether path has a workbook extension the mutators accept.
func SupportedInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Package applies opts to a workbook package held in memory.
func Package(src []byte, opts Options) ([]byte, *Result, error) {
	names, err := container.Names(src)
	if err != nil {
		return nil, nil, err
	}
	part := strings.TrimSpace(opts.WorksheetPart)
	if part == "" {
		if part, err = DefaultWorksheetPart(names); err != nil {
			return nil, nil, err
		}
	}
	original, err := container.ReadEntry(src, part)
	if err != nil {
		return nil, nil, fmt.Errorf("worksheet part not found: %s: %w", part, err)
	}

	res := &Result{MutatedPart: part, Mode: opts.Mode, Seed: opts.Seed}
	var mutated []byte
	switch opts.Mode {
	case CellEditNumericMode:
		if opts.Edits <= 0 {
			return nil, nil, fmt.Errorf("edits must be > 0, got %d", opts.Edits)
		}
		mutated, res.EditsApplied = CellEditNumeric(original, opts.Edits, opts.Seed)
		res.EditsRequested = opts.Edits
	case RowBlockSwapMode:
		var swap SwapResult
		mutated, swap, err = RowBlockSwap(original, opts.RowCount, opts.Seed)
		if err != nil {
			return nil, nil, err
		}
		res.SwapResult = &swap
	default:
		return nil, nil, fmt.Errorf("unsupported mode: %q", opts.Mode)
	}

	out, err := container.CopyWithReplacements(src, map[string][]byte{part: mutated})
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// File mutates the workbook at input and writes the result to output.
func File(input, output string, opts Options) (*Result, error) {
	if !SupportedInput(input) {
		return nil, fmt.Errorf("unsupported input %s: only %s workbooks can be mutated", input, strings.Join(Extensions, "/"))
	}
	src, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", input, err)
	}
	out, res, err := Package(src, opts)
	if err != nil {
		return nil, err
	}
	if err := artifact.WriteFile(output, out); err != nil {
		return nil, err
	}
	return res, nil
}
