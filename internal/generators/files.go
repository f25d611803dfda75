package generators

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// ErrTemplateNotFound is returned when a template or base file resolves
// neither as given nor under the fixtures root.
var ErrTemplateNotFound = errors.New("template not found")

// DefaultFixturesRoot is the fallback directory for relative file arguments.
const DefaultFixturesRoot = "fixtures"

// ResolveFile returns path when it exists, else path under root.
func ResolveFile(root, path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if root == "" {
		root = DefaultFixturesRoot
	}
	if !filepath.IsAbs(path) {
		candidate := filepath.Join(root, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
}

func (e Env) readFile(path string) ([]byte, error) {
	resolved, err := ResolveFile(e.FixturesRoot, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", resolved, err)
	}
	return data, nil
}

// each names one copy of data per output.
func each(data []byte, outputs []string) []artifact.File {
	files := make([]artifact.File, len(outputs))
	for i, name := range outputs {
		files[i] = artifact.File{Name: name, Data: data}
	}
	return files
}

// eachWorkbook authors wb once and names a copy per output.
func eachWorkbook(wb *xlsx.Workbook, outputs []string) ([]artifact.File, error) {
	data, err := wb.Bytes()
	if err != nil {
		return nil, err
	}
	return each(data, outputs), nil
}

// pairWorkbooks authors A and B for a two-output scenario.
func pairWorkbooks(a, b *xlsx.Workbook, outputs []string) ([]artifact.File, error) {
	dataA, err := a.Bytes()
	if err != nil {
		return nil, fmt.Errorf("could not build %s: %w", outputs[0], err)
	}
	dataB, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("could not build %s: %w", outputs[1], err)
	}
	return []artifact.File{{Name: outputs[0], Data: dataA}, {Name: outputs[1], Data: dataB}}, nil
}

func parseRef(ref string) (col, row int, err error) {
	return openxml.ParseCellName(ref)
}

// label returns the conventional R{r}C{c} cell text.
func label(r, c int) any {
	return fmt.Sprintf("R%dC%d", r, c)
}

// labelGrid is a rows x cols sheet of label values.
func labelGrid(name string, rows, cols int) xlsx.Sheet {
	return xlsx.NewGrid(name, rows, cols, label)
}

func book(sheets ...xlsx.Sheet) *xlsx.Workbook {
	return &xlsx.Workbook{Sheets: sheets}
}
