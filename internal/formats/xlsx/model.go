// Package xlsx authors and reads .xlsx workbooks through excelize. Authored
// packages are normalized so their bytes depend only on the model.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tabulensis/fixturegen/internal/openxml"
)

// Formula is a cell formula. A leading "=" is optional.
type Formula string

// RowFunc returns the values of 1-based row r of a streamed sheet. Nil values
// leave the cell empty.
type RowFunc func(r int) []any

// Series is one chart series; all fields are sheet-qualified references.
type Series struct {
	Name       string
	Categories string
	Values     string
}

// Chart is a chart anchored at a cell of its sheet.
type Chart struct {
	Type   excelize.ChartType
	Anchor string
	Title  string
	Series []Series
}

// DefinedName is a named range. An empty Scope means workbook scope;
// otherwise Scope names the owning sheet.
type DefinedName struct {
	Name     string `json:"name"`
	RefersTo string `json:"refers_to"`
	Scope    string `json:"scope,omitempty"`
}

// Sheet is the authoring model of one worksheet.
type Sheet struct {
	Name string
	// Rows holds values by row then column, both 0-based. Supported values are
	// string, bool, integer and float types, Formula, and nil for no cell.
	Rows [][]any
	// Cached values are written into the worksheet part after authoring.
	Cached []openxml.CachedValue
	// NumberFormats maps 1-based column numbers to custom number formats
	// applied below the header row.
	NumberFormats map[int]string
	Charts        []Chart

	// StreamRows > 0 writes the sheet through excelize's stream writer,
	// pulling rows from StreamRow instead of Rows.
	StreamRows int
	StreamRow  RowFunc
}

// Workbook is the authoring model of a package.
type Workbook struct {
	Sheets []Sheet
	Names  []DefinedName
}

// NewGrid returns a rows x cols sheet filled by fn, called with 1-based
// coordinates.
func NewGrid(name string, rows, cols int, fn func(r, c int) any) Sheet {
	s := Sheet{Name: name, Rows: make([][]any, rows)}
	for r := 1; r <= rows; r++ {
		row := make([]any, cols)
		for c := 1; c <= cols; c++ {
			row[c-1] = fn(r, c)
		}
		s.Rows[r-1] = row
	}
	return s
}

// SetAt stores v at 1-based (col, row), growing the grid as needed.
func (s *Sheet) SetAt(col, row int, v any) {
	for len(s.Rows) < row {
		s.Rows = append(s.Rows, nil)
	}
	r := s.Rows[row-1]
	for len(r) < col {
		r = append(r, nil)
	}
	r[col-1] = v
	s.Rows[row-1] = r
}

// Set stores v at an A1 reference.
func (s *Sheet) Set(ref string, v any) error {
	col, row, err := openxml.ParseCellName(ref)
	if err != nil {
		return fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	s.SetAt(col, row, v)
	return nil
}

// Get returns the value at 1-based (col, row), or nil.
func (s *Sheet) Get(col, row int) any {
	if row < 1 || row > len(s.Rows) || col < 1 || col > len(s.Rows[row-1]) {
		return nil
	}
	return s.Rows[row-1][col-1]
}

// Clone returns a deep copy of the sheet's cell grid and cached values.
// Charts, formats and stream settings are shared.
func (s Sheet) Clone() Sheet {
	out := s
	out.Rows = make([][]any, len(s.Rows))
	for i, row := range s.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	out.Cached = append([]openxml.CachedValue(nil), s.Cached...)
	return out
}

// Clone returns a deep copy of every sheet and the defined names.
func (wb *Workbook) Clone() *Workbook {
	out := &Workbook{
		Sheets: make([]Sheet, len(wb.Sheets)),
		Names:  append([]DefinedName(nil), wb.Names...),
	}
	for i, s := range wb.Sheets {
		out.Sheets[i] = s.Clone()
	}
	return out
}

// Sheet returns the named sheet of the model, or nil.
func (wb *Workbook) Sheet(name string) *Sheet {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i]
		}
	}
	return nil
}
