package xlsx

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetData is the cached text of one worksheet as a consumer would see it.
type SheetData struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Contents is a parsed workbook package.
type Contents struct {
	Sheets []SheetData    `json:"sheets"`
	Names  []DefinedName `json:"names,omitempty"`
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Contents, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s: check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	return readContents(f)
}

// ReadBytes reads an .xlsx package from a byte slice.
func ReadBytes(data []byte) (*Contents, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readContents(f)
}

// CellFormula returns the formula stored at sheet!ref, without a leading "=".
func CellFormula(data []byte, sheet, ref string) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()
	return f.GetCellFormula(sheet, ref)
}

func readContents(f *excelize.File) (*Contents, error) {
	c := &Contents{}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		c.Sheets = append(c.Sheets, SheetData{Name: name, Rows: rows})
	}
	for _, dn := range f.GetDefinedName() {
		scope := dn.Scope
		if scope == "Workbook" {
			scope = ""
		}
		c.Names = append(c.Names, DefinedName{Name: dn.Name, RefersTo: dn.RefersTo, Scope: scope})
	}

	return c, nil
}

// GetSheet returns a specific sheet by name. Returns an error if the sheet is not found.
func (c *Contents) GetSheet(name string) (*SheetData, error) {
	for i := range c.Sheets {
		if c.Sheets[i].Name == name {
			return &c.Sheets[i], nil
		}
	}

	available := make([]string, len(c.Sheets))
	for i, s := range c.Sheets {
		available[i] = s.Name
	}
	return nil, fmt.Errorf("sheet %q not found: available sheets: %v", name, available)
}

// Cell returns the text at an A1 reference, or "" when the cell is empty.
func (s *SheetData) Cell(ref string) (string, error) {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return "", err
	}
	if row > len(s.Rows) || col > len(s.Rows[row-1]) {
		return "", nil
	}
	return s.Rows[row-1][col-1], nil
}

// ToCSV converts a sheet's data to CSV format.
func (s *SheetData) ToCSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// strings.Builder writes never fail.
	_ = w.WriteAll(s.Rows)
	return b.String()
}

// RowCount returns the total number of data rows (excluding empty rows).
func (s *SheetData) RowCount() int {
	count := 0
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell != "" {
				count++
				break
			}
		}
	}
	return count
}
