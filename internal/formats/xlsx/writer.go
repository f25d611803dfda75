package xlsx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// Fixed document properties keep docProps/core.xml identical across runs.
var docProps = &excelize.DocProperties{
	Creator:        "fixturegen",
	LastModifiedBy: "fixturegen",
	Created:        "1980-01-01T00:00:00Z",
	Modified:       "1980-01-01T00:00:00Z",
}

// WriteFile writes the workbook to path.
func WriteFile(wb *Workbook, path string) error {
	data, err := wb.Bytes()
	if err != nil {
		return err
	}
	return artifact.WriteFile(path, data)
}

// Bytes authors the workbook with excelize, injects cached values, and
// normalizes the package.
func (wb *Workbook) Bytes() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	names, err := createSheets(f, wb)
	if err != nil {
		return nil, err
	}
	for i := range wb.Sheets {
		if err := writeSheet(f, names[i], &wb.Sheets[i]); err != nil {
			return nil, err
		}
	}
	for _, dn := range wb.Names {
		if err := f.SetDefinedName(&excelize.DefinedName{Name: dn.Name, RefersTo: dn.RefersTo, Scope: dn.Scope}); err != nil {
			return nil, fmt.Errorf("could not define name %q: %w", dn.Name, err)
		}
	}
	if err := f.SetDocProps(docProps); err != nil {
		return nil, fmt.Errorf("could not set document properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not serialize workbook: %w", err)
	}
	data, err := container.Normalize(buf.Bytes())
	if err != nil {
		return nil, err
	}
	return finishPackage(data, wb.Sheets)
}

const contentTypesPart = "[Content_Types].xml"

// SheetPart returns the package path of the i-th (0-based) authored sheet.
func SheetPart(i int) string {
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
}

func createSheets(f *excelize.File, wb *Workbook) ([]string, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	names := make([]string, len(wb.Sheets))
	for i, sheet := range wb.Sheets {
		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}
		names[i] = sheetName

		if i == 0 {
			// Rename default sheet
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				return nil, fmt.Errorf("could not rename sheet: %w", err)
			}
			continue
		}
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, fmt.Errorf("could not create sheet %q: %w", sheetName, err)
		}
	}
	return names, nil
}

func writeSheet(f *excelize.File, name string, sheet *Sheet) error {
	styles, err := numberFormatStyles(f, sheet.NumberFormats)
	if err != nil {
		return err
	}

	if sheet.StreamRows > 0 {
		if err := streamSheet(f, name, sheet, styles); err != nil {
			return err
		}
	} else {
		for rowIdx, row := range sheet.Rows {
			for colIdx, cell := range row {
				if cell == nil {
					continue
				}
				cellName := openxml.CellName(colIdx+1, rowIdx+1)
				if err := setCell(f, name, cellName, cell); err != nil {
					return fmt.Errorf("could not set cell %s!%s: %w", name, cellName, err)
				}
			}
		}
		if len(sheet.Rows) > 1 {
			for col, style := range styles {
				top := openxml.CellName(col, 2)
				bottom := openxml.CellName(col, len(sheet.Rows))
				if err := f.SetCellStyle(name, top, bottom, style); err != nil {
					return fmt.Errorf("could not format column %s: %w", openxml.ColumnName(col), err)
				}
			}
		}
	}

	for _, chart := range sheet.Charts {
		if err := addChart(f, name, chart); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, v any) error {
	if formula, ok := v.(Formula); ok {
		return f.SetCellFormula(sheet, cell, strings.TrimPrefix(string(formula), "="))
	}
	return f.SetCellValue(sheet, cell, v)
}

func streamSheet(f *excelize.File, name string, sheet *Sheet, styles map[int]int) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("could not open stream writer for %q: %w", name, err)
	}
	for r := 1; r <= sheet.StreamRows; r++ {
		values := sheet.StreamRow(r)
		for i, v := range values {
			style, styled := styles[i+1]
			styled = styled && r > 1
			formula, isFormula := v.(Formula)
			switch {
			case v == nil:
			case isFormula:
				cell := excelize.Cell{Formula: strings.TrimPrefix(string(formula), "=")}
				if styled {
					cell.StyleID = style
				}
				values[i] = cell
			case styled:
				values[i] = excelize.Cell{StyleID: style, Value: v}
			}
		}
		if err := sw.SetRow(openxml.CellName(1, r), values); err != nil {
			return fmt.Errorf("could not stream row %d of %q: %w", r, name, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("could not flush %q: %w", name, err)
	}
	return nil
}

func numberFormatStyles(f *excelize.File, formats map[int]string) (map[int]int, error) {
	cols := make([]int, 0, len(formats))
	for col := range formats {
		cols = append(cols, col)
	}
	// Style ids follow creation order.
	sort.Ints(cols)

	styles := make(map[int]int, len(formats))
	for _, col := range cols {
		code := formats[col]
		if err := ValidateNumberFormat(code); err != nil {
			return nil, err
		}
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
		if err != nil {
			return nil, fmt.Errorf("could not create number format %q: %w", code, err)
		}
		styles[col] = id
	}
	return styles, nil
}

func addChart(f *excelize.File, sheet string, chart Chart) error {
	series := make([]excelize.ChartSeries, len(chart.Series))
	for i, s := range chart.Series {
		series[i] = excelize.ChartSeries{Name: s.Name, Categories: s.Categories, Values: s.Values}
	}
	spec := &excelize.Chart{Type: chart.Type, Series: series}
	if chart.Title != "" {
		spec.Title = []excelize.RichTextRun{{Text: chart.Title}}
	}
	if err := f.AddChart(sheet, chart.Anchor, spec); err != nil {
		return fmt.Errorf("could not add chart at %s!%s: %w", sheet, chart.Anchor, err)
	}
	return nil
}

// finishPackage injects cached values and puts [Content_Types].xml in
// canonical order. excelize emits some of its defaults in map order.
func finishPackage(data []byte, sheets []Sheet) ([]byte, error) {
	contentTypes, err := container.ReadEntry(data, contentTypesPart)
	if err != nil {
		return nil, err
	}
	sorted, err := openxml.SortContentTypes(contentTypes)
	if err != nil {
		return nil, fmt.Errorf("could not order %s: %w", contentTypesPart, err)
	}
	replacements := map[string][]byte{contentTypesPart: sorted}
	for i, sheet := range sheets {
		if len(sheet.Cached) == 0 {
			continue
		}
		part := SheetPart(i)
		xml, err := container.ReadEntry(data, part)
		if err != nil {
			return nil, err
		}
		updated, err := openxml.InjectCachedValues(xml, sheet.Cached)
		if err != nil {
			return nil, fmt.Errorf("could not inject cached values into %s: %w", part, err)
		}
		replacements[part] = updated
	}
	return container.CopyWithReplacements(data, replacements)
}
