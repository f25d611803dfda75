package generators

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
)

// newNamedRanges emits A with GlobalKeep, GlobalRemove and a sheet-scoped
// LocalChange, and B with GlobalKeep, GlobalAdd and LocalChange retargeted.
func newNamedRanges(args Args, _ Env) (Generator, error) {
	a := newArgReader("named_ranges", args)
	sheet := a.String("sheet", "Sheet1")
	if err := a.Err(); err != nil {
		return nil, err
	}

	build := func(names ...xlsx.DefinedName) *xlsx.Workbook {
		s := xlsx.Sheet{Name: sheet}
		for ref, v := range map[string]int{"A1": 1, "A2": 2, "A3": 3, "B1": 4, "C1": 5, "C2": 6, "D1": 7, "D2": 8} {
			_ = s.Set(ref, v)
		}
		return &xlsx.Workbook{
			Sheets: []xlsx.Sheet{s, {Name: "Sheet2"}},
			Names:  names,
		}
	}
	ref := func(r string) string { return quoteSheet(sheet) + "!" + r }

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		keep := xlsx.DefinedName{Name: "GlobalKeep", RefersTo: ref("$A$1:$A$3")}
		wbA := build(
			keep,
			xlsx.DefinedName{Name: "GlobalRemove", RefersTo: ref("$B$1")},
			xlsx.DefinedName{Name: "LocalChange", RefersTo: ref("$C$1"), Scope: sheet},
		)
		wbB := build(
			keep,
			xlsx.DefinedName{Name: "GlobalAdd", RefersTo: ref("$D$1:$D$2")},
			xlsx.DefinedName{Name: "LocalChange", RefersTo: ref("$C$2"), Scope: sheet},
		)
		return pairWorkbooks(wbA, wbB, outputs)
	}), nil
}

// newCharts emits A with one line chart and B with a bar chart plus a second
// line chart, all over the same X/Y table.
func newCharts(args Args, _ Env) (Generator, error) {
	a := newArgReader("charts", args)
	sheet := a.String("sheet", "Sheet1")
	if err := a.Err(); err != nil {
		return nil, err
	}

	series := []xlsx.Series{{
		Name:       quoteSheet(sheet) + "!$B$1",
		Categories: quoteSheet(sheet) + "!$A$2:$A$6",
		Values:     quoteSheet(sheet) + "!$B$2:$B$6",
	}}
	build := func(charts ...xlsx.Chart) *xlsx.Workbook {
		s := xlsx.NewGrid(sheet, 6, 2, func(r, c int) any {
			if r == 1 {
				return []string{"X", "Y"}[c-1]
			}
			return (r - 1) * c
		})
		s.Charts = charts
		return book(s)
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		wbA := build(xlsx.Chart{Type: excelize.Line, Anchor: "E2", Series: series})
		wbB := build(
			xlsx.Chart{Type: excelize.Bar, Anchor: "E2", Series: series},
			xlsx.Chart{Type: excelize.Line, Anchor: "E18", Series: series},
		)
		return pairWorkbooks(wbA, wbB, outputs)
	}), nil
}

func newCopyTemplate(args Args, env Env) (Generator, error) {
	a := newArgReader("copy_template", args)
	template := a.Required("template")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		data, err := env.readFile(template)
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	}), nil
}

// quoteSheet quotes a sheet name for use in a formula reference.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
