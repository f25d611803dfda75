package generators

import (
	"fmt"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

func newBasicGrid(args Args, _ Env) (Generator, error) {
	a := newArgReader("basic_grid", args)
	rows := a.Positive("rows", 5)
	cols := a.Positive("cols", 5)
	twoSheets := a.Bool("two_sheets", false)
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		wb := book(labelGrid("Sheet1", rows, cols))
		if twoSheets {
			// Sheet2 keeps fixed, smaller dimensions.
			wb.Sheets = append(wb.Sheets, xlsx.NewGrid("Sheet2", 5, 2, func(r, c int) any {
				return fmt.Sprintf("S2_R%dC%d", r, c)
			}))
		}
		return eachWorkbook(wb, outputs)
	}), nil
}

func newSparseGrid(args Args, _ Env) (Generator, error) {
	a := newArgReader("sparse_grid", args)
	corner := a.Cell("corner", "G10")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sheet := xlsx.Sheet{Name: "Sparse"}
		for _, ref := range []string{"A1", "B2", corner} {
			if err := sheet.Set(ref, ref); err != nil {
				return nil, err
			}
		}
		return eachWorkbook(book(sheet), outputs)
	}), nil
}

func newEdgeCase(_ Args, _ Env) (Generator, error) {
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		values := xlsx.NewGrid("ValuesOnly", 10, 10, func(r, c int) any { return r * c })
		formulas := xlsx.NewGrid("FormulasOnly", 10, 10, func(r, c int) any {
			return xlsx.Formula("=ValuesOnly!" + openxml.CellName(c, r))
		})
		return eachWorkbook(book(xlsx.Sheet{Name: "Empty"}, values, formulas), outputs)
	}), nil
}

func newAddressSanity(args Args, _ Env) (Generator, error) {
	a := newArgReader("address_sanity", args)
	targets := []string{"A1", "B2", "Z10"}
	a.Decode("targets", &targets)
	for _, t := range targets {
		if _, _, err := parseRef(t); err != nil {
			a.fail("address_sanity generator target %q is not a cell reference", t)
		}
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sheet := xlsx.Sheet{Name: "Addresses"}
		for _, ref := range targets {
			if err := sheet.Set(ref, ref); err != nil {
				return nil, err
			}
		}
		return eachWorkbook(book(sheet), outputs)
	}), nil
}

// newValueFormula writes typed values in column A and formulas over them in
// column B, with the cached results a spreadsheet application would store.
func newValueFormula(_ Args, _ Env) (Generator, error) {
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sheet := xlsx.Sheet{
			Name: "Types",
			Rows: [][]any{
				{42, xlsx.Formula("=A1+1")},
				{"hello", xlsx.Formula(`="hello" & " world"`)},
				{true, xlsx.Formula("=A1>0")},
			},
			Cached: []openxml.CachedValue{
				{Ref: "B1", Value: "43"},
				{Ref: "B2", Value: "hello world", Type: "str"},
				{Ref: "B3", Value: "1", Type: "b"},
			},
		}
		return eachWorkbook(book(sheet), outputs)
	}), nil
}
