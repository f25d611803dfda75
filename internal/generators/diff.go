package generators

import (
	"fmt"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
)

func newSingleCellDiff(args Args, _ Env) (Generator, error) {
	a := newArgReader("single_cell_diff", args)
	rows := a.Positive("rows", 3)
	cols := a.Positive("cols", 3)
	sheet := a.String("sheet", "Sheet1")
	target := a.Cell("target_cell", "C3")
	valueA := a.String("value_a", "1")
	valueB := a.String("value_b", "2")
	if err := a.Err(); err != nil {
		return nil, err
	}

	build := func(v string) (*xlsx.Workbook, error) {
		s := labelGrid(sheet, rows, cols)
		if err := s.Set(target, v); err != nil {
			return nil, err
		}
		return book(s), nil
	}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		wbA, err := build(valueA)
		if err != nil {
			return nil, err
		}
		wbB, err := build(valueB)
		if err != nil {
			return nil, err
		}
		return pairWorkbooks(wbA, wbB, outputs)
	}), nil
}

// CellEdit is one differing cell of a multi_cell_diff pair. A nil value
// leaves the cell empty on that side.
type CellEdit struct {
	Addr   string `yaml:"addr"`
	ValueA any    `yaml:"value_a"`
	ValueB any    `yaml:"value_b"`
}

func newMultiCellDiff(args Args, _ Env) (Generator, error) {
	a := newArgReader("multi_cell_diff", args)
	rows := a.Positive("rows", 10)
	cols := a.Positive("cols", 10)
	sheet := a.String("sheet", "Sheet1")
	var edits []CellEdit
	a.Decode("edits", &edits)
	for _, e := range edits {
		if _, _, err := parseRef(e.Addr); err != nil {
			a.fail("multi_cell_diff generator edit address %q is not a cell reference", e.Addr)
		}
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa, sb := labelGrid(sheet, rows, cols), labelGrid(sheet, rows, cols)
		for _, e := range edits {
			if err := sa.Set(e.Addr, e.ValueA); err != nil {
				return nil, err
			}
			if err := sb.Set(e.Addr, e.ValueB); err != nil {
				return nil, err
			}
		}
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

func newGridTailDiff(args Args, _ Env) (Generator, error) {
	a := newArgReader("grid_tail_diff", args)
	mode := a.Mode("mode", "row_append_bottom", "row_append_bottom", "row_delete_bottom", "col_append_right", "col_delete_right")
	rows := a.Positive("base_rows", 10)
	cols := a.Positive("base_cols", 5)
	tail := a.Positive("tail_count", 2)
	sheet := a.String("sheet", "Sheet1")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		base := labelGrid(sheet, rows, cols)
		var extended xlsx.Sheet
		switch mode {
		case "row_append_bottom", "row_delete_bottom":
			extended = labelGrid(sheet, rows+tail, cols)
		default:
			extended = labelGrid(sheet, rows, cols+tail)
		}
		if mode == "row_append_bottom" || mode == "col_append_right" {
			return pairWorkbooks(book(base), book(extended), outputs)
		}
		return pairWorkbooks(book(extended), book(base), outputs)
	}), nil
}

func newRowAlignmentG8(args Args, _ Env) (Generator, error) {
	const name = "row_alignment_g8"
	a := newArgReader(name, args)
	mode := a.Mode("mode", "insert", "insert", "delete", "insert_with_edit")
	rows := a.Positive("rows", 10)
	cols := a.Positive("cols", 5)
	at := a.Positive("insert_at", 6)
	offset := a.Positive("edit_offset", 2)
	editCol := a.Positive("edit_col", 1)
	sheet := a.String("sheet", "Sheet1")
	limit := rows + 1
	if mode == "delete" {
		limit = rows
	}
	a.Check(at <= limit, "%s generator arg 'insert_at' must be within 1..%d", name, limit)
	if mode == "insert_with_edit" {
		a.Check(at+offset <= rows+1, "%s generator edit row %d is past the last row %d", name, at+offset, rows+1)
		a.Check(editCol <= cols, "%s generator arg 'edit_col' must be within 1..%d", name, cols)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa := labelGrid(sheet, rows, cols)
		sb := sa.Clone()
		switch mode {
		case "delete":
			sb.Rows = deleteRows(sb.Rows, at, 1)
		default:
			sb.Rows = insertRows(sb.Rows, at, tagRow("INSERTED", cols))
			if mode == "insert_with_edit" {
				sb.SetAt(editCol, at+offset, "EDITED")
			}
		}
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

func newRowAlignmentG10(args Args, _ Env) (Generator, error) {
	const name = "row_alignment_g10"
	a := newArgReader(name, args)
	mode := a.Mode("mode", "insert", "insert", "delete")
	rows := a.Positive("rows", 20)
	cols := a.Positive("cols", 5)
	start := a.Positive("block_start", 8)
	n := a.Positive("block_rows", 3)
	sheet := a.String("sheet", "Sheet1")
	if mode == "delete" {
		a.Check(start+n-1 <= rows, "%s generator block %d..%d exceeds %d rows", name, start, start+n-1, rows)
	} else {
		a.Check(start <= rows+1, "%s generator arg 'block_start' must be within 1..%d", name, rows+1)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa := labelGrid(sheet, rows, cols)
		sb := sa.Clone()
		if mode == "delete" {
			sb.Rows = deleteRows(sb.Rows, start, n)
		} else {
			block := make([][]any, n)
			for k := range block {
				block[k] = tagRow(fmt.Sprintf("INS%d", k+1), cols)
			}
			sb.Rows = insertRows(sb.Rows, start, block...)
		}
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

// tagRow returns {tag}_C{c} values for one row.
func tagRow(tag string, cols int) []any {
	row := make([]any, cols)
	for c := 1; c <= cols; c++ {
		row[c-1] = fmt.Sprintf("%s_C%d", tag, c)
	}
	return row
}

type blockMove struct {
	total, cols, n, src, dst int
	sheet                    string
}

func readBlockMove(a *argReader) blockMove {
	m := blockMove{
		total: a.Positive("total_rows", 20),
		cols:  a.Positive("cols", 5),
		n:     a.Positive("block_rows", 4),
		src:   a.Positive("src_start", 5),
		dst:   a.Positive("dst_start", 13),
		sheet: a.String("sheet", "Sheet1"),
	}
	a.Check(m.src+m.n-1 <= m.total, "%s generator source block %d..%d exceeds %d rows", a.gen, m.src, m.src+m.n-1, m.total)
	a.Check(m.dst+m.n-1 <= m.total, "%s generator destination block %d..%d exceeds %d rows", a.gen, m.dst, m.dst+m.n-1, m.total)
	a.Check(!overlaps(m.src, m.n, m.dst, m.n), "%s generator source and destination blocks overlap", a.gen)
	return m
}

// sheets returns A with the block at src and B with it moved to dst.
func (m blockMove) sheets(value func(r, c int) any) (xlsx.Sheet, xlsx.Sheet) {
	sa := xlsx.NewGrid(m.sheet, m.total, m.cols, func(r, c int) any {
		if r >= m.src && r < m.src+m.n {
			return fmt.Sprintf("BLOCK_r%d_c%d", r, c)
		}
		return value(r, c)
	})
	sb := sa.Clone()
	sb.Rows = moveRows(sb.Rows, m.src, m.n, m.dst)
	return sa, sb
}

func newRowBlockMoveG11(args Args, _ Env) (Generator, error) {
	a := newArgReader("row_block_move_g11", args)
	m := readBlockMove(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa, sb := m.sheets(label)
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

// newRowFuzzyMoveG13 moves a block like row_block_move_g11 and then edits
// cells inside the moved block. Column A holds a numeric row id 1000+r.
func newRowFuzzyMoveG13(args Args, _ Env) (Generator, error) {
	a := newArgReader("row_fuzzy_move_g13", args)
	m := readBlockMove(a)
	edits := a.Int("edits", 2)
	a.Check(edits >= 0, "row_fuzzy_move_g13 generator arg 'edits' must be >= 0")
	a.Check(m.cols >= 2, "row_fuzzy_move_g13 generator needs at least 2 columns")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa, _ := m.sheets(label)
		for r := 1; r <= m.total; r++ {
			sa.SetAt(1, r, 1000+r)
		}
		sb := sa.Clone()
		sb.Rows = moveRows(sb.Rows, m.src, m.n, m.dst)

		for k := 0; k < edits; k++ {
			offset := k % m.n
			if m.n >= 3 {
				offset = 1 + k%(m.n-2)
			}
			row := m.dst + offset
			col := 2 + k%(m.cols-1)
			sb.SetAt(col, row, fmt.Sprintf("%v_EDIT", sb.Get(col, row)))
		}
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

func newColumnMoveG12(args Args, _ Env) (Generator, error) {
	const name = "column_move_g12"
	a := newArgReader(name, args)
	cols := a.Positive("cols", 8)
	dataRows := a.Positive("data_rows", 9)
	src := a.Positive("src_col", 3)
	dst := a.Positive("dst_col", 6)
	sheet := a.String("sheet", "Sheet1")
	a.Check(src <= cols && dst <= cols, "%s generator columns must be within 1..%d", name, cols)
	a.Check(src != dst, "%s generator arg 'dst_col' must differ from 'src_col'", name)
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa := xlsx.NewGrid(sheet, dataRows+1, cols, func(r, c int) any {
			if r == 1 {
				if c == src {
					return "C_key"
				}
				return fmt.Sprintf("C%d", c)
			}
			return (r-1)*10 + c
		})
		sb := sa.Clone()
		sb.Rows = moveColumn(sb.Rows, src, dst)
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

func newRectBlockMoveG12(args Args, _ Env) (Generator, error) {
	const name = "rect_block_move_g12"
	a := newArgReader(name, args)
	rows := a.Positive("rows", 12)
	cols := a.Positive("cols", 12)
	br := a.Positive("block_rows", 3)
	bc := a.Positive("block_cols", 3)
	srcRef := a.Cell("src_top_left", "C3")
	dstRef := a.Cell("dst_top_left", "H8")
	sheet := a.String("sheet", "Sheet1")
	if err := a.Err(); err != nil {
		return nil, err
	}
	srcCol, srcRow, _ := parseRef(srcRef)
	dstCol, dstRow, _ := parseRef(dstRef)
	a.Check(srcRow+br-1 <= rows && srcCol+bc-1 <= cols, "%s generator source block exceeds the %dx%d grid", name, rows, cols)
	a.Check(dstRow+br-1 <= rows && dstCol+bc-1 <= cols, "%s generator destination block exceeds the %dx%d grid", name, rows, cols)
	a.Check(!(overlaps(srcRow, br, dstRow, br) && overlaps(srcCol, bc, dstCol, bc)), "%s generator source and destination blocks overlap", name)
	if err := a.Err(); err != nil {
		return nil, err
	}

	build := func(top, left int) xlsx.Sheet {
		return xlsx.NewGrid(sheet, rows, cols, func(r, c int) any {
			if r >= top && r < top+br && c >= left && c < left+bc {
				return fmt.Sprintf("BLOCK_%d_%d", r-top, c-left)
			}
			return r*100 + c
		})
	}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		return pairWorkbooks(book(build(srcRow, srcCol)), book(build(dstRow, dstCol)), outputs)
	}), nil
}

func newColumnAlignmentG9(args Args, _ Env) (Generator, error) {
	const name = "column_alignment_g9"
	a := newArgReader(name, args)
	mode := a.Mode("mode", "insert", "insert", "delete", "insert_with_edit")
	rows := a.Positive("rows", 10)
	cols := a.Positive("cols", 8)
	at := a.Positive("insert_at", 4)
	editRow := a.Positive("edit_row", 5)
	offset := a.Positive("edit_offset", 2)
	sheet := a.String("sheet", "Sheet1")
	limit := cols + 1
	if mode == "delete" {
		limit = cols
	}
	a.Check(at <= limit, "%s generator arg 'insert_at' must be within 1..%d", name, limit)
	if mode == "insert_with_edit" {
		a.Check(editRow <= rows, "%s generator arg 'edit_row' must be within 1..%d", name, rows)
		a.Check(at+offset <= cols+1, "%s generator edit column %d is past the last column %d", name, at+offset, cols+1)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		sa := labelGrid(sheet, rows, cols)
		sb := sa.Clone()
		switch mode {
		case "delete":
			sb.Rows = deleteColumn(sb.Rows, at)
		default:
			sb.Rows = insertColumn(sb.Rows, at, func(r int) any { return fmt.Sprintf("INSERTED_R%d", r) })
			if mode == "insert_with_edit" {
				sb.SetAt(at+offset, editRow, "EDITED")
			}
		}
		return pairWorkbooks(book(sa), book(sb), outputs)
	}), nil
}

func newSheetCaseRename(args Args, _ Env) (Generator, error) {
	a := newArgReader("sheet_case_rename", args)
	cell := a.Cell("cell", "B2")
	valueA := a.Value("value_a", nil)
	valueB := a.Value("value_b", nil)
	if err := a.Err(); err != nil {
		return nil, err
	}

	build := func(name string, v any) (*xlsx.Workbook, error) {
		s := labelGrid(name, 3, 3)
		if v != nil {
			if err := s.Set(cell, v); err != nil {
				return nil, err
			}
		}
		return book(s), nil
	}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		wbA, err := build("Sheet1", valueA)
		if err != nil {
			return nil, err
		}
		wbB, err := build("sheet1", valueB)
		if err != nil {
			return nil, err
		}
		return pairWorkbooks(wbA, wbB, outputs)
	}), nil
}

func newPG6SheetScenario(args Args, _ Env) (Generator, error) {
	a := newArgReader("pg6_sheet_scenario", args)
	mode := a.Mode("mode", "sheet_added", "sheet_added", "sheet_removed", "sheet_renamed", "sheet_and_grid_change")
	if err := a.Err(); err != nil {
		return nil, err
	}

	other := func(name string) xlsx.Sheet {
		return xlsx.NewGrid(name, 3, 3, func(r, c int) any { return fmt.Sprintf("S_R%dC%d", r, c) })
	}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		base := labelGrid("Main", 5, 5)
		var wbA, wbB *xlsx.Workbook
		switch mode {
		case "sheet_added":
			wbA = book(base)
			wbB = book(base.Clone(), other("NewSheet"))
		case "sheet_removed":
			wbA = book(base, other("OldSheet"))
			wbB = book(base.Clone())
		case "sheet_renamed":
			wbA = book(base, other("OldName"))
			wbB = book(base.Clone(), other("NewName"))
		case "sheet_and_grid_change":
			changed := base.Clone()
			changed.SetAt(2, 2, "CHANGED")
			wbA = book(base)
			wbB = book(changed, other("NewSheet"))
		}
		return pairWorkbooks(wbA, wbB, outputs)
	}), nil
}
