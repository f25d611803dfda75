package generators

// Row and column helpers over [][]any grids. Positions are 1-based.

func insertRows(rows [][]any, at int, block ...[]any) [][]any {
	out := make([][]any, 0, len(rows)+len(block))
	out = append(out, rows[:at-1]...)
	out = append(out, block...)
	return append(out, rows[at-1:]...)
}

func deleteRows(rows [][]any, at, count int) [][]any {
	out := make([][]any, 0, len(rows)-count)
	out = append(out, rows[:at-1]...)
	return append(out, rows[at-1+count:]...)
}

// moveRows relocates rows [src, src+count) so the block starts at dst in the
// result. Rows in between keep their relative order.
func moveRows(rows [][]any, src, count, dst int) [][]any {
	block := append([][]any(nil), rows[src-1:src-1+count]...)
	rest := deleteRows(rows, src, count)
	return insertRows(rest, dst, block...)
}

func insertColumn(rows [][]any, at int, value func(r int) any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		for len(row) < at-1 {
			row = append(row, nil)
		}
		next := make([]any, 0, len(row)+1)
		next = append(next, row[:at-1]...)
		next = append(next, value(i+1))
		out[i] = append(next, row[at-1:]...)
	}
	return out
}

func deleteColumn(rows [][]any, at int) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		if at > len(row) {
			out[i] = append([]any(nil), row...)
			continue
		}
		next := make([]any, 0, len(row)-1)
		next = append(next, row[:at-1]...)
		out[i] = append(next, row[at:]...)
	}
	return out
}

// moveColumn relocates column src so it sits at dst in the result.
func moveColumn(rows [][]any, src, dst int) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		v := row[src-1]
		rest := make([]any, 0, len(row))
		rest = append(rest, row[:src-1]...)
		rest = append(rest, row[src:]...)
		next := make([]any, 0, len(row))
		next = append(next, rest[:dst-1]...)
		next = append(next, v)
		out[i] = append(next, rest[dst-1:]...)
	}
	return out
}

// overlaps reports whether [a, a+n) and [b, b+m) intersect.
func overlaps(a, n, b, m int) bool {
	return a < b+m && b < a+n
}
