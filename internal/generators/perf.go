package generators

import (
	"fmt"
	"math/rand"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
)

// newLargeGrid streams a large "Performance" sheet: a Col_{c} header row and
// rows filled according to mode. An optional single-cell edit turns two runs
// into a diff pair.
func newLargeGrid(args Args, _ Env) (Generator, error) {
	const name = "perf_large"
	a := newArgReader(name, args)
	rows := a.Positive("rows", 1000)
	cols := a.Positive("cols", 10)
	mode := a.Mode("mode", "dense", "dense", "noise", "repetitive", "sparse")
	seed := SeedFrom(a.Value("seed", 0))
	pattern := a.Positive("pattern_length", 100)
	fill := a.Int("fill_percent", 100)
	editRow := a.OptionalInt("edit_row")
	editCol := a.OptionalInt("edit_col")
	editValue := a.Value("edit_value", nil)
	numberFormat := a.String("number_format", "")
	a.Check(fill >= 0 && fill <= 100, "%s generator arg 'fill_percent' must be within 0..100", name)
	if numberFormat != "" {
		if err := xlsx.ValidateNumberFormat(numberFormat); err != nil {
			a.fail("%s generator arg 'number_format': %v", name, err)
		}
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		rng := rand.New(rand.NewSource(seed))
		sheet := xlsx.Sheet{
			Name:       "Performance",
			StreamRows: rows + 1,
			StreamRow: func(sr int) []any {
				values := make([]any, cols)
				if sr == 1 {
					for c := 1; c <= cols; c++ {
						values[c-1] = fmt.Sprintf("Col_%d", c)
					}
					return values
				}
				r := sr - 1
				for c := 1; c <= cols; c++ {
					switch mode {
					case "dense":
						values[c-1] = fmt.Sprintf("R%dC%d", r, c)
					case "noise":
						values[c-1] = rng.Float64()
					case "repetitive":
						values[c-1] = fmt.Sprintf("P%dC%d", (r-1)%pattern, c)
					case "sparse":
						if rng.Intn(100)+1 <= fill {
							values[c-1] = fmt.Sprintf("R%dC%d", r, c)
						}
					}
				}
				if editRow != nil && editCol != nil && r == *editRow && *editCol >= 1 && *editCol <= cols {
					values[*editCol-1] = editValue
				}
				return values
			},
		}
		if numberFormat != "" {
			sheet.NumberFormats = make(map[int]string, cols)
			for c := 1; c <= cols; c++ {
				sheet.NumberFormats[c] = numberFormat
			}
		}
		return eachWorkbook(book(sheet), outputs)
	}), nil
}

// newKeyedTable emits an ID/Name/Amount/Category table for key-based row
// alignment, with optional appended rows, per-ID updates and a seeded
// shuffle.
func newKeyedTable(args Args, _ Env) (Generator, error) {
	const name = "db_keyed"
	a := newArgReader(name, args)
	count := a.Int("count", 100)
	shuffle := a.Bool("shuffle", false)
	seed := SeedFrom(a.Value("seed", 42))
	var extra, updates []map[string]any
	a.Decode("extra_rows", &extra)
	a.Decode("updates", &updates)
	numberFormat := a.String("number_format", "")
	a.Check(count >= 0, "%s generator arg 'count' must be >= 0", name)
	for _, u := range updates {
		if _, ok := toInt(u["id"]); !ok {
			a.fail("%s generator update %v has no integer id", name, u)
		}
	}
	if numberFormat != "" {
		if err := xlsx.ValidateNumberFormat(numberFormat); err != nil {
			a.fail("%s generator arg 'number_format': %v", name, err)
		}
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	fields := []string{"id", "name", "amount", "category"}
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		rng := rand.New(rand.NewSource(seed))
		data := make([]map[string]any, 0, count+len(extra))
		for i := 1; i <= count; i++ {
			data = append(data, map[string]any{
				"id":       i,
				"name":     fmt.Sprintf("Customer_%d", i),
				"amount":   float64(i) * 10.5,
				"category": []string{"A", "B", "C"}[rng.Intn(3)],
			})
		}
		for _, e := range extra {
			row := make(map[string]any, len(e))
			for k, v := range e {
				row[k] = v
			}
			data = append(data, row)
		}

		byID := make(map[int]map[string]any, len(updates))
		for _, u := range updates {
			id, _ := toInt(u["id"])
			byID[id] = u
		}
		for _, row := range data {
			id, ok := toInt(row["id"])
			if !ok {
				continue
			}
			if u, ok := byID[id]; ok {
				for _, k := range fields[1:] {
					if v, ok := u[k]; ok {
						row[k] = v
					}
				}
			}
		}
		if shuffle {
			rng.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
		}

		sheet := xlsx.Sheet{Name: "Data", Rows: [][]any{{"ID", "Name", "Amount", "Category"}}}
		for _, row := range data {
			values := make([]any, len(fields))
			for i, k := range fields {
				values[i] = row[k]
			}
			sheet.Rows = append(sheet.Rows, values)
		}
		if numberFormat != "" {
			sheet.NumberFormats = map[int]string{3: numberFormat}
		}
		return eachWorkbook(book(sheet), outputs)
	}), nil
}
