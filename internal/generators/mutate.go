package generators

import (
	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/mutate"
)

// newOpenXMLMutate derives B from base_file with one of the worksheet
// mutators. Two outputs receive [A copy, B]; one output receives B alone.
func newOpenXMLMutate(args Args, env Env) (Generator, error) {
	const name = "openxml_mutate"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	mode, err := mutate.ParseMode(a.String("mode", string(mutate.CellEditNumericMode)))
	if err != nil {
		a.fail("%s generator: %v", name, err)
	}
	opts := mutate.Options{
		Mode:          mode,
		WorksheetPart: a.String("worksheet_part", ""),
		Seed:          a.Int64("seed", 0),
		Edits:         a.Positive("edits", mutate.DefaultEdits),
		RowCount:      a.Positive("row_count", mutate.DefaultRowCount),
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		src, err := env.readFile(base)
		if err != nil {
			return nil, err
		}
		mutated, _, err := mutate.Package(src, opts)
		if err != nil {
			return nil, err
		}
		if len(outputs) == 1 {
			return []artifact.File{{Name: outputs[0], Data: mutated}}, nil
		}
		return []artifact.File{
			{Name: outputs[0], Data: src},
			{Name: outputs[1], Data: mutated},
		}, nil
	}), nil
}
