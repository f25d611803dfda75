package generators

import (
	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/datamashup"
)

// newPBIX emits a minimal Power BI package. from_xlsx copies the DataMashup
// stream of base_file into a top-level DataMashup entry; no_datamashup omits
// it; no_schema keeps the stream and report markers but drops
// DataModelSchema.
func newPBIX(args Args, env Env) (Generator, error) {
	const name = "pbix"
	a := newArgReader(name, args)
	mode := a.Mode("mode", "from_xlsx", "from_xlsx", "no_datamashup", "no_schema")
	includeMashup := mode != "no_datamashup"
	var base string
	if includeMashup {
		base = a.String("base_file", "")
		a.Check(base != "", "base_file is required for mode=%s", mode)
	}
	schemaFile := a.String("model_schema_file", "")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		var entries []container.Entry
		if includeMashup {
			src, err := env.readFile(base)
			if err != nil {
				return nil, err
			}
			stream, err := datamashup.ExtractFromWorkbook(src)
			if err != nil {
				return nil, err
			}
			entries = append(entries, container.Deflated("DataMashup", stream))
		}
		entries = append(entries,
			container.Deflated("Report/Layout", []byte("{}")),
			container.Deflated("Report/Version", []byte("1")),
		)
		if mode != "no_schema" {
			schema := []byte("{}")
			if schemaFile != "" {
				var err error
				if schema, err = env.readFile(schemaFile); err != nil {
					return nil, err
				}
			}
			entries = append(entries, container.Deflated("DataModelSchema", schema))
		}

		data, err := container.Write(entries)
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	}), nil
}
