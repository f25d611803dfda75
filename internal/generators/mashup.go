package generators

import (
	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/datamashup"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// DefaultBaseQuery is the base workbook of the mashup:* generators.
const DefaultBaseQuery = "templates/base_query.xlsx"

// rewriteBase reads base and names a copy of rewrite's result per output.
func rewriteBase(env Env, base string, rewrite func(src []byte) ([]byte, error)) Generator {
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		src, err := env.readFile(base)
		if err != nil {
			return nil, err
		}
		data, err := rewrite(src)
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	})
}

func newMashupCorrupt(args Args, env Env) (Generator, error) {
	const name = "mashup_corrupt"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	mode := a.Mode("mode", "byte_flip", "byte_flip", "truncate")
	if err := a.Err(); err != nil {
		return nil, err
	}

	corrupt := func(stream []byte) ([]byte, error) {
		if len(stream) == 0 {
			return stream, nil
		}
		out := append([]byte(nil), stream...)
		if mode == "truncate" {
			return out[:len(out)/2], nil
		}
		out[len(out)/2] ^= 0xFF
		return out, nil
	}
	var garble datamashup.TextFunc
	if mode == "byte_flip" {
		garble = garbleBase64
	}
	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.RewriteWorkbook(src, corrupt, garble)
	}), nil
}

// garbleBase64 replaces the first character with one outside the base64
// alphabet.
func garbleBase64(encoded string) string {
	if encoded == "" {
		return "!!"
	}
	return "!" + encoded[1:]
}

func newMashupInject(args Args, env Env) (Generator, error) {
	const name = "mashup_inject"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	a.Check(a.has("m_code"), "%s generator requires 'm_code' argument", name)
	mCode := a.String("m_code", "")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.RewriteStreams(src, func(s *datamashup.Stream) error {
			parts, err := datamashup.ReplaceSection(s.PackageParts, mCode)
			if err != nil {
				return err
			}
			s.PackageParts = parts
			return nil
		})
	}), nil
}

func newMashupDuplicate(args Args, env Env) (Generator, error) {
	const name = "mashup_duplicate"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	mode := a.String("mode", "part")
	a.Check(mode == "part" || mode == "element", "Unsupported duplicate mode: %s", mode)
	if err := a.Err(); err != nil {
		return nil, err
	}

	duplicate := datamashup.DuplicatePart
	if mode == "element" {
		duplicate = datamashup.DuplicateElement
	}
	return rewriteBase(env, base, duplicate), nil
}

func newMashupEncode(args Args, env Env) (Generator, error) {
	const name = "mashup_encode"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	encName := a.String("encoding", string(openxml.UTF8))
	whitespace := a.Bool("whitespace", false)
	enc, err := openxml.ParseEncoding(encName)
	if err != nil {
		a.fail("%s generator arg 'encoding': %v", name, err)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}

	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.Reencode(src, enc, whitespace)
	}), nil
}

// newMashupOneQuery round-trips the base workbook's DataMashup unchanged.
func newMashupOneQuery(args Args, env Env) (Generator, error) {
	a := newArgReader("mashup:one_query", args)
	base := a.String("base_file", DefaultBaseQuery)
	if err := a.Err(); err != nil {
		return nil, err
	}

	identity := func(stream []byte) ([]byte, error) { return stream, nil }
	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.RewriteWorkbook(src, identity, nil)
	}), nil
}

func newMashupMultiEmbedded(args Args, env Env) (Generator, error) {
	a := newArgReader("mashup:multi_query_with_embedded", args)
	base := a.String("base_file", DefaultBaseQuery)
	guid := a.String("embedded_guid", datamashup.DefaultEmbeddedGUID)
	section := a.String("embedded_section", datamashup.DefaultEmbeddedSection)
	if err := a.Err(); err != nil {
		return nil, err
	}

	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.RewriteStreams(src, func(s *datamashup.Stream) error {
			parts, err := datamashup.AddEmbeddedPackage(s.PackageParts, guid, section)
			if err != nil {
				return err
			}
			s.PackageParts = parts
			return nil
		})
	}), nil
}

// permissionsScenario is the section text, permissions and metadata that
// one permissions_metadata mode writes.
type permissionsScenario struct {
	section     string
	permissions datamashup.Permissions
	metadata    []datamashup.MetadataItem
}

// PermissionsModes lists the modes of mashup:permissions_metadata.
var PermissionsModes = []string{
	"permissions_defaults",
	"permissions_firewall_off",
	"metadata_simple",
	"metadata_query_groups",
	"metadata_hidden_queries",
}

func fill(sheet, model bool) []datamashup.MetadataEntry {
	return []datamashup.MetadataEntry{
		{Type: "FillEnabled", Value: sheet},
		{Type: "FillToDataModelEnabled", Value: model},
	}
}

func scenarioFor(mode string) permissionsScenario {
	perms := datamashup.DefaultPermissions()
	switch mode {
	case "metadata_query_groups":
		return permissionsScenario{
			section:     "section Section1;\n\nshared RootQuery = 1;\nshared GroupedFoo = 2;\nshared NestedBar = 3;",
			permissions: perms,
			metadata: []datamashup.MetadataItem{
				{Path: "Section1/RootQuery", Entries: []datamashup.MetadataEntry{
					{Type: "FillEnabled", Value: true},
				}},
				{Path: "Section1/GroupedFoo", Entries: []datamashup.MetadataEntry{
					{Type: "FillEnabled", Value: true},
					{Type: "QueryGroupPath", Value: "Inputs/DimTables"},
				}},
				{Path: "Section1/NestedBar", Entries: []datamashup.MetadataEntry{
					{Type: "FillToDataModelEnabled", Value: true},
					{Type: "QueryGroupPath", Value: "Inputs/DimTables"},
				}},
			},
		}
	case "metadata_hidden_queries":
		return permissionsScenario{
			section:     "section Section1;\n\nshared ConnectionOnly = 1;\nshared VisibleLoad = 2;",
			permissions: perms,
			metadata: []datamashup.MetadataItem{
				{Path: "Section1/ConnectionOnly", Entries: fill(false, false)},
				{Path: "Section1/VisibleLoad", Entries: fill(true, false)},
			},
		}
	}
	perms.FirewallEnabled = mode != "permissions_firewall_off"
	return permissionsScenario{
		section:     "section Section1;\n\nshared LoadToSheet = 1;\nshared LoadToModel = 2;",
		permissions: perms,
		metadata: []datamashup.MetadataItem{
			{Path: "Section1/LoadToSheet", Entries: fill(true, false)},
			{Path: "Section1/LoadToModel", Entries: fill(false, true)},
		},
	}
}

// newMashupPermissionsMetadata rewrites Section1.m and regenerates the
// Permissions and Metadata sections for a named mode. Bindings and version
// are kept.
func newMashupPermissionsMetadata(args Args, env Env) (Generator, error) {
	const name = "mashup:permissions_metadata"
	a := newArgReader(name, args)
	base := a.String("base_file", DefaultBaseQuery)
	mode := a.Required("mode")
	if a.Err() == nil {
		a.Mode("mode", "", PermissionsModes...)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	scenario := scenarioFor(mode)

	return rewriteBase(env, base, func(src []byte) ([]byte, error) {
		return datamashup.RewriteStreams(src, func(s *datamashup.Stream) error {
			parts, err := datamashup.ReplaceSection(s.PackageParts, scenario.section)
			if err != nil {
				return err
			}
			perms, err := scenario.permissions.Bytes()
			if err != nil {
				return err
			}
			meta, err := datamashup.MetadataBytes(scenario.metadata)
			if err != nil {
				return err
			}
			s.PackageParts, s.Permissions, s.Metadata = parts, perms, meta
			return nil
		})
	}), nil
}
