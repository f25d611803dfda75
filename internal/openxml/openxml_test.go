package openxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const sheetXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006" mc:Ignorable="x14ac"><sheetData><row r="1"><c r="A1"><v>1</v></c><c r="B1"><f>A1*2</f></c></row></sheetData></worksheet>`

func TestInjectCachedValuesAppendsV(t *testing.T) {
	out, err := InjectCachedValues([]byte(sheetXML), []CachedValue{{Ref: "B1", Value: "2"}})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `<c r="B1"><f>A1*2</f><v>2</v></c>`)
	assert.Contains(t, s, `xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"`)
	assert.Contains(t, s, `mc:Ignorable="x14ac"`)
	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml`)))
}

func TestInjectCachedValuesReplacesExistingAndSetsType(t *testing.T) {
	out, err := InjectCachedValues([]byte(sheetXML), []CachedValue{{Ref: "A1", Value: "hello", Type: "str"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<c r="A1" t="str"><v>hello</v></c>`)
}

func TestInjectCachedValuesSkipsMissingRefs(t *testing.T) {
	out, err := InjectCachedValues([]byte(sheetXML), []CachedValue{{Ref: "Z99", Value: "9"}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Z99")
	assert.Contains(t, string(out), `<c r="B1"><f>A1*2</f></c>`)
}

func TestInjectCachedValuesPrefixedNamespace(t *testing.T) {
	in := `<x:worksheet xmlns:x="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><x:sheetData><x:row r="1"><x:c r="A1"><x:f>1+1</x:f></x:c></x:row></x:sheetData></x:worksheet>`
	out, err := InjectCachedValues([]byte(in), []CachedValue{{Ref: "A1", Value: "2"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<x:c r="A1"><x:f>1+1</x:f><x:v>2</x:v></x:c>`)
	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)))
}

func TestInjectCachedValuesIgnoresForeignNamespace(t *testing.T) {
	in := `<worksheet xmlns="urn:other"><c r="A1"/></worksheet>`
	out, err := InjectCachedValues([]byte(in), []CachedValue{{Ref: "A1", Value: "2"}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<v>")
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/></Types>`

func TestEnsureOverrideIsIdempotent(t *testing.T) {
	once, err := EnsureOverride([]byte(contentTypesXML), "/customXml/itemProps2.xml", ContentTypeCustomXMLProperties)
	require.NoError(t, err)
	twice, err := EnsureOverride(once, "/customXml/itemProps2.xml", ContentTypeCustomXMLProperties)
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(twice, []byte(`PartName="/customXml/itemProps2.xml"`)))
	assert.Contains(t, string(twice), `<Override PartName="/customXml/itemProps2.xml" ContentType="`+ContentTypeCustomXMLProperties+`"/>`)
}

func TestEnsureDefaultInsertsAfterLastDefault(t *testing.T) {
	out, err := EnsureDefault([]byte(contentTypesXML), "bin", "application/octet-stream")
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `<Default Extension="xml" ContentType="application/xml"/><Default Extension="bin" ContentType="application/octet-stream"/><Override`)

	again, err := EnsureDefault(out, "BIN", "application/other")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestSortContentTypes(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/xl/workbook.xml" ContentType="wb"/><Default Extension="png" ContentType="image/png"/><Override PartName="/docProps/app.xml" ContentType="app"/><Default Extension="emz" ContentType="image/x-emz"/><Default Extension="XML" ContentType="application/xml"/></Types>`
	out, err := SortContentTypes([]byte(in))
	require.NoError(t, err)

	assert.Contains(t, string(out), `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="emz" ContentType="image/x-emz"/>`+
		`<Default Extension="png" ContentType="image/png"/>`+
		`<Default Extension="XML" ContentType="application/xml"/>`+
		`<Override PartName="/docProps/app.xml" ContentType="app"/>`+
		`<Override PartName="/xl/workbook.xml" ContentType="wb"/></Types>`)

	again, err := SortContentTypes(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestAddRelationshipPicksSmallestUnusedID(t *testing.T) {
	rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="t" Target="a.xml"/><Relationship Id="rId3" Type="t" Target="c.xml"/></Relationships>`
	out, id, err := AddRelationship([]byte(rels), RelTypeCustomXML, "../customXml/item2.xml")
	require.NoError(t, err)
	assert.Equal(t, "rId2", id)
	assert.Contains(t, string(out), `<Relationship Id="rId2" Type="`+RelTypeCustomXML+`" Target="../customXml/item2.xml"/>`)

	targets, err := RelationshipTargets(out, RelTypeCustomXML)
	require.NoError(t, err)
	assert.Equal(t, []string{"../customXml/item2.xml"}, targets)
}

func TestEncodeUTF16RoundTrip(t *testing.T) {
	in := []byte(`<?xml version="1.0" encoding="utf-8"?><root>é</root>`)

	le, err := Encode(in, UTF16LE)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE}, le[:2])

	raw, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(le[2:])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `encoding="UTF-16"`)

	back, enc, err := DecodeToUTF8(le)
	require.NoError(t, err)
	assert.Equal(t, UTF16LE, enc)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><root>é</root>`, string(back))

	be, err := Encode(in, UTF16BE)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFF}, be[:2])
	_, enc, err = DecodeToUTF8(be)
	require.NoError(t, err)
	assert.Equal(t, UTF16BE, enc)
}

func TestEncodeUTF8IsIdentity(t *testing.T) {
	in := []byte(`<root/>`)
	out, err := Encode(in, UTF8)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseUTF16Part(t *testing.T) {
	le, err := Encode([]byte(sheetXML), UTF16LE)
	require.NoError(t, err)

	out, err := InjectCachedValues(le, []CachedValue{{Ref: "B1", Value: "2"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<v>2</v></c>`)
}

func TestRewriteDeclarationEncoding(t *testing.T) {
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-16"?><a/>`,
		string(RewriteDeclarationEncoding([]byte(`<?xml version="1.0"?><a/>`), "UTF-16")))
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-16"?><a/>`,
		string(RewriteDeclarationEncoding([]byte(`<a/>`), "UTF-16")))
	assert.Equal(t,
		`<?xml version='1.0' encoding="UTF-8" standalone='yes'?><a encoding="keep"/>`,
		string(RewriteDeclarationEncoding([]byte(`<?xml version='1.0' encoding='utf-16' standalone='yes'?><a encoding="keep"/>`), "UTF-8")))
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{
		"utf-8": UTF8, "UTF8": UTF8, "utf-16-le": UTF16LE, "utf_16_be": UTF16BE, "UTF-16LE": UTF16LE,
	} {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEncoding("latin1")
	assert.Error(t, err)
}

func TestCellNames(t *testing.T) {
	assert.Equal(t, "A1", CellName(1, 1))
	assert.Equal(t, "AA10", CellName(27, 10))
	assert.Equal(t, "Z", ColumnName(26))

	col, row, err := ParseCellName("C7")
	require.NoError(t, err)
	assert.Equal(t, 3, col)
	assert.Equal(t, 7, row)

	assert.Panics(t, func() { CellName(0, 1) })
}
