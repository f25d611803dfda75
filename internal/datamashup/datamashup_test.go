package datamashup_test

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/datamashup"
	"github.com/tabulensis/fixturegen/internal/datamashup/mashuptest"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

func TestSplitAssembleRoundTrip(t *testing.T) {
	stream, err := mashuptest.Stream()
	require.NoError(t, err)

	s, err := datamashup.Split(stream)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), s.Version)
	assert.Equal(t, mashuptest.Bindings, s.Bindings)
	assert.Equal(t, stream, s.Bytes())
}

func TestSplitErrors(t *testing.T) {
	valid := datamashup.Assemble(0, []byte("pp"), []byte("perm"), []byte("meta"), []byte("b"))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, datamashup.ErrStreamTooShort},
		{"nineteen bytes", make([]byte, 19), datamashup.ErrStreamTooShort},
		{"trailing", append(append([]byte{}, valid...), 0x00), datamashup.ErrTrailingBytes},
		{"section past end", func() []byte {
			b := append([]byte{}, valid...)
			binary.LittleEndian.PutUint32(b[4:], 1000)
			return b
		}(), datamashup.ErrInvalidLength},
		{"header past end", func() []byte {
			// PackageParts swallows everything but four bytes, leaving no room
			// for the Metadata and Bindings headers.
			b := make([]byte, 24)
			binary.LittleEndian.PutUint32(b[4:], 12)
			return b
		}(), datamashup.ErrStreamTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := datamashup.Split(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitEmptySections(t *testing.T) {
	s, err := datamashup.Split(datamashup.Assemble(7, nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), s.Version)
	assert.Empty(t, s.PackageParts)
}

func TestRewriteInnerPackageKeepsOtherEntries(t *testing.T) {
	parts, err := mashuptest.PackageParts()
	require.NoError(t, err)

	out, err := datamashup.ReplaceSection(parts, "section Section1;\nshared X = 1;")
	require.NoError(t, err)

	section, err := datamashup.ReadInnerPart(out, datamashup.PartSection1)
	require.NoError(t, err)
	assert.Equal(t, "section Section1;\nshared X = 1;", string(section))

	pkg, err := datamashup.ReadInnerPart(out, datamashup.PartPackageXML)
	require.NoError(t, err)
	assert.Equal(t, mashuptest.PackageXML, string(pkg))

	names, err := container.Names(out)
	require.NoError(t, err)
	assert.Equal(t, []string{datamashup.PartContentTypes, datamashup.PartPackageXML, datamashup.PartSection1}, names)
}

func TestRewriteInnerPackageMissingEntry(t *testing.T) {
	parts, err := mashuptest.PackageParts()
	require.NoError(t, err)
	_, err = datamashup.RewriteInnerPackage(parts, "Formulas/Other.m", []byte("x"))
	assert.ErrorIs(t, err, container.ErrEntryNotFound)
}

func TestAddEmbeddedPackage(t *testing.T) {
	parts, err := mashuptest.PackageParts()
	require.NoError(t, err)

	out, err := datamashup.AddEmbeddedPackage(parts, datamashup.DefaultEmbeddedGUID, datamashup.DefaultEmbeddedSection)
	require.NoError(t, err)

	section, err := datamashup.ReadInnerPart(out, datamashup.PartSection1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(section), strings.TrimRight(mashuptest.Section, "\n")))
	assert.Contains(t, string(section), `Source = Embedded.Value("Content/{11111111-2222-3333-4444-555555555555}.package")`)

	types, err := datamashup.ReadInnerPart(out, datamashup.PartContentTypes)
	require.NoError(t, err)
	assert.Contains(t, string(types), `Extension="package"`)

	embedded, err := datamashup.ReadInnerPart(out, datamashup.EmbeddedPath(datamashup.DefaultEmbeddedGUID))
	require.NoError(t, err)
	inner, err := datamashup.ReadInnerPart(embedded, datamashup.PartSection1)
	require.NoError(t, err)
	assert.Equal(t, datamashup.DefaultEmbeddedSection, string(inner))
}

func TestExtendSection(t *testing.T) {
	got := datamashup.ExtendSection("section Section1;\n\n", "{G}")
	assert.Equal(t, "section Section1;\n\nshared EmbeddedQuery = let\n    Source = Embedded.Value(\"Content/{G}.package\")\nin\n    Source;", got)
}

func TestPermissionsBytes(t *testing.T) {
	b, err := datamashup.Permissions{FirewallEnabled: false, WorkbookGroupType: "Organizational"}.Bytes()
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}))
	s := string(b)
	assert.Contains(t, s, "<CanEvaluateFuturePackages>false</CanEvaluateFuturePackages>")
	assert.Contains(t, s, "<FirewallEnabled>false</FirewallEnabled>")
	assert.Contains(t, s, "<WorkbookGroupType>Organizational</WorkbookGroupType>")
}

func TestMetadataBytesHeaderAndEntries(t *testing.T) {
	b, err := datamashup.MetadataBytes([]datamashup.MetadataItem{{
		Path: "Section1/GroupedFoo",
		Entries: []datamashup.MetadataEntry{
			{Type: "FillEnabled", Value: true},
			{Type: "QueryGroupPath", Value: "Inputs/DimTables"},
		},
	}})
	require.NoError(t, err)

	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b))
	assert.Equal(t, uint32(len(b)-8), binary.LittleEndian.Uint32(b[4:]))

	xml, err := datamashup.ParseMetadata(b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xml, []byte{0xEF, 0xBB, 0xBF}))

	s := string(xml)
	all := strings.Index(s, "<ItemType>AllFormulas</ItemType>")
	formula := strings.Index(s, "<ItemType>Formula</ItemType>")
	require.True(t, all >= 0 && formula > all, "AllFormulas item must come first")
	assert.Contains(t, s, `<Entry Type="FillEnabled" Value="l1"/>`)
	assert.Contains(t, s, `<Entry Type="QueryGroupPath" Value="sInputs/DimTables"/>`)
}

func TestParseMetadataAcceptsAnyReservedValue(t *testing.T) {
	b, err := datamashup.MetadataBytes(nil)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b, 0xDEADBEEF)

	_, err = datamashup.ParseMetadata(b)
	assert.NoError(t, err)

	binary.LittleEndian.PutUint32(b[4:], uint32(len(b)))
	_, err = datamashup.ParseMetadata(b)
	assert.ErrorIs(t, err, datamashup.ErrInvalidLength)
}

func TestFormatEntryValue(t *testing.T) {
	assert.Equal(t, "l1", datamashup.FormatEntryValue(true))
	assert.Equal(t, "l0", datamashup.FormatEntryValue(false))
	assert.Equal(t, "sabc", datamashup.FormatEntryValue("abc"))
	assert.Equal(t, "s3", datamashup.FormatEntryValue(3))
}

func TestRewriteStreamsKeepsLengthsConsistent(t *testing.T) {
	for _, enc := range []openxml.Encoding{openxml.UTF8, openxml.UTF16LE} {
		t.Run(string(enc), func(t *testing.T) {
			wb, err := mashuptest.Workbook(enc)
			require.NoError(t, err)

			out, err := datamashup.RewriteStreams(wb, func(s *datamashup.Stream) error {
				parts, err := datamashup.ReplaceSection(s.PackageParts, "section Section1;\nshared X = 1;")
				s.PackageParts = parts
				return err
			})
			require.NoError(t, err)

			item, err := container.ReadEntry(out, "customXml/item1.xml")
			require.NoError(t, err)
			_, gotEnc, err := openxml.DecodeToUTF8(item)
			require.NoError(t, err)
			assert.Equal(t, enc, gotEnc)

			stream, err := datamashup.ExtractFromWorkbook(out)
			require.NoError(t, err)
			s, err := datamashup.Split(stream)
			require.NoError(t, err)
			section, err := datamashup.ReadInnerPart(s.PackageParts, datamashup.PartSection1)
			require.NoError(t, err)
			assert.Equal(t, "section Section1;\nshared X = 1;", string(section))
		})
	}
}

func TestRewriteWorkbookWithoutDataMashup(t *testing.T) {
	wb, err := container.Write([]container.Entry{container.Deflated("xl/workbook.xml", []byte("<workbook/>"))})
	require.NoError(t, err)

	_, err = datamashup.RewriteWorkbook(wb, func(b []byte) ([]byte, error) { return b, nil }, nil)
	assert.ErrorIs(t, err, datamashup.ErrNotFound)
}

func TestDuplicatePart(t *testing.T) {
	wb, err := mashuptest.Workbook(openxml.UTF8)
	require.NoError(t, err)

	out, err := datamashup.DuplicatePart(wb)
	require.NoError(t, err)

	item1, err := container.ReadEntry(out, "customXml/item1.xml")
	require.NoError(t, err)
	item2, err := container.ReadEntry(out, "customXml/item2.xml")
	require.NoError(t, err)
	assert.Equal(t, item1, item2)

	props2, err := container.ReadEntry(out, "customXml/itemProps2.xml")
	require.NoError(t, err)
	assert.Contains(t, string(props2), "{37E9CB8A-1D60-4852-BCC8-3140E13993BF}")

	rels2, err := container.ReadEntry(out, "customXml/_rels/item2.xml.rels")
	require.NoError(t, err)
	assert.Contains(t, string(rels2), `Target="itemProps2.xml"`)

	types, err := container.ReadEntry(out, "[Content_Types].xml")
	require.NoError(t, err)
	assert.Contains(t, string(types), `PartName="/customXml/itemProps1.xml" ContentType="`+openxml.ContentTypeCustomXMLProperties+`"`)
	assert.Contains(t, string(types), `PartName="/customXml/itemProps2.xml" ContentType="`+openxml.ContentTypeCustomXMLProperties+`"`)

	rels, err := container.ReadEntry(out, "xl/_rels/workbook.xml.rels")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(rels), `Id="rId3"`))
	assert.Contains(t, string(rels), `Target="../customXml/item2.xml"`)
	assert.Equal(t, 1, strings.Count(string(rels), `Id="rId2"`))
}

func TestDuplicateElementWrapsRoot(t *testing.T) {
	wb, err := mashuptest.Workbook(openxml.UTF8)
	require.NoError(t, err)

	out, err := datamashup.DuplicateElement(wb)
	require.NoError(t, err)

	item, err := container.ReadEntry(out, "customXml/item1.xml")
	require.NoError(t, err)
	s := string(item)
	assert.Equal(t, 2, strings.Count(s, "<DataMashup"))
	assert.Contains(t, s, `<root xmlns="`+datamashup.Namespace+`">`)
}

func TestDuplicateElementAppendsSibling(t *testing.T) {
	stream, err := mashuptest.Stream()
	require.NoError(t, err)
	wb, err := mashuptest.WorkbookWithStream(stream, openxml.UTF8)
	require.NoError(t, err)
	item, err := container.ReadEntry(wb, "customXml/item1.xml")
	require.NoError(t, err)
	nested := strings.Replace(string(item), "<DataMashup", "<Holder><DataMashup", 1)
	nested = strings.Replace(nested, "</DataMashup>", "</DataMashup></Holder>", 1)
	wb, err = container.CopyWithReplacements(wb, map[string][]byte{"customXml/item1.xml": []byte(nested)})
	require.NoError(t, err)

	out, err := datamashup.DuplicateElement(wb)
	require.NoError(t, err)
	got, err := container.ReadEntry(out, "customXml/item1.xml")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(got), "<Holder><DataMashup"))
	assert.Equal(t, 2, strings.Count(string(got), "</DataMashup>"))
}

func TestReencodeWithWhitespace(t *testing.T) {
	wb, err := mashuptest.Workbook(openxml.UTF8)
	require.NoError(t, err)

	out, err := datamashup.Reencode(wb, openxml.UTF16BE, true)
	require.NoError(t, err)

	item, err := container.ReadEntry(out, "customXml/item1.xml")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFF}, item[:2])

	utf8Item, _, err := openxml.DecodeToUTF8(item)
	require.NoError(t, err)
	assert.Contains(t, string(utf8Item), "\n  ")

	stream, err := datamashup.ExtractFromWorkbook(out)
	require.NoError(t, err)
	_, err = datamashup.Split(stream)
	assert.NoError(t, err)
}

func TestWithWhitespace(t *testing.T) {
	assert.Equal(t, "\n  AB\n  CD\n", datamashup.WithWhitespace("  ABCD "))
	assert.Equal(t, "\n  A\n  \n", datamashup.WithWhitespace("A"))
	assert.Equal(t, "", datamashup.WithWhitespace(""))
}
