// Package mashuptest builds small workbook packages that carry a well-formed
// DataMashup stream, for tests and for seeding the base_query template.
package mashuptest

import (
	"encoding/base64"

	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/datamashup"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// Section is the M code of the base query.
const Section = "section Section1;\n\nshared Query1 = let\n    Source = 1\nin\n    Source;"

// PackageXML is the Config/Package.xml payload of the base query.
const PackageXML = `<?xml version="1.0" encoding="utf-8"?><Package xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><Version>2.72.0.0</Version><MinVersion>2.21.0.0</MinVersion><Culture>en-US</Culture></Package>`

// InnerContentTypes is the [Content_Types].xml of the PackageParts ZIP.
const InnerContentTypes = `<?xml version="1.0" encoding="utf-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="text/xml" /><Default Extension="m" ContentType="application/x-ms-m" /></Types>`

// Bindings is the Bindings section payload of the base stream.
var Bindings = []byte{0x00, 0x00, 0x00, 0x00}

// PackageParts returns the inner ZIP of the base stream.
func PackageParts() ([]byte, error) {
	return container.Write([]container.Entry{
		container.Deflated(datamashup.PartContentTypes, []byte(InnerContentTypes)),
		container.Deflated(datamashup.PartPackageXML, []byte(PackageXML)),
		container.Deflated(datamashup.PartSection1, []byte(Section)),
	})
}

// Stream returns a complete DataMashup stream with default permissions and
// metadata for Query1.
func Stream() ([]byte, error) {
	parts, err := PackageParts()
	if err != nil {
		return nil, err
	}
	perms, err := datamashup.DefaultPermissions().Bytes()
	if err != nil {
		return nil, err
	}
	meta, err := datamashup.MetadataBytes([]datamashup.MetadataItem{{
		Path: "Section1/Query1",
		Entries: []datamashup.MetadataEntry{
			{Type: "FillEnabled", Value: true},
			{Type: "FillToDataModelEnabled", Value: false},
		},
	}})
	if err != nil {
		return nil, err
	}
	return datamashup.Assemble(0, parts, perms, meta, Bindings), nil
}

// ItemXML wraps a stream in the customXml/item1.xml document.
func ItemXML(stream []byte, enc openxml.Encoding) ([]byte, error) {
	doc := `<?xml version="1.0" encoding="utf-8"?><DataMashup xmlns="` + datamashup.Namespace + `">` +
		base64.StdEncoding.EncodeToString(stream) + `</DataMashup>`
	return openxml.Encode([]byte(doc), enc)
}

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/><Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/><Override PartName="/customXml/itemProps1.xml" ContentType="application/vnd.openxmlformats-officedocument.customXmlProperties+xml"/></Types>`

	rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`

	workbookXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`

	workbookRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/customXml" Target="../customXml/item1.xml"/></Relationships>`

	sheetXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1"><v>1</v></c></row></sheetData></worksheet>`

	itemPropsXML = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<ds:datastoreItem ds:itemID="{37E9CB8A-1D60-4852-BCC8-3140E13993BE}" xmlns:ds="http://schemas.openxmlformats.org/officeDocument/2006/customXml"><ds:schemaRefs/></ds:datastoreItem>`

	itemRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/customXmlProps" Target="itemProps1.xml"/></Relationships>`
)

// Workbook returns a minimal xlsx package whose customXml/item1.xml carries
// Stream() encoded as enc.
func Workbook(enc openxml.Encoding) ([]byte, error) {
	stream, err := Stream()
	if err != nil {
		return nil, err
	}
	return WorkbookWithStream(stream, enc)
}

// WorkbookWithStream is Workbook around a caller-supplied stream.
func WorkbookWithStream(stream []byte, enc openxml.Encoding) ([]byte, error) {
	item, err := ItemXML(stream, enc)
	if err != nil {
		return nil, err
	}
	return container.Write([]container.Entry{
		container.Deflated("[Content_Types].xml", []byte(contentTypesXML)),
		container.Deflated("_rels/.rels", []byte(rootRelsXML)),
		container.Deflated("xl/workbook.xml", []byte(workbookXML)),
		container.Deflated("xl/_rels/workbook.xml.rels", []byte(workbookRelsXML)),
		container.Deflated("xl/worksheets/sheet1.xml", []byte(sheetXML)),
		container.Deflated("customXml/item1.xml", item),
		container.Deflated("customXml/itemProps1.xml", []byte(itemPropsXML)),
		container.Deflated("customXml/_rels/item1.xml.rels", []byte(itemRelsXML)),
	})
}
