// Package openxml edits individual parts of an OpenXML workbook package:
// worksheet cached values, content types, relationships and the encoding of
// custom XML parts. Edits are namespace-aware but never schema-validated, and
// every namespace declaration present in the input survives re-serialization.
package openxml

import (
	"fmt"

	"github.com/beevik/etree"
)

// Namespace URIs. Content types and relationships each have their own URI,
// distinct from the spreadsheet namespace.
const (
	NamespaceSpreadsheet   = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NamespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	NamespaceRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Well-known relationship types and content types.
const (
	RelTypeCustomXML               = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/customXml"
	ContentTypeCustomXMLProperties = "application/vnd.openxmlformats-officedocument.customXmlProperties+xml"
)

const defaultDeclaration = `version="1.0" encoding="UTF-8" standalone="yes"`

// ParseDocument parses an XML part. UTF-16 input (with a byte-order mark) is
// transcoded to UTF-8 first.
func ParseDocument(data []byte) (*etree.Document, error) {
	utf8Data, _, err := DecodeToUTF8(data)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(utf8Data); err != nil {
		return nil, fmt.Errorf("could not parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("could not parse XML: document has no root element")
	}
	return doc, nil
}

// SerializeDocument writes doc as UTF-8, adding an XML declaration when the
// document has none.
func SerializeDocument(doc *etree.Document) ([]byte, error) {
	if !hasDeclaration(doc) {
		doc.InsertChildAt(0, etree.NewProcInst("xml", defaultDeclaration))
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("could not serialize XML: %w", err)
	}
	return out, nil
}

func hasDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.ProcInst:
			if t.Target == "xml" {
				return true
			}
		case *etree.CharData:
			continue
		default:
			return false
		}
	}
	return false
}

// Walk visits e and all of its descendant elements in document order. It stops
// early when fn returns false.
func Walk(e *etree.Element, fn func(*etree.Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.ChildElements() {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// IsElement reports whether e has the given local name in namespace ns.
func IsElement(e *etree.Element, ns, local string) bool {
	return e.Tag == local && e.NamespaceURI() == ns
}

// FindFirst returns the first element (in document order) with the given local
// name in namespace ns.
func FindFirst(root *etree.Element, ns, local string) *etree.Element {
	var found *etree.Element
	Walk(root, func(e *etree.Element) bool {
		if IsElement(e, ns, local) {
			found = e
			return false
		}
		return true
	})
	return found
}

// childTag returns local qualified with the prefix parent uses, so new
// children land in the parent's namespace.
func childTag(parent *etree.Element, local string) string {
	if parent.Space == "" {
		return local
	}
	return parent.Space + ":" + local
}
