package datamashup

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	nsXSD = "http://www.w3.org/2001/XMLSchema"
	nsXSI = "http://www.w3.org/2001/XMLSchema-instance"
)

// Permissions is the content of the Permissions section.
type Permissions struct {
	CanEvaluateFuturePackages bool
	FirewallEnabled           bool
	WorkbookGroupType         string
}

// DefaultPermissions matches what Excel writes for a new query.
func DefaultPermissions() Permissions {
	return Permissions{
		CanEvaluateFuturePackages: false,
		FirewallEnabled:           true,
		WorkbookGroupType:         "Organizational",
	}
}

// Bytes renders the section: UTF-8 BOM followed by a PermissionList document.
func (p Permissions) Bytes() ([]byte, error) {
	doc, root := newSectionDocument("PermissionList")
	root.CreateElement("CanEvaluateFuturePackages").SetText(strconv.FormatBool(p.CanEvaluateFuturePackages))
	root.CreateElement("FirewallEnabled").SetText(strconv.FormatBool(p.FirewallEnabled))
	root.CreateElement("WorkbookGroupType").SetText(p.WorkbookGroupType)
	return sectionBytes(doc)
}

// MetadataEntry is one StableEntries value. Booleans encode as l1/l0 and
// everything else as s{value}.
type MetadataEntry struct {
	Type  string
	Value any
}

// MetadataItem describes one Formula item, for example Section1/Query1.
type MetadataItem struct {
	Path    string
	Entries []MetadataEntry
}

// MetadataXML renders the LocalPackageMetadataFile document, UTF-8 with BOM.
// The AllFormulas item always comes first.
func MetadataXML(items []MetadataItem) ([]byte, error) {
	doc, root := newSectionDocument("LocalPackageMetadataFile")
	list := root.CreateElement("Items")

	all := list.CreateElement("Item")
	loc := all.CreateElement("ItemLocation")
	loc.CreateElement("ItemType").SetText("AllFormulas")
	loc.CreateElement("ItemPath")
	all.CreateElement("StableEntries")

	for _, item := range items {
		el := list.CreateElement("Item")
		loc := el.CreateElement("ItemLocation")
		loc.CreateElement("ItemType").SetText("Formula")
		loc.CreateElement("ItemPath").SetText(item.Path)
		entries := el.CreateElement("StableEntries")
		for _, e := range item.Entries {
			entry := entries.CreateElement("Entry")
			entry.CreateAttr("Type", e.Type)
			entry.CreateAttr("Value", FormatEntryValue(e.Value))
		}
	}
	return sectionBytes(doc)
}

// MetadataBytes renders the Metadata section: a reserved zero u32, the XML
// byte length as u32, then the XML.
func MetadataBytes(items []MetadataItem) ([]byte, error) {
	xml, err := MetadataXML(items)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 8+len(xml))
	out = binary.LittleEndian.AppendUint32(out, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(xml)))
	return append(out, xml...), nil
}

// ParseMetadata returns the XML payload of a Metadata section. The reserved
// header word may hold any value.
func ParseMetadata(section []byte) ([]byte, error) {
	if len(section) < 8 {
		return nil, fmt.Errorf("metadata %w: %d bytes", ErrStreamTooShort, len(section))
	}
	n := int(binary.LittleEndian.Uint32(section[4:]))
	if n > len(section)-8 {
		return nil, fmt.Errorf("%w: metadata XML declares %d bytes, %d remain", ErrInvalidLength, n, len(section)-8)
	}
	return section[8 : 8+n], nil
}

// FormatEntryValue applies the on-disk StableEntries value encoding.
func FormatEntryValue(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "l1"
		}
		return "l0"
	}
	return "s" + fmt.Sprint(v)
}

func newSectionDocument(rootTag string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns:xsd", nsXSD)
	root.CreateAttr("xmlns:xsi", nsXSI)
	return doc, root
}

func sectionBytes(doc *etree.Document) ([]byte, error) {
	xml, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("could not render section XML: %w", err)
	}
	return append(append([]byte{}, utf8BOM...), xml...), nil
}
