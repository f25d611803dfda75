package openxml

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/xuri/excelize/v2"
)

// CachedValue is a value to store in the <v> child of a worksheet cell.
// Type, when set, becomes the cell's t attribute (for example "str").
type CachedValue struct {
	Ref   string
	Value string
	Type  string
}

// InjectCachedValues writes cached values into the cells of a worksheet part.
// Cells are matched by their r attribute; refs that name no cell are skipped.
// An existing <v> is replaced, otherwise one is appended after the cell's
// other children.
func InjectCachedValues(part []byte, values []CachedValue) ([]byte, error) {
	doc, err := ParseDocument(part)
	if err != nil {
		return nil, err
	}

	cells := make(map[string]*etree.Element)
	Walk(doc.Root(), func(e *etree.Element) bool {
		if IsElement(e, NamespaceSpreadsheet, "c") {
			if ref := e.SelectAttrValue("r", ""); ref != "" {
				if _, seen := cells[ref]; !seen {
					cells[ref] = e
				}
			}
		}
		return true
	})

	for _, cv := range values {
		cell, ok := cells[cv.Ref]
		if !ok {
			continue
		}
		if cv.Type != "" {
			cell.CreateAttr("t", cv.Type)
		}
		var v *etree.Element
		for _, child := range cell.ChildElements() {
			if IsElement(child, NamespaceSpreadsheet, "v") {
				v = child
				break
			}
		}
		if v == nil {
			v = cell.CreateElement(childTag(cell, "v"))
		}
		v.SetText(cv.Value)
	}

	return SerializeDocument(doc)
}

// EnsureOverride adds an <Override> for partName to a [Content_Types].xml
// document unless one is already present.
func EnsureOverride(contentTypes []byte, partName, contentType string) ([]byte, error) {
	doc, err := ParseDocument(contentTypes)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	for _, e := range root.ChildElements() {
		if IsElement(e, NamespaceContentTypes, "Override") && e.SelectAttrValue("PartName", "") == partName {
			return SerializeDocument(doc)
		}
	}
	override := root.CreateElement(childTag(root, "Override"))
	override.CreateAttr("PartName", partName)
	override.CreateAttr("ContentType", contentType)
	return SerializeDocument(doc)
}

// EnsureDefault adds a <Default> for extension (compared case-insensitively)
// unless one is already present. New defaults go after the last existing one.
func EnsureDefault(contentTypes []byte, extension, contentType string) ([]byte, error) {
	doc, err := ParseDocument(contentTypes)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	insertAt := 0
	for _, e := range root.ChildElements() {
		if !IsElement(e, NamespaceContentTypes, "Default") {
			continue
		}
		if strings.EqualFold(e.SelectAttrValue("Extension", ""), extension) {
			return SerializeDocument(doc)
		}
		insertAt = e.Index() + 1
	}
	def := etree.NewElement(childTag(root, "Default"))
	def.CreateAttr("Extension", extension)
	def.CreateAttr("ContentType", contentType)
	root.InsertChildAt(insertAt, def)
	return SerializeDocument(doc)
}

// SortContentTypes orders a [Content_Types].xml document: every <Default>
// sorted by Extension, then every <Override> sorted by PartName. Other
// children keep their place ahead of them.
func SortContentTypes(contentTypes []byte) ([]byte, error) {
	doc, err := ParseDocument(contentTypes)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	var defaults, overrides []*etree.Element
	for _, e := range root.ChildElements() {
		switch {
		case IsElement(e, NamespaceContentTypes, "Default"):
			defaults = append(defaults, e)
		case IsElement(e, NamespaceContentTypes, "Override"):
			overrides = append(overrides, e)
		default:
			continue
		}
		root.RemoveChild(e)
	}
	sort.SliceStable(defaults, func(i, j int) bool {
		return strings.ToLower(defaults[i].SelectAttrValue("Extension", "")) < strings.ToLower(defaults[j].SelectAttrValue("Extension", ""))
	})
	sort.SliceStable(overrides, func(i, j int) bool {
		return overrides[i].SelectAttrValue("PartName", "") < overrides[j].SelectAttrValue("PartName", "")
	})
	for _, e := range defaults {
		root.AddChild(e)
	}
	for _, e := range overrides {
		root.AddChild(e)
	}
	return SerializeDocument(doc)
}

// AddRelationship appends a relationship to a .rels document and returns the
// updated document together with the new id, the smallest unused rId<n>.
func AddRelationship(rels []byte, relType, target string) ([]byte, string, error) {
	doc, err := ParseDocument(rels)
	if err != nil {
		return nil, "", err
	}
	root := doc.Root()
	used := make(map[string]bool)
	for _, e := range root.ChildElements() {
		if IsElement(e, NamespaceRelationships, "Relationship") {
			used[e.SelectAttrValue("Id", "")] = true
		}
	}
	id := ""
	for n := 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !used[id] {
			break
		}
	}

	rel := root.CreateElement(childTag(root, "Relationship"))
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	out, err := SerializeDocument(doc)
	if err != nil {
		return nil, "", err
	}
	return out, id, nil
}

// RelationshipTargets returns the Target of every relationship of relType.
func RelationshipTargets(rels []byte, relType string) ([]string, error) {
	doc, err := ParseDocument(rels)
	if err != nil {
		return nil, err
	}
	var targets []string
	for _, e := range doc.Root().ChildElements() {
		if IsElement(e, NamespaceRelationships, "Relationship") && e.SelectAttrValue("Type", "") == relType {
			targets = append(targets, e.SelectAttrValue("Target", ""))
		}
	}
	return targets, nil
}

// CellName converts 1-based coordinates to an A1 reference.
// It panics when col or row is not positive.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("openxml: invalid cell coordinates (%d, %d): %v", col, row, err))
	}
	return name
}

// ColumnName converts a 1-based column number to its letters.
// It panics when col is not positive.
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(fmt.Sprintf("openxml: invalid column %d: %v", col, err))
	}
	return name
}

// ParseCellName splits an A1 reference into 1-based coordinates.
func ParseCellName(ref string) (col, row int, err error) {
	return excelize.CellNameToCoordinates(ref)
}
