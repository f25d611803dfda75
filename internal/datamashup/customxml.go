package datamashup

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"

	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// Namespace is the XML namespace of the DataMashup element.
const Namespace = "http://schemas.microsoft.com/DataMashup"

// ErrNotFound is returned when no customXml part carries a DataMashup element.
var ErrNotFound = errors.New("DataMashup not found")

const (
	itemPropsGUID          = "{37E9CB8A-1D60-4852-BCC8-3140E13993BE}"
	duplicateItemPropsGUID = "{37E9CB8A-1D60-4852-BCC8-3140E13993BF}"
)

var (
	markerUTF8    = []byte("DataMashup")
	markerUTF16LE = []byte("D\x00a\x00t\x00a\x00M\x00a\x00s\x00h\x00u\x00p")
)

// StreamFunc transforms a decoded DataMashup stream.
type StreamFunc func(stream []byte) ([]byte, error)

// TextFunc transforms the base64 text after re-encoding.
type TextFunc func(encoded string) string

// IsCandidatePart reports whether an outer package entry may hold the
// DataMashup element: a customXml/item* part that mentions the element name
// in UTF-8 or UTF-16LE.
func IsCandidatePart(name string, data []byte) bool {
	if !strings.HasPrefix(name, "customXml/item") {
		return false
	}
	return bytes.Contains(data, markerUTF8) || bytes.Contains(data, markerUTF16LE)
}

// FindElement returns the DataMashup element of doc: the root itself when it
// is named DataMashup, otherwise the first descendant in the DataMashup
// namespace.
func FindElement(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	if root.Tag == "DataMashup" {
		return root
	}
	return openxml.FindFirst(root, Namespace, "DataMashup")
}

// DecodeText decodes base64 DataMashup text. Whitespace anywhere in the
// payload is ignored.
func DecodeText(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("could not decode DataMashup base64: %w", err)
	}
	return data, nil
}

type customPart struct {
	doc      *etree.Document
	element  *etree.Element
	encoding openxml.Encoding
}

func parseCustomPart(data []byte) (*customPart, error) {
	utf8Data, enc, err := openxml.DecodeToUTF8(data)
	if err != nil {
		return nil, err
	}
	doc, err := openxml.ParseDocument(utf8Data)
	if err != nil {
		return nil, err
	}
	return &customPart{doc: doc, element: FindElement(doc), encoding: enc}, nil
}

// serialize writes the part back in enc.
func (p *customPart) serialize(enc openxml.Encoding) ([]byte, error) {
	out, err := openxml.SerializeDocument(p.doc)
	if err != nil {
		return nil, err
	}
	return openxml.Encode(out, enc)
}

// RewriteWorkbook applies fn to every DataMashup stream found in the
// customXml parts of a workbook package, keeping each part's encoding. When
// textFn is set it post-processes the re-encoded base64 text. Elements with
// empty text are left alone. All other entries are copied unchanged.
func RewriteWorkbook(src []byte, fn StreamFunc, textFn TextFunc) ([]byte, error) {
	return rewriteCandidateParts(src, func(part *customPart) error {
		text := strings.TrimSpace(part.element.Text())
		if text == "" {
			return nil
		}
		stream, err := DecodeText(text)
		if err != nil {
			return err
		}
		updated, err := fn(stream)
		if err != nil {
			return err
		}
		encoded := base64.StdEncoding.EncodeToString(updated)
		if textFn != nil {
			encoded = textFn(encoded)
		}
		part.element.SetText(encoded)
		return nil
	}, keepEncoding)
}

// RewriteStreams is RewriteWorkbook over parsed envelopes.
func RewriteStreams(src []byte, fn func(*Stream) error) ([]byte, error) {
	return RewriteWorkbook(src, func(data []byte) ([]byte, error) {
		s, err := Split(data)
		if err != nil {
			return nil, err
		}
		if err := fn(s); err != nil {
			return nil, err
		}
		return s.Bytes(), nil
	}, nil)
}

// ExtractFromWorkbook returns the first non-empty DataMashup stream found in
// the customXml/item*.xml parts of a workbook package.
func ExtractFromWorkbook(src []byte) ([]byte, error) {
	entries, err := container.ReadAll(src)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name, ".xml") || !IsCandidatePart(e.Name, e.Data) {
			continue
		}
		part, err := parseCustomPart(e.Data)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", e.Name, err)
		}
		if part.element == nil {
			continue
		}
		text := strings.TrimSpace(part.element.Text())
		if text == "" {
			continue
		}
		return DecodeText(text)
	}
	return nil, fmt.Errorf("%w in xlsx", ErrNotFound)
}

// DuplicatePart copies customXml/item1.xml to customXml/item2.xml with a
// mirrored itemProps2.xml and item2.xml.rels, then registers the new part in
// [Content_Types].xml and xl/_rels/workbook.xml.rels.
func DuplicatePart(src []byte) ([]byte, error) {
	read := func(name string) ([]byte, error) {
		data, err := container.ReadEntry(src, name)
		if err != nil {
			return nil, fmt.Errorf("required DataMashup part missing: %w", err)
		}
		return data, nil
	}

	item1, err := read("customXml/item1.xml")
	if err != nil {
		return nil, err
	}
	itemProps1, err := read("customXml/itemProps1.xml")
	if err != nil {
		return nil, err
	}
	item1Rels, err := read("customXml/_rels/item1.xml.rels")
	if err != nil {
		return nil, err
	}
	contentTypes, err := read("[Content_Types].xml")
	if err != nil {
		return nil, err
	}
	workbookRels, err := read("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, err
	}

	contentTypes, err = openxml.EnsureOverride(contentTypes, "/customXml/itemProps2.xml", openxml.ContentTypeCustomXMLProperties)
	if err != nil {
		return nil, fmt.Errorf("could not update [Content_Types].xml: %w", err)
	}
	workbookRels, _, err = openxml.AddRelationship(workbookRels, openxml.RelTypeCustomXML, "../customXml/item2.xml")
	if err != nil {
		return nil, fmt.Errorf("could not update workbook relationships: %w", err)
	}
	item2Rels := bytes.ReplaceAll(item1Rels, []byte("itemProps1.xml"), []byte("itemProps2.xml"))
	itemProps2 := bytes.ReplaceAll(itemProps1, []byte(itemPropsGUID), []byte(duplicateItemPropsGUID))

	return container.Copy(src, container.Options{
		Replace: map[string][]byte{
			"[Content_Types].xml":        contentTypes,
			"xl/_rels/workbook.xml.rels": workbookRels,
		},
		Append: []container.Entry{
			container.Deflated("customXml/item2.xml", item1),
			container.Deflated("customXml/itemProps2.xml", itemProps2),
			container.Deflated("customXml/_rels/item2.xml.rels", item2Rels),
		},
	})
}

// DuplicateElement appends a deep copy of the DataMashup element next to the
// original. When the element is the document root, both copies are wrapped in
// a new root element carrying the original's namespace declarations.
func DuplicateElement(src []byte) ([]byte, error) {
	return rewriteCandidateParts(src, func(part *customPart) error {
		dm := part.element
		dup := dm.Copy()
		if dm != part.doc.Root() {
			dm.Parent().AddChild(dup)
			return nil
		}
		wrapper := etree.NewElement("root")
		for _, a := range dm.Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				wrapper.CreateAttr(a.FullKey(), a.Value)
			}
		}
		part.doc.SetRoot(wrapper)
		wrapper.AddChild(dm)
		wrapper.AddChild(dup)
		return nil
	}, keepEncoding)
}

// Reencode writes every DataMashup customXml part in enc. With whitespace set
// the base64 payload is split at its midpoint by newlines and indentation.
func Reencode(src []byte, enc openxml.Encoding, whitespace bool) ([]byte, error) {
	return rewriteCandidateParts(src, func(part *customPart) error {
		if text := part.element.Text(); whitespace && text != "" {
			part.element.SetText(WithWhitespace(text))
		}
		return nil
	}, func(*customPart) openxml.Encoding { return enc })
}

// WithWhitespace splits base64 text at its midpoint with newline-indent runs.
func WithWhitespace(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return text
	}
	mid := len(cleaned) / 2
	if mid < 1 {
		mid = 1
	}
	return "\n  " + cleaned[:mid] + "\n  " + cleaned[mid:] + "\n"
}

func keepEncoding(p *customPart) openxml.Encoding { return p.encoding }

// rewriteCandidateParts applies edit to every DataMashup customXml part and
// re-serializes it. It fails with ErrNotFound when no part has the element.
func rewriteCandidateParts(src []byte, edit func(*customPart) error, encodingFor func(*customPart) openxml.Encoding) ([]byte, error) {
	entries, err := container.ReadAll(src)
	if err != nil {
		return nil, err
	}

	replacements := make(map[string][]byte)
	for _, e := range entries {
		if !IsCandidatePart(e.Name, e.Data) {
			continue
		}
		part, err := parseCustomPart(e.Data)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", e.Name, err)
		}
		if part.element == nil {
			continue
		}
		if err := edit(part); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		out, err := part.serialize(encodingFor(part))
		if err != nil {
			return nil, fmt.Errorf("could not serialize %s: %w", e.Name, err)
		}
		replacements[e.Name] = out
	}
	if len(replacements) == 0 {
		return nil, fmt.Errorf("%w in customXml parts", ErrNotFound)
	}
	return container.CopyWithReplacements(src, replacements)
}
