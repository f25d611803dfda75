package openxml

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names the byte encoding of a serialized XML part.
type Encoding string

const (
	UTF8    Encoding = "utf-8"
	UTF16LE Encoding = "utf-16-le"
	UTF16BE Encoding = "utf-16-be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}

	declRe     = regexp.MustCompile(`^\s*<\?xml[^?]*\?>`)
	declEncRe  = regexp.MustCompile(`encoding\s*=\s*["'][^"']*["']`)
	declTailRe = regexp.MustCompile(`\s*\?>$`)
)

// ParseEncoding accepts the manifest spellings of an encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "utf-16-le", "utf-16le", "utf16le":
		return UTF16LE, nil
	case "utf-16-be", "utf-16be", "utf16be":
		return UTF16BE, nil
	}
	return "", fmt.Errorf("unsupported encoding %q (expected utf-8, utf-16-le or utf-16-be)", s)
}

// Encode re-encodes a UTF-8 XML document. For UTF-16 the declaration is
// rewritten to encoding="UTF-16" and the output starts with a byte-order mark.
func Encode(xmlUTF8 []byte, enc Encoding) ([]byte, error) {
	var (
		endian unicode.Endianness
		bom    []byte
	)
	switch enc {
	case UTF8:
		return xmlUTF8, nil
	case UTF16LE:
		endian, bom = unicode.LittleEndian, bomUTF16LE
	case UTF16BE:
		endian, bom = unicode.BigEndian, bomUTF16BE
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}

	text := RewriteDeclarationEncoding(bytes.TrimPrefix(xmlUTF8, bomUTF8), "UTF-16")
	out, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewEncoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("could not encode XML as %s: %w", enc, err)
	}
	return append(append([]byte{}, bom...), out...), nil
}

// DecodeToUTF8 detects a byte-order mark and returns the document as UTF-8
// with its declaration rewritten to match. Input without a UTF-16 BOM is
// treated as UTF-8; a UTF-8 BOM is stripped.
func DecodeToUTF8(data []byte) ([]byte, Encoding, error) {
	var endian unicode.Endianness
	var enc Encoding
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		endian, enc = unicode.LittleEndian, UTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		endian, enc = unicode.BigEndian, UTF16BE
	default:
		return bytes.TrimPrefix(data, bomUTF8), UTF8, nil
	}

	out, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder().Bytes(data[2:])
	if err != nil {
		return nil, "", fmt.Errorf("could not decode %s XML: %w", enc, err)
	}
	return RewriteDeclarationEncoding(out, "UTF-8"), enc, nil
}

// RewriteDeclarationEncoding sets the encoding pseudo-attribute of the XML
// declaration to label, inserting a declaration when there is none.
func RewriteDeclarationEncoding(doc []byte, label string) []byte {
	attr := `encoding="` + label + `"`
	loc := declRe.FindIndex(doc)
	if loc == nil {
		return append([]byte(`<?xml version="1.0" `+attr+`?>`), doc...)
	}

	decl := doc[loc[0]:loc[1]]
	var rewritten []byte
	if declEncRe.Match(decl) {
		rewritten = declEncRe.ReplaceAllLiteral(decl, []byte(attr))
	} else {
		rewritten = declTailRe.ReplaceAllLiteral(decl, []byte(" "+attr+"?>"))
	}

	out := make([]byte, 0, len(doc)+len(attr))
	out = append(out, doc[:loc[0]]...)
	out = append(out, rewritten...)
	return append(out, doc[loc[1]:]...)
}
