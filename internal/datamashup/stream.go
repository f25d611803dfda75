// Package datamashup parses and rebuilds the Power Query DataMashup envelope:
// a little-endian stream of a version word and four length-prefixed sections
// (PackageParts, Permissions, Metadata, Bindings). PackageParts is itself a
// ZIP holding Formulas/Section1.m, Config/Package.xml and [Content_Types].xml.
package datamashup

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrStreamTooShort is returned when a section header cannot be read.
	ErrStreamTooShort = errors.New("stream too short")
	// ErrInvalidLength is returned when a section extends past the stream.
	ErrInvalidLength = errors.New("invalid length")
	// ErrTrailingBytes is returned when bytes remain after the last section.
	ErrTrailingBytes = errors.New("trailing bytes mismatch")
)

// minStreamLen is the version word plus four empty section headers.
const minStreamLen = 4 + 4*4

// Stream is a decoded DataMashup envelope.
type Stream struct {
	Version      uint32
	PackageParts []byte
	Permissions  []byte
	Metadata     []byte
	Bindings     []byte
}

// Split decodes a DataMashup stream. The section lengths plus their headers
// must account for every byte.
func Split(data []byte) (*Stream, error) {
	if len(data) < minStreamLen {
		return nil, fmt.Errorf("DataMashup %w: %d bytes", ErrStreamTooShort, len(data))
	}

	s := &Stream{Version: binary.LittleEndian.Uint32(data)}
	offset := 4
	sections := []struct {
		name string
		dst  *[]byte
	}{
		{"PackageParts", &s.PackageParts},
		{"Permissions", &s.Permissions},
		{"Metadata", &s.Metadata},
		{"Bindings", &s.Bindings},
	}
	for _, sec := range sections {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("DataMashup %w: missing %s header", ErrStreamTooShort, sec.name)
		}
		n := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if n > len(data)-offset {
			return nil, fmt.Errorf("%w: %s section declares %d bytes, %d remain", ErrInvalidLength, sec.name, n, len(data)-offset)
		}
		*sec.dst = data[offset : offset+n]
		offset += n
	}
	if offset != len(data) {
		return nil, fmt.Errorf("DataMashup %w: %d bytes after Bindings", ErrTrailingBytes, len(data)-offset)
	}
	return s, nil
}

// Bytes re-assembles the stream with freshly computed length prefixes.
func (s *Stream) Bytes() []byte {
	return Assemble(s.Version, s.PackageParts, s.Permissions, s.Metadata, s.Bindings)
}

// Assemble emits version followed by each section as u32 length + payload.
func Assemble(version uint32, packageParts, permissions, metadata, bindings []byte) []byte {
	size := minStreamLen + len(packageParts) + len(permissions) + len(metadata) + len(bindings)
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, version)
	for _, sec := range [][]byte{packageParts, permissions, metadata, bindings} {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(sec)))
		out = append(out, sec...)
	}
	return out
}
