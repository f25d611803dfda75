// Package container reads and rewrites ZIP packages (xlsx, pbix, inner
// DataMashup packages) while keeping entry order, compression method and
// timestamps under explicit control.
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"
	"time"

	"github.com/tabulensis/fixturegen/internal/artifact"
)

// Epoch is the fixed timestamp stamped on appended and normalized entries.
var Epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// MS-DOS encoding of Epoch: date (year-1980)<<9 | month<<5 | day, time 0.
const (
	epochDate uint16 = 1<<5 | 1
	epochTime uint16 = 0
	zipVersion20     = 20
)

// ErrEntryNotFound is returned when a named entry is absent from a package.
var ErrEntryNotFound = errors.New("entry not found")

// Entry is a single named payload destined for a package.
type Entry struct {
	Name   string
	Method uint16
	Data   []byte
}

// Deflated returns an entry compressed with Deflate.
func Deflated(name string, data []byte) Entry {
	return Entry{Name: name, Method: zip.Deflate, Data: data}
}

// Stored returns an uncompressed entry.
func Stored(name string, data []byte) Entry {
	return Entry{Name: name, Method: zip.Store, Data: data}
}

// Options describes a copy of a package with selected edits.
type Options struct {
	// Replace maps entry names to replacement bytes. The original method and
	// timestamps are kept.
	Replace map[string][]byte
	// Remove drops entries by name.
	Remove map[string]bool
	// Append adds entries after all source entries, stamped with Epoch.
	Append []Entry
}

// Open parses data as a ZIP archive.
func Open(data []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip container: %w", err)
	}
	return r, nil
}

// Names lists entry names in declared order. Duplicates are reported as-is.
func Names(data []byte) ([]string, error) {
	r, err := Open(data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// ReadEntry returns the decompressed bytes of the first entry called name.
func ReadEntry(data []byte, name string) ([]byte, error) {
	r, err := Open(data)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name == name {
			return readFile(f)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

// ReadAll returns every entry in declared order with its decompressed bytes.
func ReadAll(data []byte) ([]Entry, error) {
	r, err := Open(data)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		content, err := readFile(f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: f.Name, Method: f.Method, Data: content})
	}
	return entries, nil
}

// Copy rewrites src according to opts. Untouched entries are copied raw, so
// their compressed bytes, headers and extra fields survive unchanged.
func Copy(src []byte, opts Options) ([]byte, error) {
	r, err := Open(src)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, f := range r.File {
		if opts.Remove[f.Name] {
			continue
		}

		content, ok := opts.Replace[f.Name]
		if !ok {
			if err := w.Copy(f); err != nil {
				return nil, fmt.Errorf("could not copy %s: %w", f.Name, err)
			}
			continue
		}

		header := &zip.FileHeader{
			Name:           f.Name,
			Method:         f.Method,
			ModifiedDate:   f.ModifiedDate,
			ModifiedTime:   f.ModifiedTime,
			CreatorVersion: f.CreatorVersion,
			ExternalAttrs:  f.ExternalAttrs,
		}
		if err := writeEntry(w, header, content); err != nil {
			return nil, err
		}
	}

	for _, e := range opts.Append {
		if err := writeEntry(w, epochHeader(e), e.Data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// CopyWithReplacements copies src, substituting the bytes of every entry named
// in replacements.
func CopyWithReplacements(src []byte, replacements map[string][]byte) ([]byte, error) {
	return Copy(src, Options{Replace: replacements})
}

// CopyFileWithReplacements is CopyWithReplacements over files on disk.
func CopyFileWithReplacements(srcPath, dstPath string, replacements map[string][]byte) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", srcPath, err)
	}
	out, err := CopyWithReplacements(src, replacements)
	if err != nil {
		return fmt.Errorf("could not rewrite %s: %w", srcPath, err)
	}
	return artifact.WriteFile(dstPath, out)
}

// Remove copies src without the named entries.
func Remove(src []byte, names ...string) ([]byte, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	return Copy(src, Options{Remove: drop})
}

// Append copies src and adds entries at the end.
func Append(src []byte, entries ...Entry) ([]byte, error) {
	return Copy(src, Options{Append: entries})
}

// AppendStored appends one uncompressed entry with the Epoch timestamp.
func AppendStored(src []byte, name string, data []byte) ([]byte, error) {
	return Append(src, Stored(name, data))
}

// AppendStoredEntry appends one uncompressed entry to the package at path,
// replacing the file atomically.
func AppendStoredEntry(path, name string, data []byte) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	out, err := AppendStored(src, name, data)
	if err != nil {
		return fmt.Errorf("could not append %s to %s: %w", name, path, err)
	}
	return artifact.WriteFile(path, out)
}

// Write builds a new package from entries in the given order, stamped with Epoch.
func Write(entries []Entry) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, e := range entries {
		if err := writeEntry(w, epochHeader(e), e.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize rewrites a freshly authored package so that its bytes depend only
// on entry contents: [Content_Types].xml first, remaining entries sorted by
// name, Deflate compression, Epoch timestamps, no extra fields.
func Normalize(src []byte) ([]byte, error) {
	entries, err := ReadAll(src)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Name, entries[j].Name
		if a == "[Content_Types].xml" || b == "[Content_Types].xml" {
			return a == "[Content_Types].xml" && b != a
		}
		return a < b
	})
	for i := range entries {
		entries[i].Method = zip.Deflate
	}
	return Write(entries)
}

func epochHeader(e Entry) *zip.FileHeader {
	return &zip.FileHeader{
		Name:         e.Name,
		Method:       e.Method,
		ModifiedDate: epochDate,
		ModifiedTime: epochTime,
	}
}

func writeEntry(w *zip.Writer, header *zip.FileHeader, content []byte) error {
	if header.Method == zip.Store {
		// Raw stored entries carry CRC and sizes up front, no data descriptor.
		header.CRC32 = crc32.ChecksumIEEE(content)
		header.CompressedSize64 = uint64(len(content))
		header.UncompressedSize64 = uint64(len(content))
		header.ReaderVersion = zipVersion20
		if header.CreatorVersion == 0 {
			header.CreatorVersion = zipVersion20
		}
		fw, err := w.CreateRaw(header)
		if err != nil {
			return fmt.Errorf("could not create %s in output: %w", header.Name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("could not write %s: %w", header.Name, err)
		}
		return nil
	}

	fw, err := w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("could not create %s in output: %w", header.Name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("could not write %s: %w", header.Name, err)
	}
	return nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open %s in archive: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", f.Name, err)
	}
	return content, nil
}
