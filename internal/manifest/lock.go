package manifest

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/tabulensis/fixturegen/internal/artifact"
)

// Checksum modes recorded per lock entry.
const (
	ModeZipEntries = "zip-entries-v1"
	ModeRaw        = "raw"
)

const normalizedTimestamp = "1970-01-01T00:00:00Z"

// Lock pins the checksum of every output a manifest produces.
type Lock struct {
	Algorithm string               `json:"algorithm"`
	Files     map[string]LockEntry `json:"files"`
	Manifest  string               `json:"manifest"`
	OutputDir string               `json:"output_dir"`
	Version   int                  `json:"version"`
}

// LockEntry is the checksum of one output.
type LockEntry struct {
	Hash string `json:"hash"`
	Mode string `json:"mode"`
}

// Checksum hashes the file at path. ZIP outputs hash their entries rather
// than the container bytes, with docProps/core.xml timestamps normalized.
func Checksum(path string) (hash, mode string, err error) {
	if isZipOutput(path) {
		sum, err := zipEntriesDigest(path)
		if err != nil {
			return "", "", err
		}
		return "sha256:" + sum, ModeZipEntries, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), ModeRaw, nil
}

func zipEntriesDigest(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%s is not a valid ZIP container: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "/") {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	h := sha256.New()
	for _, f := range files {
		data, err := readZipFile(f)
		if err != nil {
			return "", fmt.Errorf("could not read %s in %s: %w", f.Name, filepath.Base(path), err)
		}
		if f.Name == "docProps/core.xml" {
			data = normalizeCoreXML(data)
		}
		entry := sha256.Sum256(data)
		fmt.Fprintf(h, "%s\x00%s\n", f.Name, hex.EncodeToString(entry[:]))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// normalizeCoreXML pins created and modified timestamps. Unparseable input
// is returned unchanged.
func normalizeCoreXML(data []byte) []byte {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return data
	}
	root := doc.Root()
	if root == nil {
		return data
	}
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if strings.HasSuffix(e.Tag, "created") || strings.HasSuffix(e.Tag, "modified") {
			e.SetText(normalizedTimestamp)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	out, err := doc.WriteToBytes()
	if err != nil {
		return data
	}
	return out
}

// BuildLock checksums every output of m found in dir.
func BuildLock(m *Manifest, dir string) (*Lock, error) {
	lock := &Lock{
		Algorithm: "sha256",
		Files:     make(map[string]LockEntry),
		Manifest:  filepath.ToSlash(m.Path),
		OutputDir: filepath.ToSlash(dir),
		Version:   1,
	}
	for _, s := range m.Scenarios {
		for _, name := range s.Output {
			hash, mode, err := Checksum(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil {
				return nil, fmt.Errorf("could not checksum %s: %w", name, err)
			}
			lock.Files[name] = LockEntry{Hash: hash, Mode: mode}
		}
	}
	return lock, nil
}

// Bytes renders the lock as indented JSON with sorted keys and a trailing
// newline.
func (l *Lock) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLock verifies the outputs of m and writes their checksums to
// lockPath. Nothing is written when verification finds a problem.
func WriteLock(m *Manifest, dir, lockPath string) error {
	if problems := Verify(m, dir); len(problems) > 0 {
		return fmt.Errorf("cannot write lock file:\n  %s", strings.Join(problems, "\n  "))
	}
	lock, err := BuildLock(m, dir)
	if err != nil {
		return err
	}
	data, err := lock.Bytes()
	if err != nil {
		return fmt.Errorf("could not encode lock file: %w", err)
	}
	return artifact.WriteFile(lockPath, data)
}

// ReadLock parses a lock file.
func ReadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

// VerifyLock compares the outputs of m in dir against lockPath and returns
// one message per discrepancy.
func VerifyLock(m *Manifest, dir, lockPath string) []string {
	lock, err := ReadLock(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{fmt.Sprintf("Lock file not found: %s", lockPath)}
		}
		return []string{fmt.Sprintf("Failed to parse lock file %s: %v", lockPath, err)}
	}

	var problems []string
	if current := filepath.ToSlash(m.Path); lock.Manifest != "" && lock.Manifest != current {
		problems = append(problems, fmt.Sprintf("Lock file manifest mismatch: %s != %s", lock.Manifest, current))
	}

	declared := make(map[string]bool)
	var names []string
	for _, s := range m.Scenarios {
		for _, name := range s.Output {
			if !declared[name] {
				declared[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	var missing, extra []string
	for _, name := range names {
		if _, ok := lock.Files[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range lock.Files {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("Lock file is missing entries for: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		problems = append(problems, fmt.Sprintf("Lock file has extra entries not in manifest: %s", strings.Join(extra, ", ")))
	}

	for _, name := range names {
		entry, ok := lock.Files[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(name))
		if _, err := os.Stat(p); err != nil {
			problems = append(problems, fmt.Sprintf("Missing output: %s", name))
			continue
		}
		hash, mode, err := Checksum(p)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if entry.Mode != mode {
			problems = append(problems, fmt.Sprintf("Checksum mode mismatch for %s: expected %s, got %s", name, entry.Mode, mode))
			continue
		}
		if entry.Hash != hash {
			problems = append(problems, fmt.Sprintf("Checksum mismatch for %s: expected %s, got %s", name, entry.Hash, hash))
		}
	}
	return problems
}
