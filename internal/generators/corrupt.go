package generators

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/tabulensis/fixturegen/internal/artifact"
	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/formats/xlsx"
)

func newCorruptContainer(args Args, _ Env) (Generator, error) {
	a := newArgReader("corrupt_container", args)
	mode := a.Mode("mode", "no_content_types", "random_zip", "no_content_types", "not_zip_text")
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		var data []byte
		var err error
		switch mode {
		case "random_zip":
			data, err = container.Write([]container.Entry{
				container.Deflated("hello.txt", []byte("This is not excel")),
			})
		case "no_content_types":
			s := xlsx.Sheet{Name: "Sheet1", Rows: [][]any{{1}}}
			if data, err = book(s).Bytes(); err == nil {
				data, err = container.Remove(data, "[Content_Types].xml")
			}
		case "not_zip_text":
			data = []byte("This is not a zip container")
		}
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	}), nil
}

const (
	xlsbContentTypes = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="bin" ContentType="application/vnd.ms-excel.sheet.binary.macroEnabled.main" />` +
		`</Types>`
	xlsbRels = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

// newXLSBStub emits an OPC container whose only workbook part is a binary
// placeholder, enough for format detection.
func newXLSBStub(_ Args, _ Env) (Generator, error) {
	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		data, err := container.Write([]container.Entry{
			container.Deflated("[Content_Types].xml", []byte(xlsbContentTypes)),
			container.Deflated("_rels/.rels", []byte(xlsbRels)),
			container.Deflated("xl/workbook.bin", []byte("XLSB-STUB")),
		})
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	}), nil
}

// DefaultPadEntry is the entry zip_pad appends unless told otherwise.
const DefaultPadEntry = "xl/_tabulensis_padding.bin"

const defaultPadSeed = "tabulensis-zip-pad-v1"

func newZipPad(args Args, env Env) (Generator, error) {
	const name = "zip_pad"
	a := newArgReader(name, args)
	base := a.Required("base_file")
	a.Check(a.has("pad_bytes"), "%s generator requires 'pad_bytes' argument", name)
	padBytes := a.Positive("pad_bytes", 1)
	entry := strings.TrimSpace(a.String("entry_name", DefaultPadEntry))
	a.Check(entry != "", "%s generator arg 'entry_name' must be a non-empty string", name)
	seed := SeedFrom(a.Value("seed", defaultPadSeed))
	if err := a.Err(); err != nil {
		return nil, err
	}

	return GeneratorFunc(func(outputs []string) ([]artifact.File, error) {
		src, err := env.readFile(base)
		if err != nil {
			return nil, err
		}
		data, err := container.AppendStored(src, entry, PadBytes(padBytes, seed))
		if err != nil {
			return nil, err
		}
		return each(data, outputs), nil
	}), nil
}

// PadBytes returns n pseudo-random bytes determined by seed.
func PadBytes(n int, seed int64) []byte {
	buf := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(buf)
	return buf
}

// SeedFrom turns a seed argument into a PRNG seed. Integers are used as
// given; any other value is hashed as text with 64-bit FNV-1a.
func SeedFrom(v any) int64 {
	if n, ok := toInt(v); ok {
		if _, isString := v.(string); !isString {
			return int64(n)
		}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprint(v)))
	return int64(h.Sum64())
}
