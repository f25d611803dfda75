package datamashup

import (
	"fmt"
	"strings"

	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

// Well-known PackageParts entries.
const (
	PartSection1     = "Formulas/Section1.m"
	PartPackageXML   = "Config/Package.xml"
	PartContentTypes = "[Content_Types].xml"
)

// DefaultEmbeddedGUID names the embedded package when none is given.
const DefaultEmbeddedGUID = "{11111111-2222-3333-4444-555555555555}"

// DefaultEmbeddedSection is the M code of the default embedded package.
const DefaultEmbeddedSection = "section Section1;\n\nshared Inner = let\n    Source = 1\nin\n    Source;"

const packageContentType = "application/octet-stream"

// EmbeddedPath is the PackageParts entry holding the embedded package guid.
func EmbeddedPath(guid string) string {
	return "Content/" + guid + ".package"
}

// ReadInnerPart returns one entry of a PackageParts ZIP.
func ReadInnerPart(packageParts []byte, path string) ([]byte, error) {
	data, err := container.ReadEntry(packageParts, path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s from PackageParts: %w", path, err)
	}
	return data, nil
}

// RewriteInnerPackage replaces one entry of a PackageParts ZIP in place. All
// other entries are copied unchanged. The entry must already exist.
func RewriteInnerPackage(packageParts []byte, path string, content []byte) ([]byte, error) {
	if _, err := ReadInnerPart(packageParts, path); err != nil {
		return nil, err
	}
	out, err := container.CopyWithReplacements(packageParts, map[string][]byte{path: content})
	if err != nil {
		return nil, fmt.Errorf("could not rewrite PackageParts: %w", err)
	}
	return out, nil
}

// ReplaceSection sets the M code of Formulas/Section1.m.
func ReplaceSection(packageParts []byte, mCode string) ([]byte, error) {
	return RewriteInnerPackage(packageParts, PartSection1, []byte(mCode))
}

// ExtendSection appends a shared EmbeddedQuery that loads the embedded
// package guid to an existing section document.
func ExtendSection(section, guid string) string {
	lines := []string{
		strings.TrimRight(section, " \t\r\n"),
		"",
		"shared EmbeddedQuery = let",
		`    Source = Embedded.Value("` + EmbeddedPath(guid) + `")`,
		"in",
		"    Source;",
	}
	return strings.Join(lines, "\n")
}

// BuildEmbeddedPackage returns a minimal package ZIP holding a content-types
// part (derived from contentTypes, with the package extension registered)
// and Formulas/Section1.m.
func BuildEmbeddedPackage(section string, contentTypes []byte) ([]byte, error) {
	ct, err := openxml.EnsureDefault(contentTypes, "package", packageContentType)
	if err != nil {
		return nil, fmt.Errorf("could not update embedded content types: %w", err)
	}
	return container.Write([]container.Entry{
		container.Deflated(PartContentTypes, ct),
		container.Deflated(PartSection1, []byte(section)),
	})
}

// AddEmbeddedPackage extends Section1.m with an EmbeddedQuery over a new
// Content/{guid}.package entry, registers the package extension in the inner
// content types, and appends the embedded package built from section.
func AddEmbeddedPackage(packageParts []byte, guid, section string) ([]byte, error) {
	contentTypes, err := ReadInnerPart(packageParts, PartContentTypes)
	if err != nil {
		return nil, err
	}
	mainSection, err := ReadInnerPart(packageParts, PartSection1)
	if err != nil {
		return nil, err
	}
	if _, err := ReadInnerPart(packageParts, PartPackageXML); err != nil {
		return nil, err
	}

	embedded, err := BuildEmbeddedPackage(section, contentTypes)
	if err != nil {
		return nil, err
	}
	updatedTypes, err := openxml.EnsureDefault(contentTypes, "package", packageContentType)
	if err != nil {
		return nil, fmt.Errorf("could not update PackageParts content types: %w", err)
	}

	out, err := container.Copy(packageParts, container.Options{
		Replace: map[string][]byte{
			PartContentTypes: updatedTypes,
			PartSection1:     []byte(ExtendSection(string(mainSection), guid)),
		},
		Append: []container.Entry{container.Deflated(EmbeddedPath(guid), embedded)},
	})
	if err != nil {
		return nil, fmt.Errorf("could not rewrite PackageParts: %w", err)
	}
	return out, nil
}
