package manifest

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ZipExtensions are the output extensions expected to be ZIP containers.
var ZipExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".pbix": true,
	".pbit": true,
	".zip":  true,
}

func isZipOutput(name string) bool {
	return ZipExtensions[strings.ToLower(filepath.Ext(name))]
}

// Verify checks that every output m declares exists in dir and that ZIP
// outputs open as containers. It returns one message per problem.
func Verify(m *Manifest, dir string) []string {
	var problems []string
	for _, s := range m.Scenarios {
		noContentTypes := s.Generator == "corrupt_container" && fmt.Sprint(s.Args["mode"]) == "no_content_types"
		for _, name := range s.Output {
			p := filepath.Join(dir, filepath.FromSlash(name))
			if _, err := os.Stat(p); err != nil {
				problems = append(problems, fmt.Sprintf("Missing output: %s", name))
				continue
			}
			if !isZipOutput(name) {
				continue
			}
			entries, err := zipEntryNames(p)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s is not a valid ZIP container", name))
				continue
			}
			ext := strings.ToLower(filepath.Ext(name))
			if (ext == ".xlsx" || ext == ".xlsm") && !noContentTypes && !entries["[Content_Types].xml"] {
				problems = append(problems, fmt.Sprintf("%s is missing [Content_Types].xml", name))
			}
		}
	}
	return problems
}

func zipEntryNames(path string) (map[string]bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	return names, nil
}
