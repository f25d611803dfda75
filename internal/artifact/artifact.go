// Package artifact writes generated files so that a failed scenario never
// leaves a partial output behind.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is one named output and its final bytes.
type File struct {
	Name string
	Data []byte
}

// WriteFile writes data to path through a temp file in the same directory and
// renames it into place.
func WriteFile(path string, data []byte) error {
	tmpName, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// Commit writes every file into dir. All temps are written before any rename,
// so a write failure leaves none of the outputs in place.
func Commit(dir string, files []File) error {
	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}

	for _, f := range files {
		tmp, err := writeTemp(filepath.Join(dir, f.Name), f.Data)
		if err != nil {
			cleanup()
			return err
		}
		temps = append(temps, tmp)
	}

	for i, f := range files {
		if err := os.Rename(temps[i], filepath.Join(dir, f.Name)); err != nil {
			for j := 0; j < i; j++ {
				_ = os.Remove(filepath.Join(dir, files[j].Name))
			}
			cleanup()
			return fmt.Errorf("could not write %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("could not create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}
	return tmpName, nil
}
