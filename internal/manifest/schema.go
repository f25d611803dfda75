// Package manifest loads fixture manifests and runs their scenarios through
// the generator registry.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabulensis/fixturegen/internal/generators"
)

// ErrConfig marks a manifest that cannot be loaded or that fails preflight.
var ErrConfig = errors.New("manifest configuration error")

// Manifest is a parsed manifest file.
type Manifest struct {
	// Path is the file the manifest was loaded from, as given.
	Path      string     `yaml:"-" json:"path,omitempty"`
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`
}

// Scenario is one generator invocation.
type Scenario struct {
	ID        string          `yaml:"id" json:"id"`
	Generator string          `yaml:"generator" json:"generator"`
	Args      generators.Args `yaml:"args,omitempty" json:"args,omitempty"`
	Output    Outputs         `yaml:"output" json:"output"`
}

// Label names the scenario in messages: its id, or its position when the id
// is missing.
func (s Scenario) Label(idx int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("index %d", idx)
}

// Outputs are the file names a scenario writes. In YAML it is either a single
// string or a list of strings.
type Outputs []string

// UnmarshalYAML accepts a scalar or a sequence.
func (o *Outputs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*o = nil
			return nil
		}
		*o = Outputs{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*o = list
		return nil
	}
	return fmt.Errorf("line %d: output must be a string or a list of strings", node.Line)
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: manifest file not found: %s: check that the path is correct", ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: could not read manifest file %s: %v", ErrConfig, path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse parses a manifest from YAML bytes. Scenario fields are checked by
// Preflight, not here.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: invalid manifest YAML: %v", ErrConfig, err)
	}
	return &m, nil
}

// OutputIndex maps every declared output name to the first scenario index
// that declares it.
func (m *Manifest) OutputIndex() map[string]int {
	idx := make(map[string]int)
	for i, s := range m.Scenarios {
		for _, name := range s.Output {
			if _, ok := idx[name]; !ok {
				idx[name] = i
			}
		}
	}
	return idx
}
