package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlPackFile is the top-level YAML structure for pack files.
type yamlPackFile struct {
	Pack yamlPack `yaml:"pack"`
}

// yamlPack is the YAML representation of a location pack.
type yamlPack struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Locations   []string `yaml:"locations"`
}

// LoadPackFromFile reads and validates a single pack YAML file.
//
// Precondition: path must point to a valid YAML pack file.
// Postcondition: Returns a validated Pack or a non-nil error.
func LoadPackFromFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pack file %s: %w", path, err)
	}
	return LoadPackFromBytes(data)
}

// LoadPackFromBytes parses and validates a pack from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the pack schema.
// Postcondition: Returns a validated Pack or a non-nil error.
func LoadPackFromBytes(data []byte) (*Pack, error) {
	var file yamlPackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing pack YAML: %w", err)
	}

	p := &Pack{
		ID:          file.Pack.ID,
		Name:        file.Pack.Name,
		Description: file.Pack.Description,
		Locations:   file.Pack.Locations,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating pack: %w", err)
	}
	return p, nil
}

// LoadPacksFromDir loads all YAML files in a directory as packs, sorted by
// file name so catalog order is deterministic.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated packs or the first error encountered.
func LoadPacksFromDir(dir string) ([]*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pack directory %s: %w", dir, err)
	}

	var packs []*Pack
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		p, err := LoadPackFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading pack from %s: %w", name, err)
		}
		packs = append(packs, p)
	}

	if len(packs) == 0 {
		return nil, fmt.Errorf("no pack files found in %s", dir)
	}

	return packs, nil
}
