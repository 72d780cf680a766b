package params

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load parses one YAML parameter file into the store. Later files can
// override earlier paths.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read parameter file: %w", err)
	}
	return s.LoadBytes(data)
}

// LoadBytes parses YAML parameter definitions from memory.
func (s *Store) LoadBytes(data []byte) error {
	var raw map[string]Definition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse parameters: %w", err)
	}

	for path, def := range raw {
		def.Path = path
		s.Add(def)
	}
	return nil
}

// LoadDir walks a directory and loads every .yaml and .yml file, in
// lexical walk order so overrides are deterministic.
func (s *Store) LoadDir(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			if err := s.Load(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load parameter dir %s: %w", dir, err)
	}
	return nil
}
