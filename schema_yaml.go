package sigil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Schema is a loadable document of marker definitions.
type Schema struct {
	Markers []Marker `yaml:"markers" json:"markers"`
}

// LoadSchemaFile loads a schema document from a YAML file.
func LoadSchemaFile(path string) (*Schema, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer file.Close()

	s, err := LoadSchema(file)
	if err != nil {
		return nil, err
	}

	Logger.Schema.Emit(context.Background(), SCHEMA_LOADED, "schema file loaded", SchemaEvent{
		Timestamp: time.Now(),
		Source:    path,
		Markers:   len(s.Markers),
	})
	return s, nil
}

// LoadSchemaDir loads all YAML schema documents from a directory.
func LoadSchemaDir(dir string) ([]Schema, error) {
	schemas := make([]Schema, 0)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		s, err := LoadSchemaFile(path)
		if err != nil {
			// Log but continue with other files
			Logger.Schema.Emit(context.Background(), SCHEMA_INVALID, "schema file skipped", SchemaEvent{
				Timestamp: time.Now(),
				Source:    path,
				Error:     err.Error(),
			})
			continue
		}

		schemas = append(schemas, *s)
	}

	return schemas, nil
}

// LoadSchema loads a schema document from a reader.
func LoadSchema(r io.Reader) (*Schema, error) {
	var s Schema

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	// Validate the loaded schema
	if err := ValidateSchema(&s); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &s, nil
}

// ValidateSchema checks that a schema document is well-formed: at least one
// marker, unique marker names, and each definition valid on its own.
// Defaults are normalized in place.
func ValidateSchema(s *Schema) error {
	if len(s.Markers) == 0 {
		return fmt.Errorf("schema must define at least one marker")
	}

	seen := make(map[string]bool, len(s.Markers))
	for i := range s.Markers {
		m := &s.Markers[i]
		if seen[m.Name] {
			return fmt.Errorf("duplicate marker %q in schema", m.Name)
		}
		seen[m.Name] = true

		if err := validateMarker(m); err != nil {
			return err
		}
	}

	return nil
}

// MarshalSchema converts a schema document to YAML.
func MarshalSchema(s Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

// DefineSchema registers every marker in the schema document on the engine.
// Definitions are applied in order; the first failure stops registration.
func (e *Engine) DefineSchema(s Schema) error {
	for _, m := range s.Markers {
		if err := e.Define(m); err != nil {
			return err
		}
	}
	return nil
}

// DefineSchema registers every marker in the schema document on the global
// engine.
func DefineSchema(s Schema) error {
	return instance.DefineSchema(s)
}
