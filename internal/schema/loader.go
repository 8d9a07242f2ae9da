// Package schema loads the table schemas whose sorted indexes a node serves
// and registers their key sets.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/internal/index"
	"github.com/arkilian/sortedkeys/pkg/types"
)

// maxIdentifierLength bounds table, column and index names.
const maxIdentifierLength = 128

// File is the on-disk layout of a schema file.
type File struct {
	Tables []types.Schema `json:"tables" yaml:"tables"`
}

// Load reads a YAML or JSON schema file and validates it.
func Load(path string) ([]types.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return Parse(data, "yaml")
	case ".json":
		return Parse(data, "json")
	default:
		return nil, fmt.Errorf("unsupported schema file format: %s", ext)
	}
}

// Parse decodes schema documents in the given format ("yaml" or "json").
func Parse(data []byte, format string) ([]types.Schema, error) {
	var f File
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, arkerrors.Wrap(arkerrors.ErrCategoryValidation, arkerrors.CodeInvalidSchema, "failed to parse YAML schema", err)
		}
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, arkerrors.Wrap(arkerrors.ErrCategoryValidation, arkerrors.CodeInvalidSchema, "failed to parse JSON schema", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format: %s", format)
	}

	if err := Validate(f.Tables); err != nil {
		return nil, err
	}
	return f.Tables, nil
}

// Validate checks names in the schemas. Index names must be unique across
// all tables since peers address key sets by index name alone.
func Validate(schemas []types.Schema) error {
	indexes := make(map[string]string)
	tables := make(map[string]bool)

	for _, s := range schemas {
		if !ValidIdentifier(s.Table) {
			return invalid("invalid table name %q", s.Table)
		}
		if tables[s.Table] {
			return invalid("duplicate table %q", s.Table)
		}
		tables[s.Table] = true

		columns := make(map[string]bool, len(s.Columns))
		for _, c := range s.Columns {
			if !ValidIdentifier(c.Name) {
				return invalid("table %q: invalid column name %q", s.Table, c.Name)
			}
			if columns[c.Name] {
				return invalid("table %q: duplicate column %q", s.Table, c.Name)
			}
			columns[c.Name] = true
		}

		for _, idx := range s.Indexes {
			if !ValidIdentifier(idx.Name) {
				return invalid("table %q: invalid index name %q", s.Table, idx.Name)
			}
			if other, ok := indexes[idx.Name]; ok {
				return invalid("index %q is defined on both %q and %q", idx.Name, other, s.Table)
			}
			indexes[idx.Name] = s.Table
		}
	}
	return nil
}

// ValidIdentifier reports whether name is usable as a table, column or
// index name: a letter or underscore followed by letters, digits or
// underscores.
func ValidIdentifier(name string) bool {
	if len(name) == 0 || len(name) > maxIdentifierLength {
		return false
	}
	first := name[0]
	if (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') && first != '_' {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// Register builds the key set of every index in schemas and registers it.
// Nothing is registered if any index fails to build.
func Register(schemas []types.Schema, registry *index.Registry) ([]string, error) {
	built := make(map[string]*index.KeySet)
	var names []string

	for i := range schemas {
		s := &schemas[i]
		for _, idx := range s.Indexes {
			set, err := index.BuildKeySet(s, idx.Name)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", s.Table, err)
			}
			built[idx.Name] = set
			names = append(names, idx.Name)
		}
	}

	for _, name := range names {
		registry.Register(name, built[name])
	}
	return names, nil
}

func invalid(format string, args ...interface{}) error {
	return arkerrors.NewValidationError(arkerrors.CodeInvalidSchema, "schema: "+fmt.Sprintf(format, args...))
}
