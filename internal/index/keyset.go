package index

import (
	"fmt"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/pkg/types"
)

// KeyColumn pairs a key definition with the column it describes.
type KeyColumn struct {
	Name string
	Def  *KeyDefinition
}

// KeySet is the ordered list of key columns of one sorted index.
type KeySet struct {
	columns []KeyColumn
}

// NewKeySet creates a key set. The slice is copied.
func NewKeySet(columns []KeyColumn) *KeySet {
	cp := make([]KeyColumn, len(columns))
	copy(cp, columns)
	return &KeySet{columns: cp}
}

// Len returns the number of key columns.
func (s *KeySet) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the key columns in index order.
func (s *KeySet) Columns() []KeyColumn {
	cp := make([]KeyColumn, len(s.columns))
	copy(cp, s.columns)
	return cp
}

// Column returns the i-th key column.
func (s *KeySet) Column(i int) KeyColumn {
	return s.columns[i]
}

// ValidateRow checks a composite key against the set, column by column.
// It returns a validation error naming the first column whose key type does
// not match.
func (s *KeySet) ValidateRow(keys []types.IndexKey) error {
	if len(keys) != len(s.columns) {
		return arkerrors.NewValidationError(arkerrors.CodeKeyCount,
			fmt.Sprintf("index: expected %d keys, got %d", len(s.columns), len(keys)))
	}

	for i, key := range keys {
		col := s.columns[i]
		if !col.Def.Validate(key) {
			return arkerrors.NewValidationError(arkerrors.CodeKeyTypeMismatch,
				fmt.Sprintf("index: column %q expects %s, got %s", col.Name, col.Def.Type(), key.Type())).
				WithDetails(map[string]interface{}{
					"column":   col.Name,
					"position": i,
					"expected": col.Def.Type().String(),
					"actual":   key.Type().String(),
				})
		}
	}
	return nil
}
