package types

// Schema declares the columns of a table and the sorted indexes built on it.
type Schema struct {
	// Table is the table (cache) name
	Table string `json:"table" yaml:"table"`

	// Columns defines the columns in the schema
	Columns []ColumnDef `json:"columns" yaml:"columns"`

	// Indexes defines the sorted indexes on the table
	Indexes []IndexDef `json:"indexes" yaml:"indexes"`
}

// ColumnDef defines a single column in the schema.
type ColumnDef struct {
	// Name is the column name
	Name string `json:"name" yaml:"name"`

	// Type is the SQL type name, optionally with a length: INTEGER, BIGINT, VARCHAR(64), UUID...
	Type string `json:"type" yaml:"type"`

	// Nullable indicates whether the column can contain NULL values
	Nullable bool `json:"nullable" yaml:"nullable"`

	// Precision is the declared precision for variable length types.
	// Zero means "not declared"; very large values mean unbounded.
	Precision int64 `json:"precision,omitempty" yaml:"precision,omitempty"`
}

// IndexDef defines a sorted index on the table.
type IndexDef struct {
	// Name is the index name, unique within the cluster
	Name string `json:"name" yaml:"name"`

	// Columns lists the key columns in index order
	Columns []IndexColumn `json:"columns" yaml:"columns"`

	// Unique indicates whether the index enforces uniqueness
	Unique bool `json:"unique" yaml:"unique"`
}

// IndexColumn is one key column of an index together with its collation.
type IndexColumn struct {
	Name string `json:"name" yaml:"name"`
	Desc bool   `json:"desc,omitempty" yaml:"desc,omitempty"`

	// Nulls is "first", "last" or empty for the engine default
	Nulls string `json:"nulls,omitempty" yaml:"nulls,omitempty"`
}

// Column returns the column definition with the given name.
func (s *Schema) Column(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Index returns the index definition with the given name.
func (s *Schema) Index(name string) (IndexDef, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDef{}, false
}
