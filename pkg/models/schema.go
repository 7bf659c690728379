package models

import (
	"sort"
)

// ColumnDescriptor describes a single column as reported by the database.
// Identity is (table, Name).
type ColumnDescriptor struct {
	Name         string  `json:"name"`
	DeclaredType string  `json:"declared_type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default,omitempty"`
}

// TableSchema is a table with its columns in declaration order.
type TableSchema struct {
	Name    string             `json:"name"`
	Columns []ColumnDescriptor `json:"columns"`
}

// HasColumn reports whether the table declares a column with the exact name.
func (t *TableSchema) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in declaration order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ForeignKeyEdge is a directed reference from one column to another.
// Several edges between the same pair of tables are allowed.
type ForeignKeyEdge struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// Connects reports whether the edge joins a.ac with b.bc in either direction.
func (e ForeignKeyEdge) Connects(a, ac, b, bc string) bool {
	if e.FromTable == a && e.FromColumn == ac && e.ToTable == b && e.ToColumn == bc {
		return true
	}
	return e.FromTable == b && e.FromColumn == bc && e.ToTable == a && e.ToColumn == ac
}

// SchemaSnapshot is a point-in-time capture of table, column and foreign key
// metadata. A snapshot is built per question and never cached.
type SchemaSnapshot struct {
	Tables map[string]*TableSchema `json:"tables"`
	Edges  []ForeignKeyEdge        `json:"edges"`
}

// NewSchemaSnapshot returns an empty snapshot ready for population.
func NewSchemaSnapshot() *SchemaSnapshot {
	return &SchemaSnapshot{
		Tables: make(map[string]*TableSchema),
	}
}

// IsEmpty reports whether the snapshot holds no tables. An empty snapshot
// means SQL cannot be generated.
func (s *SchemaSnapshot) IsEmpty() bool {
	return s == nil || len(s.Tables) == 0
}

// TableNames returns table names in lexicographic order. Alias assignment
// depends on this order being stable.
func (s *SchemaSnapshot) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns the named table, or nil.
func (s *SchemaSnapshot) Table(name string) *TableSchema {
	if s == nil {
		return nil
	}
	return s.Tables[name]
}

// HasTable reports whether the snapshot contains the table.
func (s *SchemaSnapshot) HasTable(name string) bool {
	return s.Table(name) != nil
}

// HasColumn reports whether table exists and declares column.
func (s *SchemaSnapshot) HasColumn(table, column string) bool {
	t := s.Table(table)
	return t != nil && t.HasColumn(column)
}

// HasEdge reports whether any foreign key joins a.ac and b.bc, in either direction.
func (s *SchemaSnapshot) HasEdge(a, ac, b, bc string) bool {
	if s == nil {
		return false
	}
	for _, e := range s.Edges {
		if e.Connects(a, ac, b, bc) {
			return true
		}
	}
	return false
}

// AliasMap maps table names to short aliases used in prompts.
type AliasMap map[string]string

// Alias returns the alias for a table, falling back to the table name.
func (m AliasMap) Alias(table string) string {
	if a, ok := m[table]; ok {
		return a
	}
	return table
}

// Table returns the table that owns alias, if any.
func (m AliasMap) Table(alias string) (string, bool) {
	for table, a := range m {
		if a == alias {
			return table, true
		}
	}
	return "", false
}

// DatabaseStats holds coarse database statistics.
type DatabaseStats struct {
	Size       string `json:"size"`
	TableCount int    `json:"table_count"`
	TotalRows  int64  `json:"total_rows"`
}
