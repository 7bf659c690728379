package datasource

// TableMetadata is one user table of the configured schema.
type TableMetadata struct {
	SchemaName string
	TableName  string
	RowCount   int64 // planner estimate, zero when the dialect has none
}

// ColumnMetadata is one column as the catalog declares it.
type ColumnMetadata struct {
	ColumnName      string
	DataType        string
	IsNullable      bool
	IsPrimaryKey    bool
	OrdinalPosition int
	DefaultValue    *string
}

// ForeignKeyMetadata is a single-column reference from Source to Target.
// Composite keys are reported one column pair per value.
type ForeignKeyMetadata struct {
	ConstraintName string
	SourceSchema   string
	SourceTable    string
	SourceColumn   string
	TargetSchema   string
	TargetTable    string
	TargetColumn   string
}
