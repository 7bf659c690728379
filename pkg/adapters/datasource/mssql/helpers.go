package mssql

import (
	"database/sql"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

// quoteName brackets an identifier the way QUOTENAME() does, doubling ].
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// buildFullyQualifiedName returns [schema].[table].
func buildFullyQualifiedName(schema, table string) string {
	return quoteName(schema) + "." + quoteName(table)
}

// portableTypes maps SQL Server type names onto the names the other
// dialects report, so prompts read the same across databases.
var portableTypes = map[string]string{
	"INT":              "INTEGER",
	"DECIMAL":          "NUMERIC",
	"SMALLMONEY":       "MONEY",
	"FLOAT":            "DOUBLE PRECISION",
	"NCHAR":            "CHAR",
	"NVARCHAR":         "VARCHAR",
	"NTEXT":            "TEXT",
	"BINARY":           "BYTEA",
	"VARBINARY":        "BYTEA",
	"IMAGE":            "BLOB",
	"DATETIME":         "TIMESTAMP",
	"DATETIME2":        "TIMESTAMP",
	"SMALLDATETIME":    "TIMESTAMP",
	"DATETIMEOFFSET":   "TIMESTAMP WITH TIME ZONE",
	"BIT":              "BOOLEAN",
	"UNIQUEIDENTIFIER": "UUID",
}

func mapSQLServerType(name string) string {
	upper := strings.ToUpper(name)
	if mapped, ok := portableTypes[upper]; ok {
		return mapped
	}
	return upper
}

func isTextType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

// normalizeValue turns driver byte slices into strings where the column
// type says they are text. uniqueidentifier arrives as 16 mixed-endian bytes.
func normalizeValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if len(b) == 16 && strings.EqualFold(dbType, "UNIQUEIDENTIFIER") {
		var id mssqldb.UniqueIdentifier
		if id.Scan(b) == nil {
			return id.String()
		}
	}
	if dbType == "" || isTextType(dbType) {
		return string(b)
	}
	return b
}

// scanRows drains rows through scan and closes them.
func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// readResult converts a result cursor into column descriptors and row maps.
func readResult(rows *sql.Rows) (*datasource.QueryExecutionResult, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}

	result := &datasource.QueryExecutionResult{
		Columns: make([]datasource.ColumnInfo, len(types)),
		Rows:    []map[string]any{},
	}
	for i, ct := range types {
		result.Columns[i] = datasource.ColumnInfo{Name: ct.Name(), Type: mapSQLServerType(ct.DatabaseTypeName())}
	}

	result.Rows, err = scanRows(rows, func(r *sql.Rows) (map[string]any, error) {
		cells := make([]any, len(types))
		dest := make([]any, len(types))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := r.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(types))
		for i, ct := range types {
			row[ct.Name()] = normalizeValue(cells[i], ct.DatabaseTypeName())
		}
		return row, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Rows == nil {
		result.Rows = []map[string]any{}
	}
	result.RowCount = len(result.Rows)
	return result, nil
}
