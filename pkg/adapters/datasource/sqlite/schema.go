package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dustin/go-humanize"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

// SQLite has a single schema per attached file.
const schemaName = "main"

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int     `db:"id"`
	Seq      int     `db:"seq"`
	Table    string  `db:"table"`
	From     string  `db:"from"`
	To       *string `db:"to"`
	OnUpdate string  `db:"on_update"`
	OnDelete string  `db:"on_delete"`
	Match    string  `db:"match"`
}

// DiscoverTables returns user tables ordered by name.
func (a *Adapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := a.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables := make([]datasource.TableMetadata, len(names))
	for i, name := range names {
		tables[i] = datasource.TableMetadata{SchemaName: schemaName, TableName: name}
	}
	return tables, nil
}

// DiscoverColumns returns columns for a table via PRAGMA table_info.
func (a *Adapter) DiscoverColumns(ctx context.Context, tableName string) ([]datasource.ColumnMetadata, error) {
	var rows []tableInfoRow
	query := fmt.Sprintf("PRAGMA table_info(%s)", a.QuoteIdentifier(tableName))
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("table_info for %q: %w", tableName, err)
	}

	columns := make([]datasource.ColumnMetadata, 0, len(rows))
	for _, r := range rows {
		isPK := r.PK > 0
		columns = append(columns, datasource.ColumnMetadata{
			ColumnName:      r.Name,
			DataType:        r.Type,
			IsNullable:      r.NotNull == 0 && !isPK,
			IsPrimaryKey:    isPK,
			OrdinalPosition: r.CID + 1,
			DefaultValue:    r.Default,
		})
	}
	return columns, nil
}

// DiscoverForeignKeys walks PRAGMA foreign_key_list for every table.
// A reference without an explicit column targets the parent's primary key.
func (a *Adapter) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	tables, err := a.DiscoverTables(ctx)
	if err != nil {
		return nil, err
	}

	var fks []datasource.ForeignKeyMetadata
	for _, t := range tables {
		var rows []foreignKeyRow
		query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", a.QuoteIdentifier(t.TableName))
		if err := a.db.SelectContext(ctx, &rows, query); err != nil {
			return nil, fmt.Errorf("foreign_key_list for %q: %w", t.TableName, err)
		}

		for _, r := range rows {
			target := ""
			if r.To != nil {
				target = *r.To
			} else if target, err = a.primaryKeyColumn(ctx, r.Table); err != nil {
				return nil, err
			}
			fks = append(fks, datasource.ForeignKeyMetadata{
				ConstraintName: fmt.Sprintf("fk_%s_%s", t.TableName, r.From),
				SourceSchema:   schemaName,
				SourceTable:    t.TableName,
				SourceColumn:   r.From,
				TargetSchema:   schemaName,
				TargetTable:    r.Table,
				TargetColumn:   target,
			})
		}
	}
	return fks, nil
}

func (a *Adapter) primaryKeyColumn(ctx context.Context, tableName string) (string, error) {
	columns, err := a.DiscoverColumns(ctx, tableName)
	if err != nil {
		return "", err
	}
	for _, c := range columns {
		if c.IsPrimaryKey {
			return c.ColumnName, nil
		}
	}
	return "rowid", nil
}

// DatabaseSize reports page_count * page_size.
func (a *Adapter) DatabaseSize(ctx context.Context) (string, error) {
	var pageCount, pageSize uint64
	if err := a.db.GetContext(ctx, &pageCount, "PRAGMA page_count"); err != nil {
		return "", fmt.Errorf("query page count: %w", err)
	}
	if err := a.db.GetContext(ctx, &pageSize, "PRAGMA page_size"); err != nil {
		return "", fmt.Errorf("query page size: %w", err)
	}
	return humanize.IBytes(pageCount * pageSize), nil
}

// CountRows returns an exact COUNT(*) for a table.
func (a *Adapter) CountRows(ctx context.Context, tableName string) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(a.QuoteIdentifier(tableName)).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := a.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", tableName, err)
	}
	return count, nil
}
