package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// Preview bounds.
const (
	DefaultPreviewRows = 10
	MaxPreviewRows     = 100
)

// SchemaService reads schema metadata and statistics from the datasource.
// Nothing is cached; every call goes to the database.
type SchemaService interface {
	// Snapshot builds a fresh SchemaSnapshot. An unreachable database or a
	// schema without tables fails with apperrors.ErrNoSchema.
	Snapshot(ctx context.Context) (*models.SchemaSnapshot, error)

	// Describe returns the snapshot with table aliases, for display.
	Describe(ctx context.Context) (*SchemaDescription, error)

	// Stats returns storage size, table count and total rows. Tables that
	// cannot be counted are skipped.
	Stats(ctx context.Context) (*models.DatabaseStats, error)

	// Preview returns the first rows of a known table.
	Preview(ctx context.Context, table string, limit int) (*models.ResultSet, error)

	// TestConnection verifies the datasource is reachable.
	TestConnection(ctx context.Context) error

	// Dialect names the SQL dialect of the datasource.
	Dialect() string
}

// SchemaDescription is a snapshot arranged for presentation.
type SchemaDescription struct {
	Dialect       string                  `json:"dialect"`
	Tables        []TableDescription      `json:"tables"`
	Relationships []models.ForeignKeyEdge `json:"relationships"`
}

// TableDescription is one table with its prompt alias.
type TableDescription struct {
	Name    string                    `json:"name"`
	Alias   string                    `json:"alias"`
	Columns []models.ColumnDescriptor `json:"columns"`
}

type schemaService struct {
	adapter datasource.Adapter
	logger  *zap.Logger
}

// NewSchemaService creates a schema service over an open adapter.
// The caller owns the adapter's lifecycle.
func NewSchemaService(adapter datasource.Adapter, logger *zap.Logger) SchemaService {
	return &schemaService{
		adapter: adapter,
		logger:  logger.Named("schema"),
	}
}

func (s *schemaService) Snapshot(ctx context.Context) (*models.SchemaSnapshot, error) {
	tables, err := s.adapter.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNoSchema, err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: database has no tables", apperrors.ErrNoSchema)
	}

	snapshot := models.NewSchemaSnapshot()
	for _, t := range tables {
		columns, err := s.adapter.DiscoverColumns(ctx, t.TableName)
		if err != nil {
			return nil, fmt.Errorf("%w: columns of %s: %w", apperrors.ErrNoSchema, t.TableName, err)
		}

		table := &models.TableSchema{
			Name:    t.TableName,
			Columns: make([]models.ColumnDescriptor, 0, len(columns)),
		}
		for _, c := range columns {
			table.Columns = append(table.Columns, models.ColumnDescriptor{
				Name:         c.ColumnName,
				DeclaredType: c.DataType,
				Nullable:     c.IsNullable,
				Default:      c.DefaultValue,
			})
		}
		snapshot.Tables[t.TableName] = table
	}

	// Relationships improve prompts but are not required to answer.
	fks, err := s.adapter.DiscoverForeignKeys(ctx)
	if err != nil {
		s.logger.Warn("Foreign key discovery failed, continuing without relationships", zap.Error(err))
	}
	for _, fk := range fks {
		if !snapshot.HasColumn(fk.SourceTable, fk.SourceColumn) || !snapshot.HasColumn(fk.TargetTable, fk.TargetColumn) {
			s.logger.Debug("Skipping foreign key outside snapshot",
				zap.String("constraint", fk.ConstraintName),
				zap.String("source_table", fk.SourceTable),
				zap.String("target_table", fk.TargetTable))
			continue
		}
		snapshot.Edges = append(snapshot.Edges, models.ForeignKeyEdge{
			FromTable:  fk.SourceTable,
			FromColumn: fk.SourceColumn,
			ToTable:    fk.TargetTable,
			ToColumn:   fk.TargetColumn,
		})
	}

	s.logger.Debug("Built schema snapshot",
		zap.Int("tables", len(snapshot.Tables)),
		zap.Int("relationships", len(snapshot.Edges)))

	return snapshot, nil
}

func (s *schemaService) Describe(ctx context.Context) (*SchemaDescription, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	names := snapshot.TableNames()
	aliases := AssignAliases(names)

	desc := &SchemaDescription{
		Dialect:       s.adapter.Dialect(),
		Tables:        make([]TableDescription, 0, len(names)),
		Relationships: snapshot.Edges,
	}
	if desc.Relationships == nil {
		desc.Relationships = []models.ForeignKeyEdge{}
	}
	for _, name := range names {
		desc.Tables = append(desc.Tables, TableDescription{
			Name:    name,
			Alias:   aliases.Alias(name),
			Columns: snapshot.Table(name).Columns,
		})
	}
	return desc, nil
}

func (s *schemaService) Stats(ctx context.Context) (*models.DatabaseStats, error) {
	tables, err := s.adapter.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	stats := &models.DatabaseStats{TableCount: len(tables)}

	size, err := s.adapter.DatabaseSize(ctx)
	if err != nil {
		s.logger.Warn("Failed to read database size", zap.Error(err))
		size = "unknown"
	}
	stats.Size = size

	for _, t := range tables {
		n, err := s.adapter.CountRows(ctx, t.TableName)
		if err != nil {
			s.logger.Warn("Could not count rows, skipping table",
				zap.String("table", t.TableName),
				zap.Error(err))
			continue
		}
		stats.TotalRows += n
	}

	return stats, nil
}

func (s *schemaService) Preview(ctx context.Context, table string, limit int) (*models.ResultSet, error) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	if limit > MaxPreviewRows {
		limit = MaxPreviewRows
	}

	tables, err := s.adapter.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	found := false
	for _, t := range tables {
		if t.TableName == table {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("table %q: %w", table, apperrors.ErrNotFound)
	}

	result, err := s.adapter.Preview(ctx, table, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	return toResultSet(result), nil
}

func (s *schemaService) TestConnection(ctx context.Context) error {
	return s.adapter.TestConnection(ctx)
}

func (s *schemaService) Dialect() string {
	return s.adapter.Dialect()
}

// toResultSet converts adapter output to the pipeline's result model.
func toResultSet(r *datasource.QueryExecutionResult) *models.ResultSet {
	rs := &models.ResultSet{Columns: []string{}, Rows: []map[string]any{}}
	if r == nil {
		return rs
	}
	rs.Columns = r.ColumnNames()
	if r.Rows != nil {
		rs.Rows = r.Rows
	}
	return rs
}
