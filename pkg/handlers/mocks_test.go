package handlers

import (
	"context"
	"fmt"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/audit"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

type mockQuestionService struct {
	asked     []string
	clientIPs []string
	answer    models.Answer
}

func (m *mockQuestionService) Ask(ctx context.Context, question string) *models.Answer {
	m.asked = append(m.asked, question)
	m.clientIPs = append(m.clientIPs, audit.ClientIPFromContext(ctx))
	a := m.answer
	a.Question = question
	return &a
}

type mockSchemaService struct {
	desc         *services.SchemaDescription
	stats        *models.DatabaseStats
	rows         *models.ResultSet
	err          error
	connErr      error
	previewTable string
	previewLimit int
}

func (m *mockSchemaService) Snapshot(ctx context.Context) (*models.SchemaSnapshot, error) {
	return nil, m.err
}

func (m *mockSchemaService) Describe(ctx context.Context) (*services.SchemaDescription, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.desc, nil
}

func (m *mockSchemaService) Stats(ctx context.Context) (*models.DatabaseStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockSchemaService) Preview(ctx context.Context, table string, limit int) (*models.ResultSet, error) {
	m.previewTable, m.previewLimit = table, limit
	if table != "orders" {
		return nil, fmt.Errorf("table %q: %w", table, apperrors.ErrNotFound)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockSchemaService) TestConnection(ctx context.Context) error { return m.connErr }

func (m *mockSchemaService) Dialect() string { return "PostgreSQL" }

func newMockSchema() *mockSchemaService {
	return &mockSchemaService{
		desc: &services.SchemaDescription{
			Dialect: "PostgreSQL",
			Tables: []services.TableDescription{{
				Name:    "orders",
				Alias:   "or",
				Columns: []models.ColumnDescriptor{{Name: "id", DeclaredType: "integer"}},
			}},
			Relationships: []models.ForeignKeyEdge{},
		},
		stats: &models.DatabaseStats{Size: "8 MB", TableCount: 1, TotalRows: 3},
		rows:  &models.ResultSet{Columns: []string{"id"}, Rows: []map[string]any{{"id": 1}, {"id": 2}}},
	}
}
