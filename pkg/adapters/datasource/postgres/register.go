package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

func init() {
	datasource.Register(datasource.Registration{
		Info: datasource.AdapterInfo{
			Type:        config.DatasourcePostgres,
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		Factory: func(ctx context.Context, ds config.DatasourceConfig, logger *zap.Logger) (datasource.Adapter, error) {
			cfg, err := FromDatasourceConfig(ds)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
