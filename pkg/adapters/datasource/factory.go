package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// NewAdapter opens the adapter registered for cfg.Type.
func NewAdapter(ctx context.Context, cfg config.DatasourceConfig, logger *zap.Logger) (Adapter, error) {
	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s (not compiled in)", cfg.Type)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return factory(ctx, cfg, logger.Named("datasource").With(zap.String("type", cfg.Type)))
}
