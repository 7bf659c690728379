package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	_ "github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource/mssql"
	_ "github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource/postgres"
	_ "github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource/sqlite"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/audit"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	adapter   datasource.Adapter
	schema    services.SchemaService
	questions services.QuestionService // nil when the command has no model
}

// appOptions select what a command needs beyond the schema service.
type appOptions struct {
	withLLM  bool
	registry prometheus.Registerer
}

func (o *options) loadConfig(stderr io.Writer) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath, o.version)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.IsProduction(), o.logLevel)
	if err != nil {
		return nil, nil, err
	}

	if o.askPassword && cfg.Datasource.Password == "" && cfg.Datasource.Type != config.DatasourceSQLite {
		password, err := readPassword(stderr)
		if err != nil {
			return nil, nil, err
		}
		cfg.Datasource.Password = password
	}

	return cfg, logger, nil
}

func (o *options) newApp(ctx context.Context, stderr io.Writer, ao appOptions) (*app, error) {
	cfg, logger, err := o.loadConfig(stderr)
	if err != nil {
		return nil, err
	}

	logger.Debug("Opening datasource",
		zap.String("type", cfg.Datasource.Type),
		zap.String("host", cfg.Datasource.EffectiveHost()),
		zap.String("database", cfg.Datasource.Database))

	adapter, err := datasource.NewAdapter(ctx, cfg.Datasource, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open datasource: %s", logging.SanitizeError(err))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		adapter: adapter,
		schema:  services.NewSchemaService(adapter, logger),
	}

	if ao.withLLM {
		client, err := o.newLLMClient(cfg.LLM, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.questions = services.NewQuestionService(services.QuestionServiceDeps{
			Schema:    a.schema,
			Executor:  adapter,
			LLM:       client,
			LLMConfig: cfg.LLM,
			Assistant: cfg.Assistant,
			Metrics:   services.NewMetrics(ao.registry),
			Auditor:   audit.NewSecurityAuditor(logger),
			Logger:    logger,
		})
	}

	return a, nil
}

// Close releases the datasource and flushes the logger.
func (a *app) Close() {
	if err := a.adapter.Close(); err != nil {
		a.logger.Warn("Failed to close datasource", zap.Error(err))
	}
	_ = a.logger.Sync()
}

var errNoTerminal = errors.New("--ask-password needs an interactive terminal")

func readPassword(stderr io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}

	fmt.Fprint(stderr, "Database password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
