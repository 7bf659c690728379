package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is read when no --config flag is given. It may be absent.
const DefaultConfigPath = "config.yaml"

// Datasource types understood by the adapters.
const (
	DatasourcePostgres  = "postgres"
	DatasourceSQLServer = "sqlserver"
	DatasourceSQLite    = "sqlite"
)

// Config holds all configuration for sql-query-assistant.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	Server     ServerConfig     `yaml:"server"`
	Datasource DatasourceConfig `yaml:"datasource"`
	LLM        LLMConfig        `yaml:"llm"`
	Assistant  AssistantConfig  `yaml:"assistant"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`

	// CORSAllowedOrigins is a comma-separated list. Empty disables CORS.
	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:""`

	// RateLimitPerMinute bounds question and MCP requests per client IP.
	RateLimitPerMinute int  `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"30"`
	MCPEnabled         bool `yaml:"mcp_enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.BindAddr, s.Port)
}

// AllowedOrigins splits CORSAllowedOrigins.
func (s *ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// DatasourceConfig describes the database questions are answered against.
type DatasourceConfig struct {
	Type           string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DB_PORT" env-default:"0"` // 0 selects the driver default
	User           string `yaml:"user" env:"DB_USER" env-default:""`
	Password       string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DB_NAME" env-default:""`
	Schema         string `yaml:"schema" env:"DB_SCHEMA" env-default:"public"`
	SSLMode        string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	Encrypt        string `yaml:"encrypt" env:"DB_ENCRYPT" env-default:"disable"` // sqlserver
	Path           string `yaml:"path" env:"DB_PATH" env-default:""`              // sqlite
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"5"`
}

// EffectiveHost applies the Docker localhost rewrite.
func (d *DatasourceConfig) EffectiveHost() string {
	return ResolveHostForDocker(d.Host)
}

// EffectivePort returns Port or the default port for Type.
func (d *DatasourceConfig) EffectivePort() int {
	if d.Port > 0 {
		return d.Port
	}
	switch d.Type {
	case DatasourceSQLServer:
		return 1433
	default:
		return 5432
	}
}

// PostgresURL returns a pgx connection URL.
func (d *DatasourceConfig) PostgresURL() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.EffectiveHost(), strconv.Itoa(d.EffectivePort())),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// SQLServerURL returns a go-mssqldb connection URL.
func (d *DatasourceConfig) SQLServerURL() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.EffectiveHost(), strconv.Itoa(d.EffectivePort())),
	}
	q := url.Values{}
	q.Set("database", d.Database)
	q.Set("encrypt", d.Encrypt)
	u.RawQuery = q.Encode()
	return u.String()
}

// LLMConfig selects and tunes the language model.
type LLMConfig struct {
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"LLM_BASE_URL"` // empty picks the provider's public endpoint
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"llama-3.3-70b-versatile"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	SQLTemperature    float64       `yaml:"sql_temperature" env:"LLM_SQL_TEMPERATURE" env-default:"0.1"`
	SQLMaxTokens      int           `yaml:"sql_max_tokens" env:"LLM_SQL_MAX_TOKENS" env-default:"1024"`
	AnswerTemperature float64       `yaml:"answer_temperature" env:"LLM_ANSWER_TEMPERATURE" env-default:"0.7"`
	AnswerMaxTokens   int           `yaml:"answer_max_tokens" env:"LLM_ANSWER_MAX_TOKENS" env-default:"512"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"LLM_REQUEST_TIMEOUT" env-default:"60s"`

	// MaxRetries repeats rate-limited or 5xx completions. 0, the default,
	// keeps every model call single-shot.
	MaxRetries int `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"0"`
}

// AssistantConfig tunes the question pipeline.
type AssistantConfig struct {
	SampleRows              int  `yaml:"sample_rows" env:"ASSISTANT_SAMPLE_ROWS" env-default:"5"`
	MaxResultRows           int  `yaml:"max_result_rows" env:"ASSISTANT_MAX_RESULT_ROWS" env-default:"1000"`
	SynthesizeEmptyResults  bool `yaml:"synthesize_empty_results" env:"ASSISTANT_SYNTHESIZE_EMPTY_RESULTS" env-default:"false"`
	RejectUnrecognizedJoins bool `yaml:"reject_unrecognized_joins" env:"ASSISTANT_REJECT_UNRECOGNIZED_JOINS" env-default:"false"`
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. A missing file at the default path falls back to
// environment variables and defaults alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && path == DefaultConfigPath:
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	}

	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values cleanenv cannot express as tags.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.SQLMaxTokens <= 0 || c.LLM.AnswerMaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive")
	}
	if c.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("llm.request_timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}

	switch c.Datasource.Type {
	case DatasourcePostgres, DatasourceSQLServer:
		if c.Datasource.Database == "" {
			return fmt.Errorf("datasource.database is required for %s", c.Datasource.Type)
		}
	case DatasourceSQLite:
		if c.Datasource.Path == "" {
			return fmt.Errorf("datasource.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported datasource.type %q", c.Datasource.Type)
	}
	if c.Datasource.MaxConnections <= 0 {
		return fmt.Errorf("datasource.max_connections must be positive")
	}

	if c.Assistant.SampleRows <= 0 {
		return fmt.Errorf("assistant.sample_rows must be positive")
	}
	if c.Assistant.MaxResultRows <= 0 {
		return fmt.Errorf("assistant.max_result_rows must be positive")
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be positive")
	}

	return nil
}

// IsProduction reports whether production logging should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
