// Package cli implements the sql-query-assistant command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/llm"
)

// LLMFactory builds the language model client from configuration.
type LLMFactory func(cfg config.LLMConfig, logger *zap.Logger) (llm.LLMClient, error)

// options are the persistent flags plus the collaborators commands share.
type options struct {
	version      string
	configPath   string
	logLevel     string
	askPassword  bool
	newLLMClient LLMFactory
}

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version, llm.NewClientFromConfig).Execute()
}

func newRootCmd(version string, newLLMClient LLMFactory) *cobra.Command {
	opts := &options{
		version:      version,
		newLLMClient: newLLMClient,
	}

	cmd := &cobra.Command{
		Use:   "sql-query-assistant",
		Short: "Ask questions about a database in plain language",
		Long: `sql-query-assistant turns plain-language questions into read-only SQL,
checks the SQL against the live schema, runs it and explains the result.

It serves an HTTP API and an MCP endpoint, or answers one question from the
command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./"+config.DefaultConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.askPassword, "ask-password", false, "prompt for the database password when DB_PASSWORD is unset")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newSchemaCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}
