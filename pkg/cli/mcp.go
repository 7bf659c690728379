package cli

import (
	"github.com/spf13/cobra"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp/tools"
)

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdin/stdout",
		Long: `Serve ask_question, describe_schema, database_stats, preview_table and
health over stdio for MCP clients that launch the assistant as a subprocess.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), cmd.ErrOrStderr(), appOptions{withLLM: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(&tools.ToolDeps{
				Questions: a.questions,
				Schema:    a.schema,
				Version:   a.cfg.Version,
			}, a.logger.Named("mcp"))
			return srv.ServeStdio()
		},
	}
}
