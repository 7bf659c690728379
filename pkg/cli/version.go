package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

func newVersionCmd(version string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var adapters []string
			for _, info := range datasource.RegisteredAdapters() {
				adapters = append(adapters, info.Type)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"version":     version,
					"go_version":  runtime.Version(),
					"os":          runtime.GOOS,
					"arch":        runtime.GOARCH,
					"datasources": adapters,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sql-query-assistant %s\n", version)
			fmt.Fprintf(out, "  go:          %s\n", runtime.Version())
			fmt.Fprintf(out, "  os/arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "  datasources: %v\n", adapters)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}
