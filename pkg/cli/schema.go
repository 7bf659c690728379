package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

type schemaReport struct {
	Schema *services.SchemaDescription `json:"schema"`
	Stats  *models.DatabaseStats       `json:"stats"`
}

func newSchemaCmd(opts *options) *cobra.Command {
	var (
		jsonOutput  bool
		showColumns bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Test the connection and list tables, relationships and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := opts.newApp(ctx, cmd.ErrOrStderr(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.schema.TestConnection(ctx); err != nil {
				return fmt.Errorf("connection test failed: %s", logging.SanitizeError(err))
			}

			desc, err := a.schema.Describe(ctx)
			if err != nil {
				return err
			}
			stats, err := a.schema.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(schemaReport{Schema: desc, Stats: stats})
			}
			return printSchema(out, desc, stats, showColumns)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the schema and statistics as JSON")
	cmd.Flags().BoolVar(&showColumns, "columns", false, "List the columns of every table")

	return cmd
}

func printSchema(w io.Writer, desc *services.SchemaDescription, stats *models.DatabaseStats, showColumns bool) error {
	fmt.Fprintf(w, "Connected to %s\n\n", desc.Dialect)

	fmt.Fprintf(w, "Tables (%d):\n", len(desc.Tables))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range desc.Tables {
		fmt.Fprintf(tw, "  %s\t%s\t%d columns\n", t.Name, t.Alias, len(t.Columns))
		if !showColumns {
			continue
		}
		for _, c := range t.Columns {
			null := "NOT NULL"
			if c.Nullable {
				null = "NULL"
			}
			fmt.Fprintf(tw, "    %s\t%s\t%s\n", c.Name, c.DeclaredType, null)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(desc.Relationships) == 0 {
		fmt.Fprintln(w, "Relationships: none")
	} else {
		fmt.Fprintf(w, "Relationships (%d):\n", len(desc.Relationships))
		for _, e := range desc.Relationships {
			fmt.Fprintf(w, "  %s.%s -> %s.%s\n", e.FromTable, e.FromColumn, e.ToTable, e.ToColumn)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintf(w, "  Size:       %s\n", stats.Size)
	fmt.Fprintf(w, "  Tables:     %d\n", stats.TableCount)
	_, err := fmt.Fprintf(w, "  Total rows: %s\n", humanize.Comma(stats.TotalRows))
	return err
}
