package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// FailedAnswerError reports a question the pipeline could not answer. The
// answer itself has already been printed.
type FailedAnswerError struct {
	Failure string
}

func (e *FailedAnswerError) Error() string {
	return "question not answered: " + e.Failure
}

func newAskCmd(opts *options) *cobra.Command {
	var (
		jsonOutput bool
		maxRows    int
	)

	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Answer one question and print the SQL, results and answer",
		Example: `  sql-query-assistant ask "List top 5 customers by order total"
  sql-query-assistant ask --json "How many orders were placed last month?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := services.NormalizeQuestion(strings.Join(args, " "))
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd.Context(), cmd.ErrOrStderr(), appOptions{withLLM: true})
			if err != nil {
				return err
			}
			defer a.Close()

			answer := a.questions.Ask(cmd.Context(), question)

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(answer); err != nil {
					return err
				}
			} else if err := printAnswer(out, answer, maxRows, terminalWidth(out)); err != nil {
				return err
			}

			if answer.Failed() {
				return &FailedAnswerError{Failure: answer.Failure}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the answer as JSON")
	cmd.Flags().IntVar(&maxRows, "max-rows", 20, "Rows to print from the result (0 prints all)")

	return cmd
}

func printAnswer(w io.Writer, answer *models.Answer, maxRows, width int) error {
	if answer.SQL != "" {
		fmt.Fprintln(w, "SQL:")
		for _, line := range strings.Split(answer.SQL, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
		fmt.Fprintln(w)
	}

	if len(answer.Results.Columns) > 0 {
		if err := writeTable(w, &answer.Results, maxRows, width); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	for _, warning := range answer.Warnings {
		fmt.Fprintln(w, "warning: "+warning)
	}

	_, err := fmt.Fprintln(w, answer.Message)
	return err
}
