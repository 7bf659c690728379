package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// DefaultSampleRows is how many result rows the answer prompt includes.
const DefaultSampleRows = 5

// BuildAnswerPrompt renders the question, the executed SQL and at most
// sampleRows rows of the result into the answer synthesis prompt.
func BuildAnswerPrompt(question, sqlUsed string, results *models.ResultSet, sampleRows int) string {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Question: %s\n", question))
	prompt.WriteString(fmt.Sprintf("SQL Used: %s\n", sqlUsed))

	if results.IsEmpty() {
		prompt.WriteString("Results: the query returned no rows.\n")
	} else {
		total := len(results.Rows)
		shown := min(total, sampleRows)
		prompt.WriteString(fmt.Sprintf("Results (%d of %d rows):\n", shown, total))
		for _, row := range results.Rows[:shown] {
			prompt.WriteString("- ")
			prompt.WriteString(RenderRow(results.Columns, row))
			prompt.WriteString("\n")
		}
		if total > shown {
			prompt.WriteString(fmt.Sprintf("... (%d more rows not shown)\n", total-shown))
		}
	}

	prompt.WriteString("\nProvide a natural, concise answer to the question using only these results:")

	return prompt.String()
}

// RenderRow formats a row as "col: value" pairs in column order.
func RenderRow(columns []string, row map[string]any) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s: %s", col, RenderValue(row[col])))
	}
	return strings.Join(parts, ", ")
}

// RenderValue converts a driver value to display text.
func RenderValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if m, ok := v.(json.Marshaler); ok {
		if b, err := m.MarshalJSON(); err == nil {
			return strings.Trim(string(b), `"`)
		}
	}
	return fmt.Sprintf("%v", v)
}
