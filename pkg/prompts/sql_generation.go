package prompts

import (
	"fmt"
	"strings"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// EscapeSentinel is the reserved reply that tells us the model could not
// answer from the schema. Text containing it is never executed.
const EscapeSentinel = "SCHEMA_ERROR: Required data not available"

// DefaultDialect is used when the datasource does not name one.
const DefaultDialect = "PostgreSQL"

// BuildSQLGenerationPrompt renders the schema, aliases and question into the
// SQL generation prompt. Tables appear in lexicographic order with columns in
// declaration order; the output depends only on the inputs.
func BuildSQLGenerationPrompt(snapshot *models.SchemaSnapshot, aliases models.AliasMap, question, dialect string) string {
	if dialect == "" {
		dialect = DefaultDialect
	}

	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Generate a %s query to answer: %s\n\n", dialect, question))

	prompt.WriteString("Requirements:\n")
	prompt.WriteString("1. Use EXACT table and column names as shown below\n")
	prompt.WriteString("2. Use the given table aliases\n")
	prompt.WriteString("3. Put double quotes around ALL identifiers (table and column names)\n")
	prompt.WriteString(fmt.Sprintf("4. If the required data is not available, respond with exactly: %s\n", EscapeSentinel))
	prompt.WriteString("5. Write a single read-only SELECT statement\n")
	prompt.WriteString("6. Return only the SQL query, with no explanation\n\n")

	prompt.WriteString("## Tables and Columns\n\n")
	for _, name := range snapshot.TableNames() {
		table := snapshot.Table(name)
		prompt.WriteString(fmt.Sprintf("%s (alias: %s):\n", name, aliases.Alias(name)))
		for _, col := range table.Columns {
			prompt.WriteString(fmt.Sprintf("    - %s (%s)\n", col.Name, describeColumn(col)))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Relationships\n")
	if len(snapshot.Edges) == 0 {
		prompt.WriteString("No foreign keys are declared.\n")
	}
	for _, e := range snapshot.Edges {
		prompt.WriteString(fmt.Sprintf("%s.%s -> %s.%s\n",
			aliases.Alias(e.FromTable), e.FromColumn, aliases.Alias(e.ToTable), e.ToColumn))
	}

	prompt.WriteString("\nSQL Query:")

	return prompt.String()
}

func describeColumn(col models.ColumnDescriptor) string {
	parts := []string{col.DeclaredType}
	if !col.Nullable {
		parts = append(parts, "not null")
	}
	if col.Default != nil {
		parts = append(parts, "default "+*col.Default)
	}
	return strings.Join(parts, ", ")
}
