package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/prompts"
)

// codeFencePattern matches a Markdown fence marker and the word glued to it,
// which is normally a language tag (sql, sqlite, tsql, json).
var codeFencePattern = regexp.MustCompile("```([A-Za-z0-9_+-]*)")

// stripFence drops a fence and its language tag. A fence glued straight onto
// the statement (```SELECT) keeps the statement's first word.
func stripFence(fence string) string {
	tag := codeFencePattern.FindStringSubmatch(fence)[1]
	if strings.EqualFold(tag, "select") || strings.EqualFold(tag, "with") {
		return tag
	}
	return ""
}

// Sanitize turns a raw model completion into SQL ready for validation.
//
// In order: a completion containing the escape sentinel fails with
// ErrSchemaUnsatisfiable; code fences are removed; surrounding whitespace is
// trimmed and an empty result fails with ErrEmptyGeneration; finally every bare
// word that exactly matches a known table or column name is double quoted.
//
// Quoting works on tokens, so it never touches string literals, comments,
// identifiers already in quotes, or substrings of longer identifiers
// (id inside cust_id). Words followed by "(" (function calls) and words after a
// "::" cast are left bare. A name that is also a SQL keyword (order, year) is
// quoted only where it stands as an identifier. Sanitizing sanitized SQL is a
// no-op.
func Sanitize(raw string, snapshot *models.SchemaSnapshot) (string, error) {
	if strings.Contains(raw, prompts.EscapeSentinel) {
		return "", fmt.Errorf("%w: model replied %q", apperrors.ErrSchemaUnsatisfiable, prompts.EscapeSentinel)
	}

	cleaned := codeFencePattern.ReplaceAllStringFunc(raw, stripFence)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", apperrors.ErrEmptyGeneration
	}

	return QuoteKnownIdentifiers(cleaned, snapshot), nil
}

// QuoteKnownIdentifiers double quotes bare occurrences of the snapshot's table
// and column names.
func QuoteKnownIdentifiers(query string, snapshot *models.SchemaSnapshot) string {
	known := knownIdentifiers(snapshot)
	if len(known) == 0 {
		return query
	}

	tokens := Tokenize(query)
	var out strings.Builder
	out.Grow(len(query) + 16)

	for i, tok := range tokens {
		if tok.Kind == TokenWord && known[tok.Text] && shouldQuote(tokens, i) {
			out.WriteString(`"` + tok.Text + `"`)
			continue
		}
		out.WriteString(tok.Text)
	}

	return out.String()
}

func shouldQuote(tokens []Token, i int) bool {
	if IsKeyword(tokens[i].Text) {
		return inIdentifierPosition(tokens, i)
	}
	if next, ok := nextSignificant(tokens, i); ok && next.Is("(") {
		return false
	}
	if prev, ok := prevSignificant(tokens, i); ok && prev.Is("::") {
		return false
	}
	return true
}

// listLeads are the words after which a keyword-named column is read as a
// column: the start of a select list, a sort key, a condition or a table
// reference.
var listLeads = map[string]bool{
	"select": true, "distinct": true, "by": true, "from": true, "join": true,
	"where": true, "and": true, "or": true, "on": true, "having": true,
	"when": true, "then": true, "else": true,
}

// inIdentifierPosition decides whether the keyword at i is used as a name.
// It is when qualified (o.order), when compared or listed (year = 2024,
// year, ...), or when it follows a list lead (SELECT order FROM, ORDER BY
// year). Clause uses (ORDER BY, NULLS FIRST, EXTRACT(year FROM ...),
// CAST(x AS date), DATE '2024-01-01') stay bare.
func inIdentifierPosition(tokens []Token, i int) bool {
	prev, hasPrev := prevSignificant(tokens, i)
	next, hasNext := nextSignificant(tokens, i)

	if hasPrev && prev.Is(".") {
		return true
	}
	if hasNext && (next.IsKeyword("by") || next.Is("(") || next.Is(".") || next.Kind == TokenString) {
		return false
	}
	if hasPrev && (prev.IsKeyword("as") || prev.Is("::")) {
		return false
	}
	if hasPrev && prev.Is("(") {
		return hasNext && (next.Is(")") || next.Is(","))
	}
	if hasNext && (next.Is(",") || next.Is(")") || (next.Kind == TokenOperator && !next.Is("::"))) {
		return true
	}
	if !hasPrev {
		return false
	}
	return prev.Is(",") || prev.Kind == TokenOperator || (prev.Kind == TokenWord && listLeads[strings.ToLower(prev.Text)])
}

func knownIdentifiers(snapshot *models.SchemaSnapshot) map[string]bool {
	known := make(map[string]bool)
	if snapshot == nil {
		return known
	}
	for name, table := range snapshot.Tables {
		known[name] = true
		for _, col := range table.Columns {
			known[col.Name] = true
		}
	}
	return known
}

func nextSignificant(tokens []Token, i int) (Token, bool) {
	for j := i + 1; j < len(tokens); j++ {
		if tokens[j].Kind != TokenSpace && tokens[j].Kind != TokenComment {
			return tokens[j], true
		}
	}
	return Token{}, false
}

func prevSignificant(tokens []Token, i int) (Token, bool) {
	for j := i - 1; j >= 0; j-- {
		if tokens[j].Kind != TokenSpace && tokens[j].Kind != TokenComment {
			return tokens[j], true
		}
	}
	return Token{}, false
}
