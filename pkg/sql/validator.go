// Package sql sanitizes and validates model-generated SQL before it is allowed
// to reach the database.
package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
)

var (
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
	ErrNotReadOnly        = errors.New("only SELECT queries are permitted")
)

// Bare words that never belong in a read-only query. INTO covers SELECT INTO.
var writeKeywords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`insert update delete merge upsert drop alter create
		truncate grant revoke copy call execute exec vacuum attach detach pragma into`) {
		writeKeywords[w] = struct{}{}
	}
}

// WITH x AS (DELETE ...) style CTEs.
var writingCTE = regexp.MustCompile(`(?i)\bAS\s*\(\s*(INSERT|UPDATE|DELETE)\b`)

// Normalize trims sqlQuery and its trailing semicolon, then fails with
// ErrMultipleStatements if another semicolon remains outside literals and
// comments.
func Normalize(sqlQuery string) (string, error) {
	normalized := StripTrailingSemicolon(strings.TrimSpace(sqlQuery))
	for _, tok := range Tokenize(normalized) {
		if tok.Kind == TokenPunct && tok.Text == ";" {
			return "", ErrMultipleStatements
		}
	}
	return normalized, nil
}

// RequireReadOnly accepts one SELECT or WITH ... SELECT statement, possibly
// parenthesized, and returns it normalized. Rejections wrap
// apperrors.ErrUnsafeStatement.
func RequireReadOnly(sqlQuery string) (string, error) {
	normalized, err := Normalize(sqlQuery)
	if err != nil {
		return "", rejectUnsafe(err, "")
	}

	tokens := Significant(Tokenize(normalized))
	for len(tokens) > 0 && tokens[0].Is("(") {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 || !(tokens[0].IsKeyword("select") || tokens[0].IsKeyword("with")) {
		return "", rejectUnsafe(ErrNotReadOnly, "")
	}

	for _, tok := range tokens {
		if _, bad := writeKeywords[strings.ToLower(tok.Text)]; bad && tok.Kind == TokenWord {
			return "", rejectUnsafe(ErrNotReadOnly, "found "+strings.ToUpper(tok.Text))
		}
	}
	if writingCTE.MatchString(stripLiterals(normalized)) {
		return "", rejectUnsafe(ErrNotReadOnly, "data-modifying CTE")
	}
	return normalized, nil
}

func rejectUnsafe(reason error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %w", apperrors.ErrUnsafeStatement, reason)
	}
	return fmt.Errorf("%w: %w (%s)", apperrors.ErrUnsafeStatement, reason, detail)
}

// StripTrailingSemicolon drops one trailing semicolon and the whitespace
// around it.
func StripTrailingSemicolon(sqlQuery string) string {
	const space = " \t\n\r"
	trimmed := strings.TrimRight(sqlQuery, space)
	if rest, ok := strings.CutSuffix(trimmed, ";"); ok {
		return strings.TrimRight(rest, space)
	}
	return trimmed
}

// stripLiterals blanks string literals and comments out of sqlQuery.
func stripLiterals(sqlQuery string) string {
	var sb strings.Builder
	for _, tok := range Tokenize(sqlQuery) {
		switch tok.Kind {
		case TokenString:
			sb.WriteString("''")
		case TokenComment:
			sb.WriteByte(' ')
		default:
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}
