package sql

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// Warning codes reported by ValidateAgainstSchema.
const (
	WarnUnrecognizedJoin    = "unrecognized_join"
	WarnUnresolvedQualifier = "unresolved_qualifier"
	WarnSuspiciousLiteral   = "suspicious_literal"
)

// Warning is a non-fatal validation finding.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationOptions tune ValidateAgainstSchema.
type ValidationOptions struct {
	// RejectUnrecognizedJoins turns join warnings into rejections.
	RejectUnrecognizedJoins bool
}

// SchemaValidation is the outcome of checking a query against a snapshot.
type SchemaValidation struct {
	Accepted bool
	// Tables lists the snapshot tables the query reads, in order of first reference.
	Tables   []string
	Warnings []Warning
}

// UnknownTableError reports a table reference missing from the snapshot.
type UnknownTableError struct {
	Table      string
	Suggestion string
}

func (e *UnknownTableError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown table %q (did you mean %q?)", e.Table, e.Suggestion)
	}
	return fmt.Sprintf("unknown table %q", e.Table)
}

func (e *UnknownTableError) Unwrap() error { return apperrors.ErrUnknownTable }

// UnknownColumnError reports a qualified column missing from its table.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q on table %q", e.Column, e.Table)
}

func (e *UnknownColumnError) Unwrap() error { return apperrors.ErrUnknownColumn }

// ValidateAgainstSchema checks a sanitized query against the snapshot without
// modifying it. Table references in FROM and JOIN clauses must name snapshot
// tables (or CTEs), qualified columns must exist on the table their qualifier
// resolves to, and JOIN ... ON equalities that match no foreign key in either
// direction are reported as warnings. The query must also be a single
// read-only statement.
//
// A non-nil error means the query was rejected and must not be executed.
func ValidateAgainstSchema(query string, snapshot *models.SchemaSnapshot, opts ValidationOptions) (*SchemaValidation, error) {
	result := &SchemaValidation{}

	normalized, err := RequireReadOnly(query)
	if err != nil {
		return result, err
	}

	c := newSchemaChecker(normalized, snapshot)
	c.collectDerivedNames()

	if err := c.checkTableRefs(); err != nil {
		return result, err
	}
	if err := c.checkQualifiedColumns(); err != nil {
		return result, err
	}
	if err := c.checkJoins(opts); err != nil {
		result.Warnings = c.warnings
		return result, err
	}
	c.scanLiterals()

	result.Accepted = true
	result.Tables = c.tables
	result.Warnings = c.warnings
	return result, nil
}

type schemaChecker struct {
	tokens   []Token
	snapshot *models.SchemaSnapshot

	// derived holds CTE and subquery names; their columns are not checked.
	derived map[string]bool
	// aliases maps declared aliases to snapshot tables ("" for derived sources).
	aliases map[string]string
	// consumed marks token indexes that belong to a FROM/JOIN table reference.
	consumed map[int]bool

	tables   []string
	seen     map[string]bool
	warnings []Warning
}

func newSchemaChecker(query string, snapshot *models.SchemaSnapshot) *schemaChecker {
	if snapshot == nil {
		snapshot = models.NewSchemaSnapshot()
	}
	return &schemaChecker{
		tokens:   Significant(Tokenize(query)),
		snapshot: snapshot,
		derived:  make(map[string]bool),
		aliases:  make(map[string]string),
		consumed: make(map[int]bool),
		seen:     make(map[string]bool),
	}
}

func (c *schemaChecker) warn(code, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (c *schemaChecker) at(i int) Token {
	if i < 0 || i >= len(c.tokens) {
		return Token{Kind: TokenSpace}
	}
	return c.tokens[i]
}

// matchParen returns the index of the ")" closing the "(" at i.
func (c *schemaChecker) matchParen(i int) int {
	depth := 0
	for j := i; j < len(c.tokens); j++ {
		switch {
		case c.tokens[j].Is("("):
			depth++
		case c.tokens[j].Is(")"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(c.tokens) - 1
}

// collectDerivedNames records CTE names and aliases given to parenthesized
// expressions, e.g. "(SELECT ...) AS t". A CTE may take a keyword as its
// name (WITH top AS (...)).
func (c *schemaChecker) collectDerivedNames() {
	for i, tok := range c.tokens {
		if tok.IsIdent() && (!IsKeyword(tok.Text) || c.startsCTE(i)) {
			j := i + 1
			if c.at(j).Is("(") {
				j = c.matchParen(j) + 1
			}
			if c.at(j).IsKeyword("as") {
				k := j + 1
				if c.at(k).IsKeyword("not") {
					k++
				}
				if c.at(k).IsKeyword("materialized") {
					k++
				}
				if c.at(k).Is("(") {
					c.addDerived(tok)
				}
			}
		}

		if tok.Is(")") {
			j := i + 1
			if c.at(j).IsKeyword("as") {
				j++
			}
			if next := c.at(j); next.IsIdent() && !(next.Kind == TokenWord && IsKeyword(next.Text)) {
				c.addDerived(next)
			}
		}
	}
}

// startsCTE reports whether the token at i sits where a CTE name goes.
func (c *schemaChecker) startsCTE(i int) bool {
	prev := c.at(i - 1)
	return prev.IsKeyword("with") || prev.IsKeyword("recursive") || prev.Is(",")
}

func (c *schemaChecker) addDerived(tok Token) {
	c.derived[tok.Ident()] = true
	if tok.FoldsCase() {
		c.derived[strings.ToLower(tok.Ident())] = true
	}
}

type scopeFrame struct {
	isQuery    bool
	inFromList bool
}

func (c *schemaChecker) checkTableRefs() error {
	stack := []scopeFrame{{isQuery: true}}

	for i := 0; i < len(c.tokens); i++ {
		tok := c.tokens[i]
		top := &stack[len(stack)-1]

		switch {
		case tok.Is("("):
			next := c.at(i + 1)
			stack = append(stack, scopeFrame{
				isQuery: next.IsKeyword("select") || next.IsKeyword("with") || next.IsKeyword("values"),
			})
		case tok.Is(")"):
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case !top.isQuery:
			continue
		case tok.IsKeyword("from"):
			if c.at(i - 1).IsKeyword("distinct") {
				continue // IS [NOT] DISTINCT FROM
			}
			top.inFromList = true
			j, err := c.tableRef(i + 1)
			if err != nil {
				return err
			}
			i = j - 1
		case tok.IsKeyword("join"):
			top.inFromList = false
			j, err := c.tableRef(i + 1)
			if err != nil {
				return err
			}
			i = j - 1
		case tok.Is(",") && top.inFromList:
			j, err := c.tableRef(i + 1)
			if err != nil {
				return err
			}
			i = j - 1
		case tok.Kind == TokenWord && isClauseKeyword(tok.Text):
			top.inFromList = false
		}
	}

	return nil
}

// tableRef parses a table reference starting at i and returns the index of
// the first token after it.
func (c *schemaChecker) tableRef(i int) (int, error) {
	for c.at(i).IsKeyword("lateral") || c.at(i).IsKeyword("only") {
		i++
	}
	if !c.at(i).IsIdent() {
		return i, nil
	}

	start := i
	name := c.tokens[i]
	i++
	for c.at(i).Is(".") && c.at(i+1).IsIdent() {
		name = c.tokens[i+1]
		i += 2
	}
	if c.at(i).Is("(") {
		// Table function such as generate_series(...).
		return i, nil
	}
	for k := start; k < i; k++ {
		c.consumed[k] = true
	}

	table, err := c.resolveTable(name)
	if err != nil {
		return i, err
	}

	j := i
	if c.at(j).IsKeyword("as") {
		j++
	}
	if alias := c.at(j); alias.IsIdent() && !(alias.Kind == TokenWord && (IsKeyword(alias.Text) || isClauseKeyword(alias.Text))) {
		c.declareAlias(alias, table)
		c.consumed[j] = true
		i = j + 1
	}

	return i, nil
}

// resolveTable returns the snapshot table a FROM/JOIN name refers to, "" for a
// CTE, or an UnknownTableError.
func (c *schemaChecker) resolveTable(tok Token) (string, error) {
	name := tok.Ident()

	if c.snapshot.HasTable(name) {
		c.recordTable(name)
		return name, nil
	}
	if c.derived[name] {
		return "", nil
	}
	if tok.FoldsCase() {
		if table, ok := c.tableFold(name); ok {
			c.recordTable(table)
			return table, nil
		}
		if c.derived[strings.ToLower(name)] {
			return "", nil
		}
	}

	return "", &UnknownTableError{Table: name, Suggestion: c.suggestTable(name)}
}

func (c *schemaChecker) recordTable(table string) {
	if !c.seen[table] {
		c.seen[table] = true
		c.tables = append(c.tables, table)
	}
}

// tableFold finds a table whose name matches case-insensitively, as unquoted
// identifiers do in SQL.
func (c *schemaChecker) tableFold(name string) (string, bool) {
	lower := strings.ToLower(name)
	if c.snapshot.HasTable(lower) {
		return lower, true
	}
	for _, t := range c.snapshot.TableNames() {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return "", false
}

func (c *schemaChecker) suggestTable(name string) string {
	candidates := []string{
		inflection.Plural(name),
		inflection.Singular(name),
		strings.ToLower(name),
	}
	for _, cand := range candidates {
		if cand != name && c.snapshot.HasTable(cand) {
			return cand
		}
	}
	if t, ok := c.tableFold(name); ok {
		return t
	}
	return ""
}

func (c *schemaChecker) declareAlias(tok Token, table string) {
	c.aliases[tok.Ident()] = table
	if tok.FoldsCase() {
		c.aliases[strings.ToLower(tok.Ident())] = table
	}
}

// qualifierTable resolves the qualifier of a qualified column. ok is false
// when the qualifier names nothing known; table is "" for derived sources.
func (c *schemaChecker) qualifierTable(tok Token) (table string, ok bool) {
	name := tok.Ident()
	if t, found := c.aliases[name]; found {
		return t, true
	}
	if c.snapshot.HasTable(name) {
		return name, true
	}
	if c.derived[name] {
		return "", true
	}
	if tok.FoldsCase() {
		lower := strings.ToLower(name)
		if t, found := c.aliases[lower]; found {
			return t, true
		}
		if t, found := c.tableFold(name); found {
			return t, true
		}
		if c.derived[lower] {
			return "", true
		}
	}
	return "", false
}

// columnName returns the declared column name tok refers to on table.
func (c *schemaChecker) columnName(table string, tok Token) (string, bool) {
	name := tok.Ident()
	if c.snapshot.HasColumn(table, name) {
		return name, true
	}
	if tok.FoldsCase() {
		for _, col := range c.snapshot.Table(table).ColumnNames() {
			if strings.EqualFold(col, name) {
				return col, true
			}
		}
	}
	return name, false
}

// qualifiedRef is a qualifier.column pair found in the token stream.
type qualifiedRef struct {
	qualifier Token
	column    Token
	end       int
}

// qualifiedAt parses a dotted chain starting at i (a.b or s.a.b).
func (c *schemaChecker) qualifiedAt(i int) (qualifiedRef, bool) {
	if !c.at(i).IsIdent() || !c.at(i+1).Is(".") || c.at(i-1).Is(".") {
		return qualifiedRef{}, false
	}
	parts := []Token{c.tokens[i]}
	j := i + 1
	for c.at(j).Is(".") && (c.at(j+1).IsIdent() || c.at(j+1).Is("*")) {
		parts = append(parts, c.tokens[j+1])
		j += 2
	}
	if len(parts) < 2 || c.at(j).Is("(") {
		return qualifiedRef{end: j}, false
	}
	return qualifiedRef{
		qualifier: parts[len(parts)-2],
		column:    parts[len(parts)-1],
		end:       j,
	}, true
}

func (c *schemaChecker) checkQualifiedColumns() error {
	for i := 0; i < len(c.tokens); i++ {
		if c.consumed[i] {
			continue
		}
		ref, ok := c.qualifiedAt(i)
		if !ok {
			if ref.end > i {
				i = ref.end - 1
			}
			continue
		}
		i = ref.end - 1

		table, known := c.qualifierTable(ref.qualifier)
		if !known {
			if ref.qualifier.Kind == TokenQuotedIdent {
				name := ref.qualifier.Ident()
				return &UnknownTableError{Table: name, Suggestion: c.suggestTable(name)}
			}
			c.warn(WarnUnresolvedQualifier, "qualifier %s does not name a table or alias in the query", ref.qualifier.Text)
			continue
		}
		if table == "" || ref.column.Is("*") {
			continue
		}
		if _, found := c.columnName(table, ref.column); !found {
			return &UnknownColumnError{Table: table, Column: ref.column.Ident()}
		}
	}
	return nil
}

// joinClauseEnd lists keywords that end an ON condition.
var joinClauseEnd = map[string]bool{
	"where": true, "group": true, "order": true, "having": true, "limit": true,
	"offset": true, "fetch": true, "union": true, "intersect": true, "except": true,
	"join": true, "inner": true, "left": true, "right": true, "full": true,
	"cross": true, "natural": true, "window": true,
}

func (c *schemaChecker) checkJoins(opts ValidationOptions) error {
	for i, tok := range c.tokens {
		if !tok.IsKeyword("join") {
			continue
		}

		on := c.findOn(i + 1)
		if on < 0 {
			continue
		}

		end := c.onClauseEnd(on + 1)
		for k := on + 1; k < end; k++ {
			if !c.tokens[k].Is("=") {
				continue
			}
			left, lok := c.qualifiedAt(k - 3)
			right, rok := c.qualifiedAt(k + 1)
			if !lok || !rok || left.end != k {
				continue
			}
			if err := c.checkJoinEquality(left, right, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// findOn returns the index of the ON keyword belonging to the JOIN whose table
// reference starts at i, or -1.
func (c *schemaChecker) findOn(i int) int {
	for j := i; j < len(c.tokens); j++ {
		tok := c.tokens[j]
		switch {
		case tok.Is("("):
			j = c.matchParen(j)
		case tok.Is(")"):
			return -1
		case tok.IsKeyword("on"):
			return j
		case tok.IsKeyword("using") || (tok.Kind == TokenWord && joinClauseEnd[strings.ToLower(tok.Text)]):
			return -1
		}
	}
	return -1
}

func (c *schemaChecker) onClauseEnd(i int) int {
	depth := 0
	for j := i; j < len(c.tokens); j++ {
		tok := c.tokens[j]
		switch {
		case tok.Is("("):
			depth++
		case tok.Is(")"):
			if depth == 0 {
				return j
			}
			depth--
		case depth == 0 && tok.Kind == TokenWord && joinClauseEnd[strings.ToLower(tok.Text)]:
			return j
		}
	}
	return len(c.tokens)
}

func (c *schemaChecker) checkJoinEquality(left, right qualifiedRef, opts ValidationOptions) error {
	lt, lok := c.qualifierTable(left.qualifier)
	rt, rok := c.qualifierTable(right.qualifier)
	if !lok || !rok || lt == "" || rt == "" {
		return nil
	}
	lc, _ := c.columnName(lt, left.column)
	rc, _ := c.columnName(rt, right.column)

	if c.snapshot.HasEdge(lt, lc, rt, rc) {
		return nil
	}

	if opts.RejectUnrecognizedJoins {
		return fmt.Errorf("%w: %s.%s = %s.%s", apperrors.ErrUnrecognizedJoin, lt, lc, rt, rc)
	}
	c.warn(WarnUnrecognizedJoin, "join %s.%s = %s.%s does not match a declared foreign key", lt, lc, rt, rc)
	return nil
}

func (c *schemaChecker) scanLiterals() {
	for _, tok := range c.tokens {
		if tok.Kind != TokenString || len(tok.Text) < 2 || !strings.HasPrefix(tok.Text, "'") || !strings.HasSuffix(tok.Text, "'") {
			continue
		}
		literal := strings.ReplaceAll(tok.Text[1:len(tok.Text)-1], "''", "'")
		if hit := CheckLiteralForInjection(literal); hit != nil {
			c.warn(WarnSuspiciousLiteral, "string literal matches SQL injection fingerprint %s", hit.Fingerprint)
		}
	}
}
