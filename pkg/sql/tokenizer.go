package sql

import (
	"strings"
	"unicode"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenSpace TokenKind = iota
	TokenComment
	TokenWord        // bare identifier or keyword
	TokenQuotedIdent // "double quoted" or [bracketed] identifier
	TokenString      // 'single quoted' or $tag$dollar quoted$tag$ literal
	TokenNumber
	TokenOperator // run of operator characters, e.g. =, <>, ::
	TokenPunct    // one of . , ( ) ; [ ]
)

// Token is a lexical token. Concatenating the Text of every token returned by
// Tokenize reproduces the input exactly.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Ident returns the identifier a word or quoted identifier refers to, with
// quotes removed and doubled quotes collapsed.
func (t Token) Ident() string {
	if t.Kind != TokenQuotedIdent {
		return t.Text
	}
	if t.Bracketed() {
		inner := strings.TrimSuffix(t.Text[1:], "]")
		return strings.ReplaceAll(inner, "]]", "]")
	}
	inner := strings.TrimPrefix(t.Text, `"`)
	inner = strings.TrimSuffix(inner, `"`)
	return strings.ReplaceAll(inner, `""`, `"`)
}

// Bracketed reports a SQL Server [identifier].
func (t Token) Bracketed() bool {
	return t.Kind == TokenQuotedIdent && strings.HasPrefix(t.Text, "[")
}

// FoldsCase reports whether the identifier matches names case-insensitively:
// bare words, and bracketed names under SQL Server's default collation.
func (t Token) FoldsCase() bool {
	return t.Kind == TokenWord || t.Bracketed()
}

// IsIdent reports whether the token names something.
func (t Token) IsIdent() bool {
	return t.Kind == TokenWord || t.Kind == TokenQuotedIdent
}

// IsKeyword reports whether the token is the bare word kw, ignoring case.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenWord && strings.EqualFold(t.Text, kw)
}

// Is reports whether the token is the given punctuation or operator.
func (t Token) Is(text string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenOperator) && t.Text == text
}

const operatorChars = "<>=!~+-*/%^&|#@?:"

// Tokenize splits SQL into tokens. It never fails: unterminated literals and
// comments run to the end of input.
func Tokenize(query string) []Token {
	var tokens []Token
	src := []rune(query)
	pos := 0 // byte offset

	emit := func(kind TokenKind, start, end int) {
		text := string(src[start:end])
		tokens = append(tokens, Token{Kind: kind, Text: text, Pos: pos})
		pos += len(text)
	}

	for i := 0; i < len(src); {
		c := src[i]
		start := i

		switch {
		case unicode.IsSpace(c):
			for i < len(src) && unicode.IsSpace(src[i]) {
				i++
			}
			emit(TokenSpace, start, i)

		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			emit(TokenComment, start, i)

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				i++
			}
			i = min(i+2, len(src))
			emit(TokenComment, start, i)

		case c == '\'':
			i = scanQuoted(src, i, '\'')
			emit(TokenString, start, i)

		case c == '"':
			i = scanQuoted(src, i, '"')
			emit(TokenQuotedIdent, start, i)

		case c == '$' && dollarTag(src, i) != "":
			tag := dollarTag(src, i)
			i += len([]rune(tag))
			closing := strings.Index(string(src[i:]), tag)
			if closing < 0 {
				i = len(src)
			} else {
				i += len([]rune(string(src[i:])[:closing])) + len([]rune(tag))
			}
			emit(TokenString, start, i)

		case c == '[' && !subscripts(src, i):
			i = scanQuoted(src, i, ']')
			emit(TokenQuotedIdent, start, i)

		case isWordStart(c):
			for i < len(src) && isWordPart(src[i]) {
				i++
			}
			emit(TokenWord, start, i)

		case unicode.IsDigit(c):
			i = scanNumber(src, i)
			emit(TokenNumber, start, i)

		case strings.ContainsRune(".,();[]", c):
			i++
			emit(TokenPunct, start, i)

		case strings.ContainsRune(operatorChars, c):
			i++
			for i < len(src) && strings.ContainsRune(operatorChars, src[i]) &&
				!(src[i] == '-' && i+1 < len(src) && src[i+1] == '-') &&
				!(src[i] == '/' && i+1 < len(src) && src[i+1] == '*') {
				i++
			}
			emit(TokenOperator, start, i)

		default:
			i++
			emit(TokenOperator, start, i)
		}
	}

	return tokens
}

// Significant drops whitespace and comments.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != TokenSpace && t.Kind != TokenComment {
			out = append(out, t)
		}
	}
	return out
}

// scanQuoted returns the index just past a quote-delimited run starting at i.
// A doubled delimiter is an escaped delimiter.
func scanQuoted(src []rune, i int, quote rune) int {
	i++
	for i < len(src) {
		if src[i] == quote {
			if i+1 < len(src) && src[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// dollarTag returns the opening tag ($$ or $name$) at i, or "".
func dollarTag(src []rune, i int) string {
	j := i + 1
	for j < len(src) && (src[j] == '_' || unicode.IsLetter(src[j]) || (j > i+1 && unicode.IsDigit(src[j]))) {
		j++
	}
	if j < len(src) && src[j] == '$' {
		return string(src[i : j+1])
	}
	return ""
}

func scanNumber(src []rune, i int) int {
	for i < len(src) && (unicode.IsDigit(src[i]) || src[i] == '.') {
		i++
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && unicode.IsDigit(src[j]) {
			i = j
			for i < len(src) && unicode.IsDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

// subscripts reports whether the "[" at i indexes the expression before it,
// as in arr[1] or ARRAY[1, 2], rather than opening a bracketed identifier.
func subscripts(src []rune, i int) bool {
	if i == 0 {
		return false
	}
	p := src[i-1]
	return isWordPart(p) || p == ']' || p == ')'
}

func isWordStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isWordPart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
