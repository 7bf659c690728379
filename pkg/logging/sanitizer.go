package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength bounds logged SQL, in runes.
	MaxQueryLogLength = 200
	// RedactedText replaces secrets in logged values.
	RedactedText = "[REDACTED]"
)

// redaction is one secret pattern and its replacement.
type redaction struct {
	pattern *regexp.Regexp
	repl    string
}

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordRule = redaction{regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`), "${1}=" + RedactedText}

	// api_key=..., apikey=..., key=... with a long token value
	apiKeyRule = redaction{regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`), "${1}=" + RedactedText}

	// Authorization header values echoed into provider errors
	bearerRule = redaction{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{8,}`), "Bearer " + RedactedText}

	// Groq gsk_, Anthropic sk-ant- and OpenAI sk- keys
	providerKeyRule = redaction{regexp.MustCompile(`\b(?:gsk_|sk-ant-|sk-)[A-Za-z0-9_-]{16,}`), RedactedText}

	// user:pass@host in URLs such as postgres://u:p@db/shop
	userInfoRule = redaction{regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`), "://" + RedactedText + "@" + RedactedText}

	// SQL string literals, including doubled-quote escapes
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
)

func redact(s string, rules ...redaction) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.repl)
	}
	return s
}

// SanitizeConnectionString removes credentials from a DSN or URL.
func SanitizeConnectionString(connStr string) string {
	return redact(connStr, passwordRule, userInfoRule)
}

// SanitizeError renders err with credentials and API keys removed. Driver
// and provider errors can echo DSNs or request headers.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error(), passwordRule, bearerRule, apiKeyRule, providerKeyRule, userInfoRule)
}

// SanitizeQuery redacts string literals and truncates a SQL query for
// logging. Generated SQL may echo values from the user's question.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := stringLiteralPattern.ReplaceAllString(query, "'?'")
	sanitized = redact(sanitized, passwordRule, apiKeyRule)
	return TruncateString(sanitized, MaxQueryLogLength)
}

// TruncateString cuts s to maxLen runes and appends "..." when it was longer.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
