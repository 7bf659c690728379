package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a string literal.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Literal     string // The literal that was checked
}

// CheckLiteralForInjection uses libinjection to detect SQL injection patterns
// inside a string literal of a generated query. A model that copies hostile
// user text into a literal is worth flagging even though the literal itself
// cannot escape its quotes.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	result := CheckLiteralForInjection("laptop computers")
//	// result == nil
//
//	result := CheckLiteralForInjection("'; DROP TABLE users--")
//	// result.IsSQLi == true
func CheckLiteralForInjection(literal string) *InjectionCheckResult {
	if literal == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(literal)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Literal:     literal,
		}
	}

	return nil
}
