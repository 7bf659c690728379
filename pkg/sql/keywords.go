package sql

import "strings"

// keywords are words the sanitizer never quotes even when a column shares the
// name, since quoting them would change the statement's meaning.
var keywords = map[string]bool{
	"all": true, "and": true, "any": true, "as": true, "asc": true, "between": true,
	"by": true, "case": true, "cast": true, "cross": true, "current_date": true,
	"current_timestamp": true, "date": true, "day": true, "delete": true, "desc": true,
	"distinct": true, "else": true, "end": true, "epoch": true, "except": true,
	"exists": true, "false": true, "fetch": true, "filter": true, "first": true,
	"from": true, "full": true, "group": true, "having": true, "hour": true,
	"ilike": true, "in": true, "inner": true, "insert": true, "intersect": true,
	"interval": true, "into": true, "is": true, "join": true, "lateral": true,
	"left": true, "like": true, "limit": true, "minute": true, "month": true,
	"natural": true, "next": true, "not": true, "null": true, "nulls": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true,
	"outer": true, "over": true, "partition": true, "right": true, "row": true,
	"rows": true, "second": true, "select": true, "set": true, "some": true,
	"table": true, "then": true, "time": true, "timestamp": true, "top": true,
	"true": true, "union": true, "update": true, "using": true, "values": true,
	"when": true, "where": true, "window": true, "with": true, "within": true,
	"year": true,
}

// IsKeyword reports whether word is a SQL keyword, ignoring case.
func IsKeyword(word string) bool {
	return keywords[strings.ToLower(word)]
}

// clauseKeywords end a FROM/JOIN table reference.
var clauseKeywords = map[string]bool{
	"where": true, "group": true, "order": true, "having": true, "limit": true,
	"offset": true, "fetch": true, "union": true, "intersect": true, "except": true,
	"join": true, "inner": true, "left": true, "right": true, "full": true,
	"cross": true, "natural": true, "on": true, "using": true, "window": true,
	"for": true, "returning": true, "set": true, "values": true, "lateral": true,
	"tablesample": true, "with": true, "select": true,
}

func isClauseKeyword(word string) bool {
	return clauseKeywords[strings.ToLower(word)]
}
