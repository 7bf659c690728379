package services

import (
	"strconv"
	"strings"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// AssignAliases derives a short, unique alias for each table.
//
// Multi-word snake_case names use the first letter of each word, single words
// use their first two characters, and everything is lower-cased. Collisions get
// an integer suffix (1, 2, ...) in iteration order, so the result depends on
// the order of tables. Callers pass SchemaSnapshot.TableNames() to keep it stable.
func AssignAliases(tables []string) models.AliasMap {
	aliases := make(models.AliasMap, len(tables))
	used := make(map[string]bool, len(tables))

	for _, table := range tables {
		if _, seen := aliases[table]; seen {
			continue
		}
		base := baseAlias(table)
		alias := base
		for n := 1; used[alias]; n++ {
			alias = base + strconv.Itoa(n)
		}
		used[alias] = true
		aliases[table] = alias
	}

	return aliases
}

func baseAlias(table string) string {
	var words []string
	for _, w := range strings.Split(table, "_") {
		if w != "" {
			words = append(words, w)
		}
	}

	var alias string
	switch len(words) {
	case 0:
		alias = "t"
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		alias = string(r)
	default:
		var sb strings.Builder
		for _, w := range words {
			sb.WriteRune([]rune(w)[0])
		}
		alias = sb.String()
	}

	return strings.ToLower(alias)
}
