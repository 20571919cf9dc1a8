package graph

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrQueryRejected is a guard classification failure. Scoped to the single
// call that submitted the text; never an exception to the serving loop.
var ErrQueryRejected = errors.New("query rejected")

// Verdict is the guard's classification of a query text.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// clauseKeywords is the allow-list grammar: every Cypher clause keyword the
// guard knows about, mapped to whether it can only read. A token found here
// with a false value rejects the query; a token not found here is an
// identifier, function name, or literal and never matters. New mutating
// syntax therefore has to be added here before it can pass, which is the
// safe failure mode.
var clauseKeywords = map[string]bool{
	// read-oriented clauses and connectives
	"MATCH": true, "OPTIONAL": true, "RETURN": true, "WITH": true,
	"WHERE": true, "UNWIND": true, "ORDER": true, "BY": true,
	"SKIP": true, "LIMIT": true, "AS": true, "DISTINCT": true,
	"AND": true, "OR": true, "XOR": true, "NOT": true, "IN": true,
	"IS": true, "NULL": true, "TRUE": true, "FALSE": true,
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"STARTS": true, "ENDS": true, "CONTAINS": true,
	"ASC": true, "DESC": true, "ASCENDING": true, "DESCENDING": true,
	"EXISTS": true, "ALL": true, "ANY": true, "NONE": true, "SINGLE": true,
	"UNION": true, "SHOW": true, "EXPLAIN": true, "PROFILE": true,
	"YIELD": true,

	// mutating or otherwise unsafe clauses
	"CREATE": false, "DELETE": false, "DETACH": false, "REMOVE": false,
	"SET": false, "MERGE": false, "DROP": false, "ALTER": false,
	"CALL": false, "LOAD": false, "CSV": false,
	"FOREACH": false, "IMPORT": false, "EXPORT": false,
	"GRANT": false, "DENY": false, "REVOKE": false,
	"ADMIN": false, "DBMS": false, "TERMINATE": false, "KILL": false,
	"USE": false, "INSTALL": false, "START": false, "STOP": false,
}

// readEntryClauses are the clauses a query may open with.
var readEntryClauses = map[string]bool{
	"MATCH": true, "OPTIONAL": true, "RETURN": true, "WITH": true,
	"UNWIND": true, "SHOW": true, "EXPLAIN": true, "PROFILE": true,
}

// Guard classifies raw query text as safe-to-read or rejected. It is a pure
// classification: no store access, no side effects, safe for concurrent use.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Validate classifies query text against the read-only policy. Matching is
// whole-token and case-insensitive: an identifier that merely contains a
// mutating verb (a column named "setting", a label named "Created") passes.
func (g *Guard) Validate(query string) Verdict {
	tokens := lexWords(stripNonCode(query))
	if len(tokens) == 0 {
		return Verdict{Allowed: false, Reason: "query is empty"}
	}

	first := strings.ToUpper(tokens[0])
	if !readEntryClauses[first] {
		return Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("query must start with a read clause (MATCH, RETURN, WITH, UNWIND, ...), got %q", tokens[0]),
		}
	}

	for _, tok := range tokens {
		upper := strings.ToUpper(tok)
		if readOnly, known := clauseKeywords[upper]; known && !readOnly {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("clause %q is not permitted: only read-only queries are allowed", upper),
			}
		}
	}

	return Verdict{Allowed: true}
}

// stripNonCode removes comments, string literals, and escaped identifiers so
// their contents cannot be mistaken for clause keywords, and so a mutation
// cannot hide inside a comment boundary trick.
func stripNonCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "//"):
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 4
			}
			b.WriteByte(' ')
		case s[i] == '\'' || s[i] == '"' || s[i] == '`':
			quote := s[i]
			i++
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					i += 2
					continue
				}
				if s[i] == quote {
					i++
					break
				}
				i++
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// lexWords splits code text into identifier-shaped tokens.
func lexWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
