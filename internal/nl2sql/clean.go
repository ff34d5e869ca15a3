package nl2sql

import (
	"regexp"
	"strings"
)

// A fence is a run of three or more backticks. A word glued to it is an info
// string (sql, sqlite3, postgresql, ...) unless it is a statement keyword, so
// "```SELECT" stays a query.
var fencePattern = regexp.MustCompile("`{3,}([A-Za-z][A-Za-z0-9_+.-]*)?")

var statementKeywords = map[string]struct{}{
	"select": {}, "with": {}, "insert": {}, "update": {}, "delete": {},
	"merge": {}, "create": {}, "drop": {}, "alter": {}, "explain": {},
	"values": {}, "table": {}, "show": {}, "describe": {}, "pragma": {},
	"from": {}, "summarize": {}, "pivot": {}, "unpivot": {}, "call": {},
}

var lineBreakPattern = regexp.MustCompile(`[\r\n]+`)

type cleanRule struct {
	name  string
	apply func(string) string
}

// cleanRules run in order over the raw completion text.
var cleanRules = []cleanRule{
	{name: "strip-code-fences", apply: stripCodeFences},
	{name: "flatten-line-breaks", apply: flattenLineBreaks},
	{name: "trim-space", apply: strings.TrimSpace},
}

// CleanSQL turns a raw completion into a single-line statement with no
// markdown fences and no surrounding whitespace.
func CleanSQL(raw string) string {
	cleaned := raw
	for _, rule := range cleanRules {
		cleaned = rule.apply(cleaned)
	}
	return cleaned
}

func stripCodeFences(value string) string {
	return fencePattern.ReplaceAllStringFunc(value, func(fence string) string {
		word := strings.TrimLeft(fence, "`")
		if _, keyword := statementKeywords[strings.ToLower(word)]; keyword {
			return " " + word
		}
		return " "
	})
}

func flattenLineBreaks(value string) string {
	return lineBreakPattern.ReplaceAllString(value, " ")
}
