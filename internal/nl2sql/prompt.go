package nl2sql

import (
	"fmt"
	"strings"
)

// generationRules is fixed for the process; callers cannot extend it per request.
var generationRules = []string{
	"Write a single %s query.",
	`Wrap every table and column name in double quotes, exactly as written in the schema (for example "vendas_detalhadas"."QTD_VENDA").`,
	"Do NOT add a WHERE clause unless the user explicitly asks for a filter (by time, customer, product, etc.).",
	`To return a specific number of items (for example "top 5" or "the 10 largest"), finish the query with LIMIT <number>.`,
	"Answer ONLY with the SQL code: no explanations, no comments, no markdown and no backticks (```).",
}

// BuildPrompt renders the completion prompt. It is a pure function: the same
// inputs always produce byte-identical output.
func BuildPrompt(req Request) string {
	dialect := req.Dialect
	if dialect == "" {
		dialect = DialectPostgres
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your task is to translate a user's question into a valid %s SQL query, based on the schema below.\n\n", dialect)
	b.WriteString("Schema:\n")
	b.WriteString(strings.TrimSpace(req.Schema))
	b.WriteString("\n\nIMPORTANT RULES:\n")
	for i, rule := range generationRules {
		if strings.Contains(rule, "%s") {
			rule = fmt.Sprintf(rule, dialect)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	fmt.Fprintf(&b, "\nUser question: %q\n\nSQL:", strings.TrimSpace(req.Question))
	return b.String()
}
