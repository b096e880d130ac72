// Package prompt builds the instructions sent to the backend: a fixed system
// prompt and a per-request user prompt with optional schema context.
package prompt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hpkotak/sqlbud/internal/schema"
)

// maxDetailedTables bounds how many mentioned tables get column details.
const maxDetailedTables = 3

const systemPromptBase = `You are SQLBud, a PostgreSQL query generator. You convert natural language requests into SQL.

Respond with a single JSON object and nothing else:
{
  "sql": "the SQL statement, or an empty string when no query is needed",
  "explanation": "one or two sentences describing what the query does",
  "warnings": ["optional caveats, e.g. performance or ambiguity"],
  "row_limit_applied": true or false,
  "suggested_visualization": "table, bar, line, pie or scatter"
}

RULES:
1. Use only the tables and columns listed in the schema context. Never invent names.
2. Never query information_schema or pg_catalog.
3. Prefer read-only SELECT or WITH statements unless the request clearly asks for a change.
4. Use explicit JOINs that follow the foreign keys shown in the schema.
5. If the request cannot be answered with the available tables, set "sql" to "" and start the
   explanation with "Cannot generate query:" followed by the reason and the available table names.`

// SystemPrompt returns the fixed system prompt. When enforceLimit is true it
// asks the model to cap result sets at limit rows.
func SystemPrompt(enforceLimit bool, limit int) string {
	if !enforceLimit {
		return systemPromptBase
	}
	return systemPromptBase + fmt.Sprintf(`
6. Apply LIMIT %d to queries that may return many rows unless the request specifies otherwise,
   and set "row_limit_applied" to true when you do.`, limit)
}

// SchemaContext is the schema information gathered for one request.
type SchemaContext struct {
	Tables  []schema.Table
	Details []schema.TableDetails
}

// Format renders the context block appended to the user prompt.
func (c *SchemaContext) Format() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(FormatSchema(c.Tables))
	for _, d := range c.Details {
		b.WriteString("\n")
		b.WriteString(FormatTableDetails(d))
	}
	return b.String()
}

// Build returns the user prompt for request. A nil sc adds no schema block.
func Build(request string, sc *SchemaContext) string {
	var b strings.Builder
	b.WriteString("Generate a PostgreSQL query for this request:\n\n")
	b.WriteString("Request: " + request + "\n")

	if ctxText := sc.Format(); ctxText != "" {
		b.WriteString("Schema info:\n" + ctxText + "\n")
	}
	return b.String()
}

// FormatSchema lists every table with its kind and approximate row count.
func FormatSchema(tables []schema.Table) string {
	var b strings.Builder
	b.WriteString("=== DATABASE SCHEMA ===\n")
	b.WriteString("IMPORTANT: These are the ONLY tables available in this database:\n\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "- %s (%s, ~%d rows)\n", t.QualifiedName(), t.Kind, t.ApproxRows)
	}
	if len(tables) == 0 {
		b.WriteString("- No user tables found in database\n")
	}
	b.WriteString("\nCRITICAL: If user asks for tables not listed above, return an error with available table names.\n")
	b.WriteString("Do NOT query information_schema or pg_catalog tables.\n")
	return b.String()
}

// FormatTableDetails renders the columns and indexes of one table.
func FormatTableDetails(d schema.TableDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== TABLE: %s.%s ===\n\n", d.Schema, d.Name)
	b.WriteString("COLUMNS:\n")
	for _, c := range d.Columns {
		fmt.Fprintf(&b, "- %s (%s)", c.Name, c.Type)
		if c.PrimaryKey {
			b.WriteString(" [PRIMARY KEY]")
		}
		if c.ForeignKey {
			fmt.Fprintf(&b, " [FK -> %s.%s]", c.FKTable, c.FKColumn)
		}
		if !c.Nullable {
			b.WriteString(" [NOT NULL]")
		}
		if c.Default != "" {
			fmt.Fprintf(&b, " [DEFAULT: %s]", c.Default)
		}
		b.WriteString("\n")
	}

	if len(d.Indexes) > 0 {
		b.WriteString("\nINDEXES:\n")
		for _, idx := range d.Indexes {
			b.WriteString("- " + idx + "\n")
		}
	}
	return b.String()
}

// GatherContext lists the schema and describes up to three tables whose
// name appears literally in request, in listing order. Listing failures
// yield nil; a table that cannot be described is skipped. Errors are never
// returned: the prompt is still usable without context.
func GatherContext(ctx context.Context, in schema.Introspector, request string, logger *slog.Logger) *SchemaContext {
	if in == nil {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tables, err := in.ListTables(ctx)
	if err != nil {
		logger.Debug("schema context unavailable", slog.String("error", err.Error()))
		return nil
	}

	sc := &SchemaContext{Tables: tables}
	for _, t := range mentionedTables(tables, request) {
		d, err := in.DescribeTable(ctx, t.Name, t.Schema)
		if err != nil {
			logger.Debug("table details unavailable",
				slog.String("table", t.QualifiedName()),
				slog.String("error", err.Error()))
			continue
		}
		sc.Details = append(sc.Details, d)
	}
	return sc
}

func mentionedTables(tables []schema.Table, request string) []schema.Table {
	var out []schema.Table
	for _, t := range tables {
		if len(out) == maxDetailedTables {
			break
		}
		if t.Name != "" && strings.Contains(request, t.Name) {
			out = append(out, t)
		}
	}
	return out
}
