// Package render formats a query.Result for terminals and scripts.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpkotak/sqlbud/internal/config"
	"github.com/hpkotak/sqlbud/internal/query"
)

// Options select the optional sections of the output.
type Options struct {
	JSON                       bool
	ShowExplanation            bool
	ShowWarnings               bool
	ShowSuggestedVisualization bool
}

// OptionsFromConfig maps the response config section to Options.
func OptionsFromConfig(r config.Response) Options {
	return Options{
		JSON:                       r.UseFormattedResponse,
		ShowExplanation:            r.ShowExplanation,
		ShowWarnings:               r.ShowWarnings,
		ShowSuggestedVisualization: r.ShowSuggestedVisualization,
	}
}

const rowLimitNote = "-- Note: Row limit was automatically applied to this query for safety"

// Format renders res as plain SQL with comment sections, or as indented JSON.
func Format(res query.Result, opts Options) (string, error) {
	if opts.JSON {
		return formatJSON(res, opts)
	}
	return formatText(res, opts), nil
}

func formatText(res query.Result, opts Options) string {
	if !res.Success {
		return "Error: " + res.ErrorMessage
	}

	var b strings.Builder
	b.WriteString(res.GeneratedQuery)
	if opts.ShowExplanation && res.Explanation != "" {
		b.WriteString("\n\n-- Explanation:\n-- " + res.Explanation)
	}
	if opts.ShowWarnings && len(res.Warnings) > 0 {
		b.WriteString("\n\n" + formatWarnings(res.Warnings))
	}
	if opts.ShowSuggestedVisualization && res.SuggestedVisualization != "" {
		b.WriteString("\n\n-- Suggested Visualization:\n-- " + res.SuggestedVisualization)
	}
	if res.RowLimitApplied {
		b.WriteString("\n\n" + rowLimitNote)
	}
	return b.String()
}

func formatWarnings(warnings []string) string {
	if len(warnings) == 1 {
		return "-- Warning: " + warnings[0]
	}
	var b strings.Builder
	b.WriteString("-- Warnings:")
	for i, w := range warnings {
		fmt.Fprintf(&b, "\n--   %d. %s", i+1, w)
	}
	return b.String()
}

func formatJSON(res query.Result, opts Options) (string, error) {
	out := map[string]any{
		"query":   res.GeneratedQuery,
		"success": res.Success,
	}
	if !res.Success {
		out["error"] = res.ErrorMessage
	}
	if opts.ShowExplanation && res.Explanation != "" {
		out["explanation"] = res.Explanation
	}
	if opts.ShowWarnings && len(res.Warnings) > 0 {
		out["warnings"] = res.Warnings
	}
	if opts.ShowSuggestedVisualization && res.SuggestedVisualization != "" {
		out["suggested_visualization"] = res.SuggestedVisualization
	}
	if res.RowLimitApplied {
		out["row_limit_applied"] = true
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
