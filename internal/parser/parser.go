// Package parser turns a backend's free-form reply into a validated
// query.Result.
package parser

import (
	"fmt"
	"strings"

	"github.com/hpkotak/sqlbud/internal/query"
)

// SystemTablesMessage is returned when generated SQL reads a catalog namespace.
const SystemTablesMessage = "Generated query accesses system tables. Please query user tables only."

var protectedNamespaces = []string{"information_schema", "pg_catalog"}

var explanationErrorPhrases = []string{
	"cannot generate query",
	"cannot create query",
	"unable to generate",
	"does not exist",
	"do not exist",
	"table not found",
	"column not found",
	"no such table",
	"no such column",
}

var warningErrorPhrases = []string{"error:", "does not exist", "do not exist"}

// Parse extracts and validates a backend reply.
func Parse(raw string, allowSystemTables bool) query.Result {
	return Validate(Extract(raw), allowSystemTables)
}

// Validate applies the validation cascade to an extracted document:
// error signals, then empty SQL, then the system-table guard.
func Validate(doc Document, allowSystemTables bool) (res query.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = internalError(fmt.Errorf("%v", r))
		}
	}()

	sql, err := doc.SQL()
	if err != nil {
		return internalError(err)
	}
	explanation, err := doc.Explanation()
	if err != nil {
		return internalError(err)
	}
	warnings := doc.Warnings()

	if HasErrorIndicators(explanation, warnings) {
		return query.Result{
			Explanation:  explanation,
			Warnings:     warnings,
			ErrorMessage: explanation,
		}
	}

	if sql == "" {
		return query.Result{
			Explanation: explanation,
			Warnings:    warnings,
			Success:     true,
		}
	}

	if !allowSystemTables && AccessesSystemTables(sql) {
		return query.Failure(SystemTablesMessage)
	}

	rowLimit, err := doc.RowLimitApplied()
	if err != nil {
		return internalError(err)
	}
	viz, err := doc.SuggestedVisualization()
	if err != nil {
		return internalError(err)
	}
	return query.Result{
		GeneratedQuery:         sql,
		Explanation:            explanation,
		Warnings:               warnings,
		RowLimitApplied:        rowLimit,
		SuggestedVisualization: viz,
		Success:                true,
	}
}

// AccessesSystemTables reports whether sql mentions information_schema or
// pg_catalog anywhere, ignoring case.
func AccessesSystemTables(sql string) bool {
	lower := strings.ToLower(sql)
	for _, ns := range protectedNamespaces {
		if strings.Contains(lower, ns) {
			return true
		}
	}
	return false
}

// HasErrorIndicators reports whether the explanation or any warning carries
// language signalling that no valid query could be produced.
func HasErrorIndicators(explanation string, warnings []string) bool {
	if containsAny(strings.ToLower(explanation), explanationErrorPhrases) {
		return true
	}
	for _, w := range warnings {
		if containsAny(strings.ToLower(w), warningErrorPhrases) {
			return true
		}
	}
	return false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func internalError(err error) query.Result {
	return query.Failure("Internal error: " + err.Error())
}
