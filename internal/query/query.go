// Package query defines the request and result types of the NL-to-SQL pipeline.
package query

import "fmt"

// Request is one natural-language generation request.
type Request struct {
	NaturalLanguage string
	// APIKey is an optional caller-supplied credential.
	APIKey string
	// Provider is the provider preference: a canonical name, "auto" or empty.
	Provider string
	// Model overrides the configured model when non-empty.
	Model             string
	AllowSystemTables bool
}

// Result is the outcome of a generation request. A successful Result never
// carries an ErrorMessage.
type Result struct {
	GeneratedQuery         string   `json:"generated_query"`
	Explanation            string   `json:"explanation"`
	Warnings               []string `json:"warnings"`
	RowLimitApplied        bool     `json:"row_limit_applied"`
	SuggestedVisualization string   `json:"suggested_visualization"`
	Success                bool     `json:"success"`
	ErrorMessage           string   `json:"error_message,omitempty"`
}

// Failure returns a failed Result carrying msg.
func Failure(msg string) Result {
	return Result{Warnings: []string{}, ErrorMessage: msg}
}

// ValidateRequest checks the natural-language text before any backend is
// contacted. It returns the user-facing message, or "" when text is usable.
func ValidateRequest(text string, maxLength int) string {
	if text == "" {
		return "Natural language query cannot be empty"
	}
	if maxLength > 0 && len(text) > maxLength {
		return fmt.Sprintf("Query too long. Maximum %d characters allowed. Your query: %d characters.", maxLength, len(text))
	}
	return ""
}
