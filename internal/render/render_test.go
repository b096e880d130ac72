package render

import (
	"encoding/json"
	"testing"

	"github.com/hpkotak/sqlbud/internal/config"
	"github.com/hpkotak/sqlbud/internal/query"
)

var allSections = Options{ShowExplanation: true, ShowWarnings: true, ShowSuggestedVisualization: true}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		res  query.Result
		opts Options
		want string
	}{
		{
			name: "query only",
			res:  query.Result{GeneratedQuery: "SELECT 1", Explanation: "one", Success: true},
			opts: Options{},
			want: "SELECT 1",
		},
		{
			name: "all sections single warning",
			res: query.Result{
				GeneratedQuery:         "SELECT * FROM users LIMIT 1000",
				Explanation:            "Lists users",
				Warnings:               []string{"large table"},
				RowLimitApplied:        true,
				SuggestedVisualization: "table",
				Success:                true,
			},
			opts: allSections,
			want: "SELECT * FROM users LIMIT 1000" +
				"\n\n-- Explanation:\n-- Lists users" +
				"\n\n-- Warning: large table" +
				"\n\n-- Suggested Visualization:\n-- table" +
				"\n\n-- Note: Row limit was automatically applied to this query for safety",
		},
		{
			name: "numbered warnings",
			res:  query.Result{GeneratedQuery: "SELECT 1", Warnings: []string{"a", "b"}, Success: true},
			opts: allSections,
			want: "SELECT 1\n\n-- Warnings:\n--   1. a\n--   2. b",
		},
		{
			name: "failure",
			res:  query.Failure("Empty response from AI service"),
			opts: allSections,
			want: "Error: Empty response from AI service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.res, tt.opts)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	res := query.Result{
		GeneratedQuery:         "SELECT * FROM t WHERE a < 3",
		Explanation:            "small a",
		Warnings:               []string{},
		SuggestedVisualization: "bar",
		Success:                true,
	}
	got, err := Format(res, Options{JSON: true, ShowExplanation: true, ShowWarnings: true})
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	want := "{\n  \"explanation\": \"small a\",\n  \"query\": \"SELECT * FROM t WHERE a < 3\",\n  \"success\": true\n}"
	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatJSONFailureAndRowLimit(t *testing.T) {
	got, err := Format(query.Failure("boom"), Options{JSON: true})
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["error"] != "boom" || decoded["success"] != false {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded["row_limit_applied"]; ok {
		t.Error("row_limit_applied present although false")
	}

	got, _ = Format(query.Result{GeneratedQuery: "SELECT 1", RowLimitApplied: true, Success: true}, Options{JSON: true})
	decoded = nil
	_ = json.Unmarshal([]byte(got), &decoded)
	if decoded["row_limit_applied"] != true {
		t.Errorf("row_limit_applied = %v, want true", decoded["row_limit_applied"])
	}
}

func TestOptionsFromConfig(t *testing.T) {
	got := OptionsFromConfig(config.Response{UseFormattedResponse: true, ShowWarnings: true})
	want := Options{JSON: true, ShowWarnings: true}
	if got != want {
		t.Errorf("OptionsFromConfig() = %+v, want %+v", got, want)
	}
}
