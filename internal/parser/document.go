package parser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Stage identifies which extraction step produced a Document.
type Stage int

const (
	// StageFenced: a JSON object inside a ``` fenced block.
	StageFenced Stage = iota + 1
	// StageDirect: the whole reply is a JSON object.
	StageDirect
	// StageRaw: no JSON found; the reply is taken as SQL.
	StageRaw
)

func (s Stage) String() string {
	switch s {
	case StageFenced:
		return "fenced"
	case StageDirect:
		return "direct"
	case StageRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// RawFallbackExplanation is the explanation attached to replies with no JSON.
const RawFallbackExplanation = "Raw LLM output (no JSON detected)"

const defaultVisualization = "table"

// Document is the outcome of extraction: either a JSON object (fenced or
// direct) or the raw reply text. Accessors apply the field defaults.
type Document struct {
	stage Stage
	json  string
	raw   string
}

// Stage reports which extraction step produced d.
func (d Document) Stage() Stage { return d.stage }

var (
	fenceOnce sync.Once
	fenceRe   *regexp.Regexp
)

func fencePattern() *regexp.Regexp {
	fenceOnce.Do(func() {
		fenceRe = regexp.MustCompile("(?is)```[a-z]*\\s*(\\{.*?\\})\\s*```")
	})
	return fenceRe
}

// Extract runs the extraction cascade over a backend reply. The first
// fenced object that parses wins, then the whole reply as an object, then
// the raw text. It never fails.
func Extract(text string) Document {
	if d, ok := extractFenced(text); ok {
		return d
	}
	if d, ok := extractDirect(text); ok {
		return d
	}
	return Document{stage: StageRaw, raw: text}
}

func extractFenced(text string) (Document, bool) {
	m := fencePattern().FindStringSubmatch(text)
	if m == nil || !gjson.Valid(m[1]) {
		return Document{}, false
	}
	return Document{stage: StageFenced, json: m[1]}, true
}

func extractDirect(text string) (Document, bool) {
	trimmed := strings.TrimSpace(text)
	if !gjson.Valid(trimmed) || !gjson.Parse(trimmed).IsObject() {
		return Document{}, false
	}
	return Document{stage: StageDirect, json: trimmed}, true
}

// SQL returns the "sql" field, "" when absent.
func (d Document) SQL() (string, error) {
	if d.stage == StageRaw {
		return d.raw, nil
	}
	return d.stringField("sql", "")
}

// Explanation returns the "explanation" field, "" when absent.
func (d Document) Explanation() (string, error) {
	if d.stage == StageRaw {
		return RawFallbackExplanation, nil
	}
	return d.stringField("explanation", "")
}

// Warnings accepts a list of strings or a single string. Any other shape
// yields an empty list.
func (d Document) Warnings() []string {
	out := []string{}
	if d.stage == StageRaw {
		return out
	}
	v := gjson.Get(d.json, "warnings")
	switch {
	case v.Type == gjson.String:
		return append(out, v.Str)
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				return []string{}
			}
			out = append(out, item.Str)
		}
	}
	return out
}

// RowLimitApplied returns the "row_limit_applied" field, false when absent.
func (d Document) RowLimitApplied() (bool, error) {
	if d.stage == StageRaw {
		return false, nil
	}
	v := gjson.Get(d.json, "row_limit_applied")
	switch v.Type {
	case gjson.Null:
		return false, nil
	case gjson.True, gjson.False:
		return v.Bool(), nil
	default:
		return false, fmt.Errorf("row_limit_applied: expected boolean, got %s", v.Type)
	}
}

// SuggestedVisualization returns the "suggested_visualization" field,
// "table" when absent.
func (d Document) SuggestedVisualization() (string, error) {
	if d.stage == StageRaw {
		return defaultVisualization, nil
	}
	return d.stringField("suggested_visualization", defaultVisualization)
}

// stringField treats a missing or null field as def.
func (d Document) stringField(key, def string) (string, error) {
	v := gjson.Get(d.json, key)
	switch v.Type {
	case gjson.Null:
		return def, nil
	case gjson.String:
		return v.Str, nil
	default:
		return "", fmt.Errorf("%s: expected string, got %s", key, v.Type)
	}
}
