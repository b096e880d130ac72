// Package safety classifies generated SQL as read-only, writing or
// destructive using keyword patterns. It is deterministic and independent of
// the model that produced the statement; the result only drives warnings.
package safety

import (
	"regexp"
	"sync"
)

// Level is the safety classification of a statement.
type Level int

const (
	ReadOnly Level = iota
	Write
	Destructive
)

// rule pairs a pattern with an optional exclusion. A statement matching both
// is not flagged by this rule.
type rule struct {
	pattern *regexp.Regexp
	exclude *regexp.Regexp // nil means no exclusion
	level   Level
}

type rawRule struct {
	pattern string
	exclude string
	level   Level
}

var (
	rules     []rule
	rulesOnce sync.Once
	// literals and comments are blanked before matching.
	noise *regexp.Regexp
)

// Ordered by severity: the first matching rule decides.
var statementRules = []rawRule{
	{`\bdrop\s+\w+`, "", Destructive},
	{`\btruncate\b`, "", Destructive},
	{`\bdelete\s+from\b`, `\bwhere\b`, Destructive},
	{`\balter\s+table\b.*\bdrop\b`, "", Destructive},
	{`\bgrant\b`, "", Destructive},
	{`\brevoke\b`, "", Destructive},

	{`\binsert\s+into\b`, "", Write},
	{`\bupdate\s+\S+\s+set\b`, "", Write},
	{`\bdelete\s+from\b`, "", Write},
	{`\bmerge\s+into\b`, "", Write},
	{`\bcopy\s+\S+.*\bfrom\b`, "", Write},
	{`\b(create|alter)\s+\w+`, "", Write},
}

func compileRules() {
	rulesOnce.Do(func() {
		noise = regexp.MustCompile(`'(?:[^']|'')*'|--[^\n]*|/\*.*?\*/`)
		rules = make([]rule, len(statementRules))
		for i, r := range statementRules {
			rules[i].pattern = regexp.MustCompile(`(?is)` + r.pattern)
			if r.exclude != "" {
				rules[i].exclude = regexp.MustCompile(`(?is)` + r.exclude)
			}
			rules[i].level = r.level
		}
	})
}

// Classify examines a SQL statement and returns its safety level.
func Classify(sql string) Level {
	compileRules()
	stripped := noise.ReplaceAllString(sql, " ")
	for _, r := range rules {
		if !r.pattern.MatchString(stripped) {
			continue
		}
		if r.exclude != nil && r.exclude.MatchString(stripped) {
			continue
		}
		return r.level
	}
	return ReadOnly
}

func (l Level) String() string {
	switch l {
	case Write:
		return "write"
	case Destructive:
		return "destructive"
	default:
		return "read-only"
	}
}

// Warning returns a one-line notice for statements that modify data, or ""
// for read-only ones.
func (l Level) Warning() string {
	switch l {
	case Write:
		return "This statement modifies data."
	case Destructive:
		return "This statement is destructive and may permanently remove data or privileges."
	default:
		return ""
	}
}
