// Package classify labels commits from their message text.
package classify

import (
	"regexp"
	"strings"

	"github.com/huangsam/repolens/schema"
)

// rule pairs a label with the pattern that selects it.
type rule struct {
	label   schema.Classification
	pattern *regexp.Regexp
}

// rules are evaluated top-down against the lower-cased message; the first match wins.
var rules = []rule{
	{schema.FeatureClass, regexp.MustCompile(`feat|feature|add`)},
	{schema.BugfixClass, regexp.MustCompile(`fix|bug|patch`)},
	{schema.RefactorClass, regexp.MustCompile(`refactor|restructure|cleanup`)},
	{schema.DocsClass, regexp.MustCompile(`doc|readme|comment`)},
	{schema.TestClass, regexp.MustCompile(`test|spec`)},
	{schema.StyleClass, regexp.MustCompile(`style|format|lint`)},
}

// Classify maps a commit message to a label. Matching is substring based, so
// "address" counts as a feature and "prefix" as a bugfix.
func Classify(message string) schema.Classification {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.label
		}
	}
	return schema.OtherClass
}

// Keywords returns the descriptive words attached to a label when a commit is
// prepared for embedding. Labels without keywords return nil.
func Keywords(label schema.Classification) []string {
	switch label {
	case schema.FeatureClass:
		return []string{"feature", "enhancement", "addition"}
	case schema.BugfixClass:
		return []string{"bugfix", "fix", "repair"}
	case schema.RefactorClass:
		return []string{"refactoring", "restructure", "cleanup"}
	case schema.DocsClass:
		return []string{"documentation", "docs"}
	case schema.TestClass:
		return []string{"testing", "tests"}
	default:
		return nil
	}
}
