package semantic

import (
	"strings"

	"github.com/huangsam/repolens/schema"
)

// routes are checked in order; the first kind with a keyword contained in the
// lowercased question wins.
var routes = []struct {
	kind     schema.QuestionKind
	keywords []string
}{
	{schema.SemanticQuestion, []string{"similar", "like", "related", "same as", "comparable"}},
	{schema.EvolutionQuestion, []string{"evolve", "change over time", "history", "progression", "timeline", "drift", "transform"}},
	{schema.ImpactQuestion, []string{"impact", "affect", "consequence", "result", "cause"}},
	{schema.PatternQuestion, []string{"pattern", "trend", "common", "frequent", "typical"}},
	{schema.CollaborationQuestion, []string{"who", "author", "contributor", "team", "collaborate"}},
}

// Route picks the kind of question by substring keywords, falling back to general.
func Route(question string) schema.QuestionKind {
	q := strings.ToLower(question)
	for _, r := range routes {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.kind
			}
		}
	}
	return schema.GeneralQuestion
}

// contextLimit is how many hits back an answer of the given kind.
func contextLimit(kind schema.QuestionKind) int {
	if kind == schema.GeneralQuestion {
		return 5
	}
	return 10
}

var focus = map[schema.QuestionKind]string{
	schema.SemanticQuestion:      "Group the commits by what they have in common and name the dominant commit type.",
	schema.EvolutionQuestion:     "Describe how the work changed over time, oldest to newest, using the timestamps.",
	schema.ImpactQuestion:        "Explain which changes likely affected other parts of the code and what followed from them.",
	schema.PatternQuestion:       "Point out recurring kinds of changes and how often they appear.",
	schema.CollaborationQuestion: "Say who made these changes and how the authors' work relates.",
	schema.GeneralQuestion:       "Summarize what these commits show about the repository.",
}

const systemPrompt = "You are a software archaeologist. Answer questions about a Git repository " +
	"using only the commits provided. Be concise and cite short hashes."
