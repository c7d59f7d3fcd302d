package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHits() []schema.SearchHit {
	commits := sampleAnalysis().Commits
	return []schema.SearchHit{
		{Commit: commits[0], Score: 0.91},
		{Commit: commits[1], Score: 0.42},
	}
}

func TestWriteSearchResults(t *testing.T) {
	cfg := testConfig(t, schema.TextOut, "hits.txt")
	require.NoError(t, NewOutWriter().WriteSearchHits("widget api", sampleHits(), cfg))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "0.91")
	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, `Showing 2 commits for "widget api"`)

	cfg = testConfig(t, schema.TextOut, "none.txt")
	require.NoError(t, WriteSearchResults("nothing", nil, cfg))
	assert.Contains(t, readOutput(t, cfg), `No commits matched "nothing"`)
}

func TestWriteSearchResultsJSONAndCSV(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut, "hits.json")
	require.NoError(t, WriteSearchResults("widget", sampleHits(), cfg))
	var decoded struct {
		Query string             `json:"query"`
		Hits  []schema.SearchHit `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
	assert.Equal(t, "widget", decoded.Query)
	assert.Equal(t, sampleHits(), decoded.Hits)

	cfg = testConfig(t, schema.CSVOut, "hits.csv")
	require.NoError(t, WriteSearchResults("widget", sampleHits(), cfg))
	rows, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "0.91"}, rows[1][:2])
}

func TestWriteAnswerResult(t *testing.T) {
	answer := &schema.Answer{
		Question: "Who works on widgets?",
		Kind:     schema.CollaborationQuestion,
		Text:     "Mostly **Alice**.",
		Hits:     sampleHits(),
	}

	cfg := testConfig(t, schema.TextOut, "answer.md")
	require.NoError(t, NewOutWriter().WriteAnswer(answer, cfg))
	out := readOutput(t, cfg)
	// Writing to a file keeps plain markdown.
	assert.Contains(t, out, "## Who works on widgets?")
	assert.Contains(t, out, "*Question type: collaboration*")
	assert.Contains(t, out, "Mostly **Alice**.")
	assert.Contains(t, out, "- `aaaaaaaa` feat: add widget API (Alice, 0.91)")

	cfg = testConfig(t, schema.JSONOut, "answer.json")
	require.NoError(t, WriteAnswerResult(answer, cfg))
	var decoded schema.Answer
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
	assert.Equal(t, *answer, decoded)

	cfg = testConfig(t, schema.CSVOut, "answer.csv")
	assert.Error(t, WriteAnswerResult(answer, cfg))
	assert.Error(t, WriteAnswerResult(nil, cfg))
}

func TestRenderMarkdown(t *testing.T) {
	md := "# Title\n\nSome *text*.\n"
	assert.Equal(t, md, renderMarkdown(md, 80, false))

	styled := renderMarkdown(md, 80, true)
	assert.Contains(t, styled, "Title")
	assert.Contains(t, styled, "text")
}

func TestAnswerMarkdownWithoutHits(t *testing.T) {
	md := answerMarkdown(&schema.Answer{Question: "Q?", Kind: schema.GeneralQuestion, Text: "  A.  "})
	assert.Equal(t, "## Q?\n\n*Question type: general*\n\nA.\n", md)
}
