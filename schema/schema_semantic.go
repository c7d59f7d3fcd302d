package schema

// SearchHit is one ranked result of a semantic commit search.
type SearchHit struct {
	Commit CommitRecord `json:"commit"`
	Score  float64      `json:"score"` // Cosine similarity in [-1, 1]
}

// Answer is the response to a free-form question about a repository.
type Answer struct {
	Question string       `json:"question"`
	Kind     QuestionKind `json:"kind"`
	Text     string       `json:"text"`
	Hits     []SearchHit  `json:"hits"`
}
