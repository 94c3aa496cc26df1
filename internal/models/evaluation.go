package models

// Findings holds the index-aligned phrase lists an evaluation returns for one category.
type Findings struct {
	Context    []string `json:"context"`
	Suggestion []string `json:"suggestion"`
	Reasoning  []string `json:"reasoning"`
}

// EmptyFindings returns findings with non-nil empty lists, so they encode as [] rather than null.
func EmptyFindings() Findings {
	return Findings{Context: []string{}, Suggestion: []string{}, Reasoning: []string{}}
}

// EvaluationResult is the evaluation output for a single category.
type EvaluationResult struct {
	Type  Category `json:"type"`
	Edits Findings `json:"edits"`
}

// Session identifies one review session and the lifetime of its token.
type Session struct {
	ID        string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
