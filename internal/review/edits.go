package review

import (
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/models"
)

// BuildEdits turns evaluation results into located edits. Phrases that
// cannot be located in essay are logged and skipped.
func BuildEdits(essay string, results []models.EvaluationResult, log *zap.Logger) []models.Edit {
	if log == nil {
		log = zap.NewNop()
	}
	var edits []models.Edit
	for _, result := range results {
		for i, phrase := range result.Edits.Context {
			loc, ok := Locate(essay, phrase)
			if !ok {
				log.Warn("phrase_not_found",
					zap.String("category", string(result.Type)),
					zap.String("phrase", logger.SanitizePhrase(phrase)),
				)
				continue
			}
			edits = append(edits, models.Edit{
				Type:       result.Type,
				Phrase:     phrase,
				Suggestion: pick(result.Edits.Suggestion, i, DefaultSuggestion(result.Type)),
				Reasoning:  pick(result.Edits.Reasoning, i, DefaultReasoning(result.Type)),
				StartIndex: loc.Start,
				EndIndex:   loc.End,
			})
		}
	}
	return edits
}

func pick(values []string, i int, fallback string) string {
	if i < len(values) && strings.TrimSpace(values[i]) != "" {
		return values[i]
	}
	return fallback
}

// Counts tallies edits per category. Every known category is present in the result.
func Counts(edits []models.Edit) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		counts[c] = 0
	}
	for _, e := range edits {
		counts[e.Type]++
	}
	return counts
}
