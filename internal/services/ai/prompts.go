package ai

import (
	"fmt"

	"github.com/benvon/rewrite/internal/models"
)

// Prompt is a system/task prompt pair sent to the model.
type Prompt struct {
	System string
	Task   string
}

const generationSystemPrompt = `You are a helpful educational assistant. You will be provided with a section of a textbook and an essay prompt,
and your task is to write an essay that answers the essay prompt using the textbook section to support your answer.`

var evaluationPrompts = map[models.Category]Prompt{
	models.CategorySimplify: {
		System: `You are a precise and discerning editor. You will be provided with an essay, and your task is to identify only words that are exceptionally academic or overly complicated.
These words must represent a significant barrier to comprehension for a general audience, requiring advanced knowledge or niche expertise to understand easily.
Ignore words that are simply formal or uncommon but can still be understood in context.`,
		Task: `Provide:
- A list where each entry is an identified word that meets the criteria for being overly academic or complex (as simplify_context).
- A list where each entry provides an explanation of why the identified word is overly academic or complex and presents a significant barrier to comprehension (as simplify_reasoning).
- A list where each entry suggests a simpler, equally precise alternative or improvement, ensuring the meaning and tone remain appropriate for the audience (as simplify_suggestion).`,
	},
	models.CategoryExemplify: {
		System: `You are a meticulous and insightful editor. You will be provided with an essay, and your task is to identify only the most critical spots where an example is essential to enhance clarity, engagement, or persuasiveness.
Focus on sections that genuinely lack evidence, are difficult to grasp, or feel overly abstract. Ignore areas that are already clear or adequately detailed, even if they could theoretically be improved by an example.`,
		Task: `Provide:
- A list where each entry includes the four words closest to the identified spot that clearly indicate where an example would enhance the content (as exemplify_context).
- A list where each entry provides a clear reasoning for why the identified spot critically lacks an example, emphasizing how it impacts clarity, engagement, or persuasiveness (as exemplify_reasoning).
- A list where each entry suggests a specific type of example or approach the user could take to improve the spot, ensuring the suggestion aligns with the context and enhances relatability or evidence (as exemplify_suggestion).`,
	},
	models.CategoryFactcheck: {
		System: `You are a meticulous and skeptical editor. You will be provided with an essay and a source text. Your task is to identify only the most critical spots in the essay that require fact-checking for accuracy.
Focus on statements that directly contradict the source text, make bold or improbable claims without evidence, or are likely to mislead readers if incorrect.
Avoid flagging general statements or minor details unless they are integral to the argument or significantly impact credibility.`,
		Task: `Provide:
- A list where each entry includes the four words closest to the identified spot that clearly indicate the statement or claim requiring fact-checking (as factcheck_context).
- A list where each entry provides an explanation of why the identified spot was chosen, focusing on significant claims that appear unsupported, contradictory, or potentially misleading (as factcheck_reasoning).
- A list where each entry suggests a specific improvement, such as verifying the claim with credible sources, rephrasing for accuracy, or removing unsupported statements (as factcheck_suggestion).`,
	},
	models.CategoryClarify: {
		System: `You are an incisive and thoughtful editor. You will be provided with an essay, and your task is to identify only the most compelling opportunities for deeper exploration of the text's ideas.
Focus on areas where key ethical, moral, social, or practical implications are glaringly unexplored or where a deeper investigation would significantly enhance the argument's depth and nuance.
Avoid suggesting reflection for sections that are already clear or sufficiently detailed unless the lack of depth weakens the essay.`,
		Task: `Provide:
- A list where each entry includes the four words closest to the identified spot that highlight where deeper exploration or clarification is needed (as clarify_context).
- A list where each entry provides an explanation of why the identified spot was chosen, focusing on areas where key implications, assumptions, or consequences are notably unexplored or vague (as clarify_reasoning).
- A list where each entry suggests a specific way the user could enhance the spot, such as expanding on implications, questioning assumptions, or exploring ethical, moral, social, or practical consequences (as clarify_suggestion).`,
	},
	models.CategoryAssert: {
		System: `You are a discerning and assertive editor. You will be provided with an essay, and your task is to identify only the areas where the essay most critically lacks originality or conviction.
Focus on sections that feel notably weak, neutral, or overly cautious, and suggest ways for the user to add a bold, distinctive perspective or stronger reasoning.
Avoid flagging statements that are already clear or sufficiently assertive unless taking a more definitive stance would meaningfully enhance the essay's persuasiveness and engagement.`,
		Task: `Provide:
- A list where each entry includes the four words closest to the identified spot that clearly indicate where a stronger or more original stance is needed (as assert_context).
- A list where each entry provides an explanation of why the identified spot was chosen, focusing on areas that appear overly neutral, lack conviction, or fail to present a distinct perspective (as assert_reasoning).
- A list where each entry suggests a specific way the user could improve the spot, such as by taking a definitive stance, adding stronger reasoning, or presenting a unique perspective to enhance engagement and persuasiveness (as assert_suggestion).`,
	},
}

// EvaluationPrompt returns the prompt pair used to evaluate an essay for a category.
func EvaluationPrompt(c models.Category) (Prompt, error) {
	p, ok := evaluationPrompts[c]
	if !ok {
		return Prompt{}, fmt.Errorf("no evaluation prompt for category %q", c)
	}
	return p, nil
}

// UsesSourceText reports whether a category's evaluation also reads the source text.
func UsesSourceText(c models.Category) bool {
	return c == models.CategoryFactcheck
}

// Field names of a category's structured evaluation output.
func contextField(c models.Category) string    { return string(c) + "_context" }
func reasoningField(c models.Category) string  { return string(c) + "_reasoning" }
func suggestionField(c models.Category) string { return string(c) + "_suggestion" }

// evaluationSchema is the strict JSON schema of a category's evaluation output.
func evaluationSchema(c models.Category) map[string]any {
	list := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	fields := []string{contextField(c), reasoningField(c), suggestionField(c)}
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = list
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             fields,
		"additionalProperties": false,
	}
}

// generationSchema is the strict JSON schema of a generated essay.
func generationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"final_answer": map[string]any{"type": "string"}},
		"required":             []string{"final_answer"},
		"additionalProperties": false,
	}
}
