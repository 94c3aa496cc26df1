package review

import (
	"strings"

	"github.com/benvon/rewrite/internal/models"
)

// DefaultFallbackColor is used for categories missing from the color table.
const DefaultFallbackColor = "lightgray"

var categoryColors = map[models.Category]string{
	models.CategoryClarify:   "lightcoral",
	models.CategoryAssert:    "lightgreen",
	models.CategoryFactcheck: "lightblue",
	models.CategoryExemplify: "pink",
	models.CategorySimplify:  "lightsalmon",
}

// Color returns the highlight color of a category.
func Color(c models.Category) (string, bool) {
	color, ok := categoryColors[c]
	return color, ok
}

// Shadow returns the outline declaration drawn for one category.
func Shadow(c models.Category, fallback string) string {
	color, ok := Color(c)
	if !ok {
		color = fallback
	}
	return "0 0 0 2px " + color
}

// Shadows joins one outline declaration per category, in order.
func Shadows(categories []models.Category, fallback string) string {
	decls := make([]string, 0, len(categories))
	for _, c := range categories {
		decls = append(decls, Shadow(c, fallback))
	}
	return strings.Join(decls, ",")
}

// ClassList returns the class attribute value for a marker carrying categories.
func ClassList(categories []models.Category) string {
	if len(categories) == 0 {
		return "highlight-span"
	}
	parts := []string{string(categories[0]) + "_highlight", "highlight-span"}
	for _, c := range categories[1:] {
		parts = append(parts, string(c)+"_highlight")
	}
	return strings.Join(parts, " ")
}

// DefaultSuggestion is substituted for an edit without a suggestion.
func DefaultSuggestion(c models.Category) string {
	return "No suggestion for this " + string(c) + " edit."
}

// DefaultReasoning is substituted for an edit without reasoning.
func DefaultReasoning(c models.Category) string {
	return "No reasoning for this " + string(c) + " edit."
}
