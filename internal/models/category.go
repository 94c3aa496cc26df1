package models

// Category is one of the fixed kinds of revision an evaluation can suggest.
type Category string

const (
	CategorySimplify  Category = "simplify"
	CategoryExemplify Category = "exemplify"
	CategoryFactcheck Category = "factcheck"
	CategoryAssert    Category = "assert"
	CategoryClarify   Category = "clarify"
)

var allCategories = []Category{
	CategorySimplify,
	CategoryExemplify,
	CategoryFactcheck,
	CategoryAssert,
	CategoryClarify,
}

// AllCategories returns every category in evaluation order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts s to a Category, reporting whether it is known.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}
