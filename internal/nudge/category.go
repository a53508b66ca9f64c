package nudge

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is an intention the user has chosen to work with.
type Category string

const (
	CategoryCalm       Category = "calm"
	CategoryClarity    Category = "clarity"
	CategoryFocus      Category = "focus"
	CategoryRest       Category = "rest"
	CategoryConnection Category = "connection"

	// CategoryMixed stands in whenever zero or several intentions are active.
	CategoryMixed Category = "mixed"
)

// MaxIntentions is how many intentions may be active at once.
const MaxIntentions = 2

// AllCategories returns the concrete categories in display order.
func AllCategories() []Category {
	return []Category{CategoryCalm, CategoryClarity, CategoryFocus, CategoryRest, CategoryConnection}
}

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryCalm:
		return "Calm"
	case CategoryClarity:
		return "Clarity"
	case CategoryFocus:
		return "Focus"
	case CategoryRest:
		return "Rest"
	case CategoryConnection:
		return "Connection"
	case CategoryMixed:
		return "Mixed"
	default:
		return string(c)
	}
}

// ParseCategory folds case and surrounding space and matches the result
// against the known categories, including mixed.
func ParseCategory(s string) (Category, bool) {
	folded := cases.Fold().String(strings.TrimSpace(s))
	if folded == string(CategoryMixed) {
		return CategoryMixed, true
	}
	for _, c := range AllCategories() {
		if folded == string(c) {
			return c, true
		}
	}
	return "", false
}

// Normalize reduces the active intentions to exactly one category.
// Unknown and empty entries are dropped and duplicates collapse. One
// distinct category is returned as is; none or several yield mixed.
func Normalize(raw []string) Category {
	seen := make(map[Category]bool, len(raw))
	var distinct []Category
	for _, r := range raw {
		c, ok := ParseCategory(r)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		distinct = append(distinct, c)
	}
	if len(distinct) == 1 {
		return distinct[0]
	}
	return CategoryMixed
}
