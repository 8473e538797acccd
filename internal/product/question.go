package product

import "strings"

// Category classifies a generated customer question.
type Category string

const (
	CategoryInformational Category = "Informational"
	CategorySafety        Category = "Safety"
	CategoryUsage         Category = "Usage"
	CategoryPurchase      Category = "Purchase"
	CategoryComparison    Category = "Comparison"
)

// Categories lists all categories in their fixed enumeration order. Selection
// and fallback generation iterate in this order so results are deterministic.
var Categories = []Category{
	CategoryInformational,
	CategorySafety,
	CategoryUsage,
	CategoryPurchase,
	CategoryComparison,
}

// ParseCategory maps a free-form category label to a known Category.
// Unknown labels default to Informational.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c
		}
	}
	return CategoryInformational
}

// Question is a single generated customer question, optionally answered for
// the FAQ page.
type Question struct {
	ID              string   `json:"id"`
	Category        Category `json:"category"`
	Text            string   `json:"question"`
	Answer          string   `json:"answer,omitempty"`
	LogicBlocksUsed []string `json:"logic_blocks_used,omitempty"`
}

// Normalize trims the question text and ensures it ends with a question mark.
// Returns false when the text is empty after trimming.
func (q *Question) Normalize() bool {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return false
	}
	if !strings.HasSuffix(q.Text, "?") {
		q.Text += "?"
	}
	return true
}
