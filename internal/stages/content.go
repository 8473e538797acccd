package stages

import (
	"strings"

	"github.com/dusk-indust/contentgen/internal/product"
)

// Metadata is attached to every generated page.
type Metadata struct {
	ProductName   string `json:"product_name"`
	GeneratedBy   string `json:"generated_by"`
	RunID         string `json:"run_id"`
	TotalItems    int    `json:"total_items,omitempty"`
	ContentSource string `json:"content_source,omitempty"`
}

// FAQContent is the fan-in artifact produced by the FAQ stage.
type FAQContent struct {
	Title     string             `json:"title"`
	Questions []product.Question `json:"questions"`
	Metadata  Metadata           `json:"metadata"`
}

// ProductPageContent is the artifact produced by the product page stage.
type ProductPageContent struct {
	Tagline     string         `json:"tagline"`
	Headline    string         `json:"headline"`
	Description string         `json:"description"`
	Features    map[string]any `json:"features"`
	Benefits    map[string]any `json:"benefits"`
	Usage       map[string]any `json:"usage"`
	Safety      map[string]any `json:"safety"`
	Price       string         `json:"price"`
	Metadata    Metadata       `json:"metadata"`
}

// ComparisonContent is the artifact produced by the comparison stage.
type ComparisonContent struct {
	Title          string         `json:"title"`
	ProductA       ProductSummary `json:"product_a"`
	ProductB       ProductSummary `json:"product_b"`
	Features       map[string]any `json:"features"`
	Benefits       map[string]any `json:"benefits"`
	Pricing        map[string]any `json:"pricing"`
	Analysis       string         `json:"analysis"`
	Recommendation string         `json:"recommendation"`
	Metadata       Metadata       `json:"metadata"`
}

// ProductSummary condenses a product record for the comparison page.
type ProductSummary struct {
	Name        string   `json:"name"`
	ProductType string   `json:"product_type"`
	TargetUsers []string `json:"target_users"`
	KeyFeatures []string `json:"key_features"`
	Benefits    []string `json:"benefits"`
	Price       string   `json:"price"`
}

// audience renders the target-user list for prose and prompts.
func audience(p *product.Product) string {
	return strings.Join(p.TargetUsers, ", ")
}

func summarize(p *product.Product) ProductSummary {
	return ProductSummary{
		Name:        p.Name,
		ProductType: p.ProductType,
		TargetUsers: p.TargetUsers,
		KeyFeatures: p.KeyFeatures,
		Benefits:    p.Benefits,
		Price:       p.Price,
	}
}
