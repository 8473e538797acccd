package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
)

const productCopyPromptTemplate = `Write marketing copy for this product.

Product: %s
Type: %s
Target users: %s
Key features: %s
Benefits: %s
Price: %s

Respond with JSON only:
{"tagline": "short punchy tagline, under 10 words",
 "headline": "one-sentence headline",
 "description": "2-3 paragraph product description"}`

type productCopy struct {
	Tagline     string `json:"tagline"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// BuildProductPage assembles the product page bundle. The marketing copy
// comes from the completion backend with deterministic fallbacks; the
// structured sections come straight from the logic blocks.
func (s *Stages) BuildProductPage(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	p, err := parsedProduct(view)
	if err != nil {
		return nil, fmt.Errorf("product_page: %w", err)
	}

	update := &pipeline.Update{Artifacts: map[string]any{}}

	copyText, source := s.generateCopy(ctx, view.RunID, p, update)

	update.Artifacts[StageProductPage] = &ProductPageContent{
		Tagline:     copyText.Tagline,
		Headline:    copyText.Headline,
		Description: copyText.Description,
		Features:    featuresBlock(p),
		Benefits:    benefitsBlock(p),
		Usage:       usageBlock(p),
		Safety:      safetyBlock(p),
		Price:       p.Price,
		Metadata: Metadata{
			ProductName:   p.Name,
			GeneratedBy:   StageProductPage,
			RunID:         view.RunID,
			ContentSource: source,
		},
	}
	update.Logs = append(update.Logs, "product page built")
	s.logger.Info("product page built", "run_id", view.RunID, "copy_source", source)
	return update, nil
}

func (s *Stages) generateCopy(ctx context.Context, runID string, p *product.Product, update *pipeline.Update) (productCopy, string) {
	prompt := fmt.Sprintf(productCopyPromptTemplate,
		p.Name, p.ProductType, audience(p),
		strings.Join(p.KeyFeatures, ", "), strings.Join(p.Benefits, ", "), p.Price)

	text, metrics, err := s.completer.Complete(ctx, prompt)
	if err == nil {
		recordCall(update, StageProductPage, metrics, prompt)

		var c productCopy
		if perr := parseJSONResponse(text, &c); perr == nil && c.Tagline != "" && c.Description != "" {
			if c.Headline == "" {
				c.Headline = fallbackCopy(p).Headline
			}
			return c, "llm"
		}
		update.Logs = append(update.Logs, "product copy unparseable, using fallback")
	} else {
		s.logger.Warn("product copy generation failed, using fallback", "run_id", runID, "error", err)
		update.Logs = append(update.Logs, "product copy fell back to templates: "+err.Error())
	}
	return fallbackCopy(p), "fallback"
}

func fallbackCopy(p *product.Product) productCopy {
	lead := p.Name
	if len(p.Benefits) > 0 {
		lead = fmt.Sprintf("%s: %s", p.Name, p.Benefits[0])
	}
	return productCopy{
		Tagline:  lead,
		Headline: fmt.Sprintf("Meet %s, the %s made for %s.", p.Name, p.ProductType, audience(p)),
		Description: fmt.Sprintf(
			"%s is a %s designed for %s. It combines %s to deliver %s. %s Available at %s.",
			p.Name, p.ProductType, audience(p),
			strings.Join(p.KeyFeatures, ", "), strings.ToLower(strings.Join(p.Benefits, ", ")),
			p.HowToUse, p.Price),
	}
}
