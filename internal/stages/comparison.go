package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
)

const competitorPromptTemplate = `Invent a plausible fictional competitor product for comparison purposes.

Our product:
Name: %s
Type: %s
Target users: %s
Key features: %s
Benefits: %s
Price: %s

Respond with JSON only, same field shapes as above:
{"name": "...", "product_type": "...", "target_users": "...",
 "key_features": ["..."], "benefits": ["..."],
 "how_to_use": "...", "considerations": "...", "price": "..."}`

const analysisPromptTemplate = `Compare these two products in 2-3 sentences for a buyer's guide.

Product A: %s. Features: %s. Benefits: %s. Price: %s.
Product B: %s. Features: %s. Benefits: %s. Price: %s.

Respond with the analysis text only.`

// BuildComparison builds the comparison page: a competitor product from the
// completion backend (synthesized deterministically when the backend fails),
// common/unique feature and benefit sets from the comparison blocks, and a
// short analysis.
func (s *Stages) BuildComparison(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	p, err := parsedProduct(view)
	if err != nil {
		return nil, fmt.Errorf("comparison: %w", err)
	}

	update := &pipeline.Update{Artifacts: map[string]any{}}

	competitor := s.generateCompetitor(ctx, view.RunID, p, update)
	analysis := s.generateAnalysis(ctx, view.RunID, p, competitor, update)

	update.Artifacts[StageComparison] = &ComparisonContent{
		Title:          fmt.Sprintf("%s vs %s", p.Name, competitor.Name),
		ProductA:       summarize(p),
		ProductB:       summarize(competitor),
		Features:       compareFeaturesBlock(p, competitor),
		Benefits:       compareBenefitsBlock(p, competitor),
		Pricing:        pricingBlock(p, competitor),
		Analysis:       analysis,
		Recommendation: recommendation(p, competitor),
		Metadata: Metadata{
			ProductName: p.Name,
			GeneratedBy: StageComparison,
			RunID:       view.RunID,
		},
	}
	update.Logs = append(update.Logs, fmt.Sprintf("comparison built against %q", competitor.Name))
	s.logger.Info("comparison built", "run_id", view.RunID, "competitor", competitor.Name)
	return update, nil
}

func (s *Stages) generateCompetitor(ctx context.Context, runID string, p *product.Product, update *pipeline.Update) *product.Product {
	prompt := fmt.Sprintf(competitorPromptTemplate,
		p.Name, p.ProductType, audience(p),
		strings.Join(p.KeyFeatures, ", "), strings.Join(p.Benefits, ", "), p.Price)

	text, metrics, err := s.completer.Complete(ctx, prompt)
	if err == nil {
		recordCall(update, StageComparison, metrics, prompt)

		var raw map[string]any
		if perr := parseJSONResponse(text, &raw); perr == nil {
			if c, cerr := product.FromRaw(raw); cerr == nil && c.Validate() == nil {
				return c
			}
		}
		update.Logs = append(update.Logs, "competitor response unparseable, synthesizing one")
	} else {
		s.logger.Warn("competitor generation failed, synthesizing one", "run_id", runID, "error", err)
		update.Logs = append(update.Logs, "competitor generation fell back: "+err.Error())
	}
	return synthesizeCompetitor(p)
}

// synthesizeCompetitor derives a generic alternative from the product itself
// so the comparison page never depends on the backend being up.
func synthesizeCompetitor(p *product.Product) *product.Product {
	features := []string{"standard formulation"}
	if len(p.KeyFeatures) > 1 {
		features = append([]string{}, p.KeyFeatures[:len(p.KeyFeatures)/2]...)
	}
	benefits := []string{"general results"}
	if len(p.Benefits) > 1 {
		benefits = append([]string{}, p.Benefits[:len(p.Benefits)/2]...)
	}
	return &product.Product{
		Name:           "Generic " + p.ProductType,
		ProductType:    p.ProductType,
		TargetUsers:    []string{"general users"},
		KeyFeatures:    features,
		Benefits:       benefits,
		HowToUse:       p.HowToUse,
		Considerations: "Varies by formulation",
		Price:          "Price varies",
	}
}

func (s *Stages) generateAnalysis(ctx context.Context, runID string, a, b *product.Product, update *pipeline.Update) string {
	prompt := fmt.Sprintf(analysisPromptTemplate,
		a.Name, strings.Join(a.KeyFeatures, ", "), strings.Join(a.Benefits, ", "), a.Price,
		b.Name, strings.Join(b.KeyFeatures, ", "), strings.Join(b.Benefits, ", "), b.Price)

	text, metrics, err := s.completer.Complete(ctx, prompt)
	if err == nil {
		recordCall(update, StageComparison, metrics, prompt)
		if analysis := strings.TrimSpace(text); analysis != "" {
			return analysis
		}
	} else {
		s.logger.Warn("comparison analysis failed, using fallback", "run_id", runID, "error", err)
		update.Logs = append(update.Logs, "comparison analysis fell back: "+err.Error())
	}
	return fmt.Sprintf(
		"%s offers %d key features against %d for %s, with pricing at %s versus %s. Choose %s for %s.",
		a.Name, len(a.KeyFeatures), len(b.KeyFeatures), b.Name, a.Price, b.Price, a.Name, audience(a))
}

func recommendation(a, b *product.Product) string {
	if len(a.KeyFeatures) >= len(b.KeyFeatures) {
		return fmt.Sprintf("%s is the stronger pick for %s.", a.Name, audience(a))
	}
	return fmt.Sprintf("%s covers the basics; %s adds more for %s.", b.Name, a.Name, audience(a))
}
