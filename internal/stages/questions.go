package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/contentgen/internal/llmpool"
	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
)

const questionPromptTemplate = `You are generating candidate FAQ questions for a product page.

Product: %s
Type: %s
Target users: %s
Key features: %s
Benefits: %s
How to use: %s
Considerations: %s
Price: %s

Generate %d distinct customer questions about this product, spread across
these categories: Informational, Safety, Usage, Purchase, Comparison.
Respond with a JSON array only, one object per question:
[{"question": "...", "category": "..."}]`

type rawQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// GenerateQuestions asks the completion backend for candidate questions and
// tops the list up from templates when the backend returns too few or fails.
func (s *Stages) GenerateQuestions(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	p, err := parsedProduct(view)
	if err != nil {
		return nil, fmt.Errorf("generate_questions: %w", err)
	}

	prompt := fmt.Sprintf(questionPromptTemplate,
		p.Name, p.ProductType, audience(p),
		strings.Join(p.KeyFeatures, ", "), strings.Join(p.Benefits, ", "),
		p.HowToUse, p.Considerations, p.Price, minQuestions)

	update := &pipeline.Update{Artifacts: map[string]any{}}

	var questions []product.Question
	text, metrics, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("question generation failed, using templates", "run_id", view.RunID, "error", err)
		update.Logs = append(update.Logs, "question generation fell back to templates: "+err.Error())
	} else {
		recordCall(update, StageQuestions, metrics, prompt)

		var raws []rawQuestion
		if perr := parseJSONResponse(text, &raws); perr != nil {
			s.logger.Warn("question response unparseable, using templates", "run_id", view.RunID, "error", perr)
			update.Logs = append(update.Logs, "question response unparseable: "+perr.Error())
		} else {
			for _, r := range raws {
				q := product.Question{
					Category: product.ParseCategory(r.Category),
					Text:     r.Question,
				}
				if q.Normalize() {
					questions = append(questions, q)
				}
			}
		}
	}

	if len(questions) < minQuestions {
		questions = topUpQuestions(questions, p, minQuestions)
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("q%02d", i+1)
	}

	update.Artifacts[StageQuestions] = questions
	update.Logs = append(update.Logs, fmt.Sprintf("generated %d candidate questions", len(questions)))
	return update, nil
}

// templateQuestions are the deterministic fallbacks, keyed by category. The
// product name is substituted into each.
var templateQuestions = []struct {
	category product.Category
	text     string
}{
	{product.CategoryInformational, "What is %s?"},
	{product.CategoryInformational, "What are the key features of %s?"},
	{product.CategoryInformational, "What benefits does %s provide?"},
	{product.CategoryInformational, "What type of product is %s?"},
	{product.CategorySafety, "Is %s safe to use?"},
	{product.CategorySafety, "Are there any considerations before using %s?"},
	{product.CategorySafety, "Who should avoid using %s?"},
	{product.CategorySafety, "Can this product cause irritation?"},
	{product.CategoryUsage, "How do I use %s?"},
	{product.CategoryUsage, "How often should this product be used?"},
	{product.CategoryUsage, "When is the best time to use %s?"},
	{product.CategoryUsage, "Can this product be combined with other products?"},
	{product.CategoryPurchase, "How much does %s cost?"},
	{product.CategoryPurchase, "Is %s worth the price?"},
	{product.CategoryPurchase, "Where can I buy %s?"},
	{product.CategoryComparison, "How does %s compare to similar products?"},
	{product.CategoryComparison, "What makes %s different from alternatives?"},
	{product.CategoryComparison, "Why choose %s over other options?"},
}

// topUpQuestions appends template questions until the list reaches target,
// skipping templates whose text duplicates an existing question.
func topUpQuestions(existing []product.Question, p *product.Product, target int) []product.Question {
	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[strings.ToLower(q.Text)] = true
	}
	for _, t := range templateQuestions {
		if len(existing) >= target {
			break
		}
		text := t.text
		if strings.Contains(text, "%s") {
			text = fmt.Sprintf(text, p.Name)
		}
		q := product.Question{Category: t.category, Text: text}
		if !q.Normalize() || seen[strings.ToLower(q.Text)] {
			continue
		}
		seen[strings.ToLower(q.Text)] = true
		existing = append(existing, q)
	}
	return existing
}

// recordCall folds one completion call into the stage's metrics entry and
// records the prompt under its hash. Stages that make several calls end up
// with one summed entry, the way per-agent usage is reported downstream.
func recordCall(update *pipeline.Update, stage string, m llmpool.CallMetrics, prompt string) {
	if update.Metrics == nil {
		update.Metrics = map[string]pipeline.StageMetrics{}
	}
	sm := update.Metrics[stage]
	sm.TokensIn += m.TokensIn
	sm.TokensOut += m.TokensOut
	sm.ElapsedMs += m.ElapsedMs
	sm.OutputLen += m.OutputLen
	update.Metrics[stage] = sm

	if update.Prompts == nil {
		update.Prompts = map[string]string{}
	}
	update.Prompts[m.PromptHash] = prompt
}
