package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
	"github.com/dusk-indust/contentgen/internal/selection"
)

const answerPromptTemplate = `Answer the following customer question about %s in 2-3 sentences,
using only the facts below.

Question: %s

Facts:
- Type: %s
- Target users: %s
- Key features: %s
- Benefits: %s
- How to use: %s
- Considerations: %s
- Price: %s

Respond with the answer text only.`

// BuildFAQ selects the final question set from the generated candidates and
// answers each one. Answers come from the completion backend; when a call
// fails the answer falls back to category-specific template text so a single
// bad completion never sinks the whole FAQ.
func (s *Stages) BuildFAQ(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	p, err := parsedProduct(view)
	if err != nil {
		return nil, fmt.Errorf("faq: %w", err)
	}
	questions, ok := view.Artifact(StageQuestions).([]product.Question)
	if !ok {
		return nil, fmt.Errorf("faq: artifact %q missing or has unexpected type", StageQuestions)
	}

	candidates := make([]selection.Candidate, 0, len(questions))
	byID := make(map[string]product.Question, len(questions))
	for _, q := range questions {
		candidates = append(candidates, selection.Candidate{ID: q.ID, Category: q.Category, Text: q.Text})
		byID[q.ID] = q
	}
	picked := selection.Select(candidates, minFAQ)

	update := &pipeline.Update{Artifacts: map[string]any{}}

	var selected []product.Question
	var fallbacks int
	for _, c := range picked {
		q := byID[c.ID]
		answer, blocks, aerr := s.answerQuestion(ctx, p, q, update)
		if aerr != nil {
			fallbacks++
			answer, blocks = fallbackAnswer(p, q.Category)
		}
		q.Answer = answer
		q.LogicBlocksUsed = blocks
		selected = append(selected, q)
	}
	if fallbacks > 0 {
		update.Logs = append(update.Logs, fmt.Sprintf("faq: %d of %d answers fell back to templates", fallbacks, len(picked)))
	}

	update.Artifacts[StageFAQ] = &FAQContent{
		Title:     "Frequently Asked Questions: " + p.Name,
		Questions: selected,
		Metadata: Metadata{
			ProductName: p.Name,
			GeneratedBy: StageFAQ,
			RunID:       view.RunID,
			TotalItems:  len(selected),
		},
	}
	update.Logs = append(update.Logs, fmt.Sprintf("faq built with %d questions", len(selected)))
	s.logger.Info("faq built", "run_id", view.RunID, "questions", len(selected), "fallback_answers", fallbacks)
	return update, nil
}

func (s *Stages) answerQuestion(ctx context.Context, p *product.Product, q product.Question, update *pipeline.Update) (string, []string, error) {
	prompt := fmt.Sprintf(answerPromptTemplate,
		p.Name, q.Text, p.ProductType, audience(p),
		strings.Join(p.KeyFeatures, ", "), strings.Join(p.Benefits, ", "),
		p.HowToUse, p.Considerations, p.Price)

	text, metrics, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", nil, err
	}
	recordCall(update, StageFAQ, metrics, prompt)
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "", nil, fmt.Errorf("empty answer")
	}
	return answer, blocksForCategory(q.Category), nil
}

// fallbackAnswer builds a deterministic answer from logic blocks when the
// backend cannot supply one.
func fallbackAnswer(p *product.Product, cat product.Category) (string, []string) {
	switch cat {
	case product.CategorySafety:
		return fmt.Sprintf("%s is designed for %s. %s", p.Name, audience(p), p.Considerations),
			[]string{blockSafety}
	case product.CategoryUsage:
		return fmt.Sprintf("To use %s: %s", p.Name, p.HowToUse),
			[]string{blockUsage}
	case product.CategoryPurchase:
		return fmt.Sprintf("%s is priced at %s and offers %s.", p.Name, p.Price, strings.ToLower(strings.Join(p.Benefits, ", "))),
			[]string{blockBenefits}
	case product.CategoryComparison:
		return fmt.Sprintf("%s stands out through %s, delivering %s.", p.Name, strings.Join(p.KeyFeatures, ", "), strings.ToLower(strings.Join(p.Benefits, ", "))),
			[]string{blockFeatures, blockBenefits}
	default:
		return fmt.Sprintf("%s is a %s for %s featuring %s.", p.Name, p.ProductType, audience(p), strings.Join(p.KeyFeatures, ", ")),
			[]string{blockFeatures}
	}
}

func blocksForCategory(cat product.Category) []string {
	switch cat {
	case product.CategorySafety:
		return []string{blockSafety}
	case product.CategoryUsage:
		return []string{blockUsage}
	case product.CategoryPurchase:
		return []string{blockBenefits}
	case product.CategoryComparison:
		return []string{blockFeatures, blockBenefits}
	default:
		return []string{blockFeatures}
	}
}
