package stages

import (
	"context"
	"fmt"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
)

// Parse normalizes the raw product record into a validated Product. It is
// the hard dependency of the run; when it fails everything downstream is
// unrunnable.
func (s *Stages) Parse(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	raw, ok := view.Inputs[InputRaw].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse: input %q missing or not an object", InputRaw)
	}

	p, err := product.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	s.logger.Info("product parsed", "run_id", view.RunID, "product", p.Name)
	return &pipeline.Update{
		Artifacts: map[string]any{StageParse: p},
		Logs:      []string{fmt.Sprintf("parsed product %q", p.Name)},
	}, nil
}

// parsedProduct fetches the parse artifact from a state view. Stage
// dependencies guarantee it is present once parse has run.
func parsedProduct(view pipeline.View) (*product.Product, error) {
	p, ok := view.Artifact(StageParse).(*product.Product)
	if !ok {
		return nil, fmt.Errorf("artifact %q missing or has unexpected type", StageParse)
	}
	return p, nil
}
