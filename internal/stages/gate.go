package stages

import (
	"context"
	"fmt"

	"github.com/dusk-indust/contentgen/internal/pipeline"
)

// ValidationError is a quality gate rule failure. It blocks the write stage
// but never aborts the executor; the run still returns an inspectable state.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Rule
}

// requiredArtifacts are the bundles the gate demands before the write stage
// may run.
var requiredArtifacts = []string{StageFAQ, StageProductPage, StageComparison}

// QualityGate enforces all-or-nothing output. Every required bundle must be
// present, the FAQ must meet its minimum size, and no stage may have failed.
// Any violation routes the run to the terminal path without touching disk.
func (s *Stages) QualityGate(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	update := &pipeline.Update{}

	var violations []*ValidationError
	for _, name := range requiredArtifacts {
		if view.Artifact(name) == nil {
			violations = append(violations, &ValidationError{Rule: fmt.Sprintf("artifact %q missing", name)})
		}
	}
	if faq, ok := view.Artifact(StageFAQ).(*FAQContent); ok && len(faq.Questions) < gateMinFAQ {
		violations = append(violations, &ValidationError{
			Rule: fmt.Sprintf("faq has %d questions, need at least %d", len(faq.Questions), gateMinFAQ),
		})
	}

	// Upstream stage failures fail the gate without adding a second error
	// record; the stage's own record already explains the outcome.
	if len(view.Errors) > 0 {
		update.Phase = pipeline.PhaseValidationFailed
		update.Logs = append(update.Logs, fmt.Sprintf("quality gate failed: %d upstream errors", len(view.Errors)))
		s.logger.Warn("quality gate failed", "run_id", view.RunID, "upstream_errors", len(view.Errors))
		return update, nil
	}

	if len(violations) > 0 {
		update.Phase = pipeline.PhaseValidationFailed
		for _, v := range violations {
			update.Errors = append(update.Errors, pipeline.ErrorRecord{
				Stage:   StageGate,
				Message: v.Error(),
				Fatal:   true,
			})
			update.Logs = append(update.Logs, "quality gate: "+v.Error())
		}
		s.logger.Warn("quality gate failed", "run_id", view.RunID, "violations", len(violations))
		return update, nil
	}

	update.Phase = pipeline.PhaseValidated
	update.Logs = append(update.Logs, "quality gate passed")
	s.logger.Info("quality gate passed", "run_id", view.RunID)
	return update, nil
}
