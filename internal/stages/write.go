package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/contentgen/internal/pipeline"
)

// outputFiles maps artifact keys to their on-disk names.
var outputFiles = map[string]string{
	StageFAQ:         "faq.json",
	StageProductPage: "product_page.json",
	StageComparison:  "comparison_page.json",
}

// Write persists the validated bundles as JSON files. This is the one stage
// where partial output is allowed: a bundle that fails to persist is reported
// as an error while the others are still written.
func (s *Stages) Write(ctx context.Context, view pipeline.View) (*pipeline.Update, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("write: create output dir: %w", err)
	}

	update := &pipeline.Update{Artifacts: map[string]any{}}

	var written []string
	for _, name := range requiredArtifacts {
		path := filepath.Join(s.outputDir, outputFiles[name])
		if err := writeJSON(path, view.Artifact(name)); err != nil {
			update.Errors = append(update.Errors, pipeline.ErrorRecord{
				Stage:   StageWrite,
				Message: fmt.Sprintf("persist %s: %v", outputFiles[name], err),
			})
			s.logger.Error("bundle write failed", "run_id", view.RunID, "file", outputFiles[name], "error", err)
			continue
		}
		written = append(written, path)
		update.Logs = append(update.Logs, "wrote "+path)
	}

	if len(written) == 0 {
		update.Artifacts[StageWrite] = []string{}
		update.Logs = append(update.Logs, "write: no bundles persisted")
		s.logger.Error("no bundles persisted", "run_id", view.RunID)
		return update, nil
	}

	update.Artifacts[StageWrite] = written
	s.logger.Info("bundles written", "run_id", view.RunID, "files", len(written))
	return update, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
