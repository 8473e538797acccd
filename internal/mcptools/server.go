package mcptools

import "github.com/dusk-indust/contentgen/internal/product"

// GeneratePagesInput describes the input for the generate_pages tool.
type GeneratePagesInput struct {
	Product   map[string]any `json:"product" jsonschema:"raw product record (free-form field names are normalized)"`
	OutputDir string         `json:"outputDir,omitempty" jsonschema:"directory for the generated JSON bundles (default: ./output)"`
}

// GeneratePagesOutput reports the outcome of one pipeline run.
type GeneratePagesOutput struct {
	RunID     string   `json:"runId"`
	Phase     string   `json:"phase"`
	Artifacts []string `json:"artifacts,omitempty"`
	Files     []string `json:"files,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateProductInput describes the input for the validate_product tool.
type ValidateProductInput struct {
	Product map[string]any `json:"product" jsonschema:"raw product record to normalize and validate"`
}

// ValidateProductOutput returns the normalized product or the validation failure.
type ValidateProductOutput struct {
	Valid      bool             `json:"valid"`
	Normalized *product.Product `json:"normalized,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// GetLastRunInput has no parameters; the struct exists for schema generation.
type GetLastRunInput struct{}

// GetLastRunOutput summarizes the most recent pipeline run.
type GetLastRunOutput struct {
	RunID  string   `json:"runId,omitempty"`
	Phase  string   `json:"phase,omitempty"`
	Logs   []string `json:"logs,omitempty"`
	Errors []string `json:"errors,omitempty"`
}
