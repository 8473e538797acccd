package mcptools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/product"
	"github.com/dusk-indust/contentgen/internal/stages"
)

// Runner executes one content pipeline run. The pipeline executor satisfies
// it; tests substitute a scripted fake.
type Runner interface {
	Run(ctx context.Context, inputs map[string]any) (*pipeline.State, error)
}

// RunnerFactory builds a Runner writing bundles to outputDir. Each tool call
// gets a fresh runner so concurrent calls never share pipeline state.
type RunnerFactory func(outputDir string) (Runner, error)

// ContentService handles MCP tool calls for the content generation server.
type ContentService struct {
	newRunner RunnerFactory
	outputDir string

	mu   sync.Mutex
	last *pipeline.State
}

// NewContentService creates a ContentService using factory to build runners
// and defaultOutputDir when a call does not name one.
func NewContentService(factory RunnerFactory, defaultOutputDir string) *ContentService {
	return &ContentService{
		newRunner: factory,
		outputDir: defaultOutputDir,
	}
}

// GeneratePages runs the full content pipeline for the given product record.
func (s *ContentService) GeneratePages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GeneratePagesInput,
) (*mcp.CallToolResult, GeneratePagesOutput, error) {
	if len(input.Product) == 0 {
		return nil, GeneratePagesOutput{}, fmt.Errorf("product record is required")
	}

	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = s.outputDir
	}
	runner, err := s.newRunner(outputDir)
	if err != nil {
		return nil, GeneratePagesOutput{}, fmt.Errorf("build pipeline: %w", err)
	}

	state, err := runner.Run(ctx, map[string]any{stages.InputRaw: input.Product})
	if err != nil {
		return nil, GeneratePagesOutput{}, fmt.Errorf("run pipeline: %w", err)
	}

	s.mu.Lock()
	s.last = state
	s.mu.Unlock()

	out := GeneratePagesOutput{
		RunID:  state.RunID,
		Phase:  state.Phase.String(),
		Errors: formatErrors(state.Errors),
	}
	for name := range state.Artifacts {
		out.Artifacts = append(out.Artifacts, name)
	}
	sort.Strings(out.Artifacts)
	if files, ok := state.Artifacts[stages.StageWrite].([]string); ok {
		out.Files = files
	}
	return nil, out, nil
}

// ValidateProduct normalizes and validates a raw product record without
// running the pipeline.
func (s *ContentService) ValidateProduct(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ValidateProductInput,
) (*mcp.CallToolResult, ValidateProductOutput, error) {
	p, err := product.FromRaw(input.Product)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		return nil, ValidateProductOutput{Valid: false, Error: err.Error()}, nil
	}
	return nil, ValidateProductOutput{Valid: true, Normalized: p}, nil
}

// GetLastRun summarizes the most recent pipeline run handled by this server.
func (s *ContentService) GetLastRun(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetLastRunInput,
) (*mcp.CallToolResult, GetLastRunOutput, error) {
	s.mu.Lock()
	state := s.last
	s.mu.Unlock()

	if state == nil {
		return nil, GetLastRunOutput{}, nil
	}
	return nil, GetLastRunOutput{
		RunID:  state.RunID,
		Phase:  state.Phase.String(),
		Logs:   state.Logs,
		Errors: formatErrors(state.Errors),
	}, nil
}

func formatErrors(records []pipeline.ErrorRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, fmt.Sprintf("%s: %s", r.Stage, r.Message))
	}
	return out
}
