package mcptools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/stages"
)

// mockRunner returns a canned state without running anything.
type mockRunner struct {
	state *pipeline.State
	err   error
}

func (m *mockRunner) Run(_ context.Context, _ map[string]any) (*pipeline.State, error) {
	return m.state, m.err
}

func completedState() *pipeline.State {
	state := pipeline.NewState(nil)
	state.Artifacts[stages.StageFAQ] = "faq-bundle"
	state.Artifacts[stages.StageWrite] = []string{"out/faq.json"}
	state.Phase = pipeline.PhaseCompleted
	return state
}

func newService(runner Runner, err error) *ContentService {
	return NewContentService(func(string) (Runner, error) {
		return runner, err
	}, "out")
}

func TestGeneratePages(t *testing.T) {
	state := completedState()
	svc := newService(&mockRunner{state: state}, nil)

	_, out, err := svc.GeneratePages(context.Background(), nil, GeneratePagesInput{
		Product: map[string]any{"name": "Glow Serum"},
	})
	require.NoError(t, err)
	assert.Equal(t, state.RunID, out.RunID)
	assert.Equal(t, "completed", out.Phase)
	assert.Equal(t, []string{stages.StageFAQ, stages.StageWrite}, out.Artifacts)
	assert.Equal(t, []string{"out/faq.json"}, out.Files)
}

func TestGeneratePagesRequiresProduct(t *testing.T) {
	svc := newService(&mockRunner{}, nil)
	_, _, err := svc.GeneratePages(context.Background(), nil, GeneratePagesInput{})
	require.Error(t, err)
}

func TestGeneratePagesFactoryError(t *testing.T) {
	svc := newService(nil, errors.New("no credentials"))
	_, _, err := svc.GeneratePages(context.Background(), nil, GeneratePagesInput{
		Product: map[string]any{"name": "Glow Serum"},
	})
	require.Error(t, err)
}

func TestValidateProduct(t *testing.T) {
	svc := newService(&mockRunner{}, nil)

	_, out, err := svc.ValidateProduct(context.Background(), nil, ValidateProductInput{
		Product: map[string]any{
			"name":         "Glow Serum",
			"key_features": "Vitamin C",
			"benefits":     "Brightens",
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	require.NotNil(t, out.Normalized)
	assert.Equal(t, "Glow Serum", out.Normalized.Name)

	_, out, err = svc.ValidateProduct(context.Background(), nil, ValidateProductInput{
		Product: map[string]any{"price": "$10"},
	})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Error)
}

func TestGetLastRun(t *testing.T) {
	state := completedState()
	state.Errors = append(state.Errors, pipeline.ErrorRecord{Stage: "faq", Message: "boom"})
	svc := newService(&mockRunner{state: state}, nil)

	_, out, err := svc.GetLastRun(context.Background(), nil, GetLastRunInput{})
	require.NoError(t, err)
	assert.Empty(t, out.RunID, "no run has happened yet")

	_, _, err = svc.GeneratePages(context.Background(), nil, GeneratePagesInput{
		Product: map[string]any{"name": "Glow Serum"},
	})
	require.NoError(t, err)

	_, out, err = svc.GetLastRun(context.Background(), nil, GetLastRunInput{})
	require.NoError(t, err)
	assert.Equal(t, state.RunID, out.RunID)
	assert.Equal(t, []string{"faq: boom"}, out.Errors)
}

func TestNewContentMCPServer(t *testing.T) {
	svc := newService(&mockRunner{state: completedState()}, nil)
	server := NewContentMCPServer(svc)
	require.NotNil(t, server)
}
