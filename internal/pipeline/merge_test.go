package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReplaceArtifacts(t *testing.T) {
	s := NewState(nil)
	s.apply(&Update{Artifacts: map[string]any{"faq": "v1"}})
	s.apply(&Update{Artifacts: map[string]any{"faq": "v2", "page": "p1"}})

	assert.Equal(t, "v2", s.Artifacts["faq"])
	assert.Equal(t, "p1", s.Artifacts["page"])
}

func TestApplyAccumulatesErrorsAndLogs(t *testing.T) {
	s := NewState(nil)
	s.apply(&Update{
		Errors: []ErrorRecord{{Stage: "a", Message: "boom"}},
		Logs:   []string{"first"},
	})
	s.apply(&Update{
		Errors: []ErrorRecord{{Stage: "b", Message: "bang"}},
		Logs:   []string{"second", "third"},
	})

	require.Len(t, s.Errors, 2)
	assert.Equal(t, "a", s.Errors[0].Stage)
	assert.Equal(t, "b", s.Errors[1].Stage)
	// Within one contribution, append order is preserved.
	assert.Equal(t, []string{"pipeline initialized", "first", "second", "third"}, s.Logs)
}

func TestApplyMetricsUnionByKey(t *testing.T) {
	s := NewState(nil)
	s.apply(&Update{Metrics: map[string]StageMetrics{"a": {TokensIn: 10}}})
	s.apply(&Update{Metrics: map[string]StageMetrics{"b": {TokensIn: 20}}})

	assert.Equal(t, 10, s.Metrics["a"].TokensIn)
	assert.Equal(t, 20, s.Metrics["b"].TokensIn)
}

func TestApplyPromptsFirstWriterWins(t *testing.T) {
	s := NewState(nil)
	s.apply(&Update{Prompts: map[string]string{"faq": "hash-1"}})
	s.apply(&Update{Prompts: map[string]string{"faq": "hash-2", "page": "hash-3"}})

	assert.Equal(t, "hash-1", s.Prompts["faq"])
	assert.Equal(t, "hash-3", s.Prompts["page"])
}

func TestApplyPhaseOnlyMovesForward(t *testing.T) {
	s := NewState(nil)
	require.Equal(t, PhaseInitialized, s.Phase)

	s.apply(&Update{Phase: PhaseRunning})
	assert.Equal(t, PhaseRunning, s.Phase)

	// Back-transition attempts are dropped.
	s.apply(&Update{Phase: PhaseInitialized})
	assert.Equal(t, PhaseRunning, s.Phase)

	// Zero-value phase in an update contributes nothing.
	s.apply(&Update{Logs: []string{"no phase"}})
	assert.Equal(t, PhaseRunning, s.Phase)

	s.apply(&Update{Phase: PhaseValidated})
	assert.Equal(t, PhaseValidated, s.Phase)
}

func TestApplyTerminalStateIsImmutable(t *testing.T) {
	s := NewState(nil)
	s.apply(&Update{Phase: PhaseCompleted})
	require.True(t, s.Phase.Terminal())

	s.apply(&Update{
		Artifacts: map[string]any{"late": true},
		Errors:    []ErrorRecord{{Stage: "late", Message: "too late"}},
		Phase:     PhaseFailed,
	})

	assert.NotContains(t, s.Artifacts, "late")
	assert.Empty(t, s.Errors)
	assert.Equal(t, PhaseCompleted, s.Phase)
}

func TestApplyNilUpdate(t *testing.T) {
	s := NewState(nil)
	s.apply(nil)
	assert.Equal(t, PhaseInitialized, s.Phase)
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewState(map[string]any{"in": 1})
	s.apply(&Update{Artifacts: map[string]any{"a": "v1"}})

	view := s.snapshot()
	s.apply(&Update{
		Artifacts: map[string]any{"b": "v2"},
		Errors:    []ErrorRecord{{Stage: "x", Message: "later"}},
	})

	assert.Equal(t, "v1", view.Artifact("a"))
	assert.Nil(t, view.Artifact("b"))
	assert.Empty(t, view.Errors)
	assert.Equal(t, 1, view.Inputs["in"])
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "initialized", PhaseInitialized.String())
	assert.Equal(t, "validation_failed", PhaseValidationFailed.String())
	assert.Equal(t, "completed", PhaseCompleted.String())
	assert.False(t, PhaseValidated.Terminal())
	assert.True(t, PhaseFailed.Terminal())
}

func TestNewStateAssignsRunID(t *testing.T) {
	a := NewState(nil)
	b := NewState(nil)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}
