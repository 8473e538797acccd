// Package pipeline implements the typed shared-state executor that drives
// content generation: a DAG of named stages with declared dependencies,
// concurrent execution of independent stages, per-field merge strategies for
// partial state updates, and a quality gate that keeps persistence
// all-or-nothing.
package pipeline

import (
	"maps"

	"github.com/google/uuid"
)

// Phase tracks a run through its lifecycle. Transitions only ever move
// forward; a merge never moves the phase backward, and once a run is
// completed or failed the state no longer changes.
type Phase int

const (
	// PhaseUnset marks an Update that does not change the phase.
	PhaseUnset Phase = iota
	PhaseInitialized
	PhaseRunning
	PhaseValidated
	PhaseValidationFailed
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	case PhaseValidated:
		return "validated"
	case PhaseValidationFailed:
		return "validation_failed"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unset"
	}
}

// Terminal reports whether the phase is a run-ending phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// ErrorRecord is one captured stage failure.
type ErrorRecord struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// StageMetrics aggregates the cost of one stage's work.
type StageMetrics struct {
	TokensIn  int   `json:"tokens_in"`
	TokensOut int   `json:"tokens_out"`
	ElapsedMs int64 `json:"elapsed_ms"`
	OutputLen int   `json:"output_len"`
}

// State is the single object threaded through one pipeline run. Stages never
// mutate it directly: they return an Update and the executor merges it at the
// join boundary under each field's declared strategy.
type State struct {
	// RunID correlates logs and metrics for one run.
	RunID string `json:"run_id"`

	// Inputs is owned by the caller and immutable after creation.
	Inputs map[string]any `json:"inputs"`

	// Artifacts maps stage name to that stage's output. Each key is written
	// by exactly one stage.
	Artifacts map[string]any `json:"artifacts"`

	// Errors accumulates captured stage failures across the run.
	Errors []ErrorRecord `json:"errors"`

	// Logs accumulates human-readable progress lines.
	Logs []string `json:"logs"`

	// Metrics maps stage name to that stage's cost.
	Metrics map[string]StageMetrics `json:"metrics"`

	// Prompts maps prompt hash to prompt text, first writer wins on hash
	// collision, for observability.
	Prompts map[string]string `json:"prompts"`

	// Phase is the run lifecycle phase.
	Phase Phase `json:"phase"`
}

// NewState creates the state for one run from the caller's inputs.
func NewState(inputs map[string]any) *State {
	return &State{
		RunID:     uuid.New().String(),
		Inputs:    inputs,
		Artifacts: make(map[string]any),
		Metrics:   make(map[string]StageMetrics),
		Prompts:   make(map[string]string),
		Logs:      []string{"pipeline initialized"},
		Phase:     PhaseInitialized,
	}
}

// View is the read-only snapshot handed to a running stage. It is taken
// after all of the stage's dependencies have been merged, so a stage never
// observes a concurrently-running sibling's writes.
type View struct {
	RunID     string
	Inputs    map[string]any
	Artifacts map[string]any
	Errors    []ErrorRecord
	Phase     Phase
}

// snapshot copies the fields a stage may read. Map values are shared: an
// artifact is owned by the stage that wrote it and is read-only afterwards.
func (s *State) snapshot() View {
	return View{
		RunID:     s.RunID,
		Inputs:    s.Inputs,
		Artifacts: maps.Clone(s.Artifacts),
		Errors:    append([]ErrorRecord(nil), s.Errors...),
		Phase:     s.Phase,
	}
}

// Artifact returns the named artifact, or nil when absent.
func (v View) Artifact(name string) any {
	return v.Artifacts[name]
}
