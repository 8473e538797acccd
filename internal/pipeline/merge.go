package pipeline

// MergeStrategy is the rule governing how a field of concurrent partial
// updates combines into the shared state at a join.
type MergeStrategy string

const (
	// MergeReplace overwrites the field with the update's value.
	MergeReplace MergeStrategy = "replace"

	// MergeAccumulate concatenates list contributions. Order is preserved
	// within one stage's contribution; ordering across sibling stages is
	// unspecified.
	MergeAccumulate MergeStrategy = "accumulate"

	// MergeAccumulateByKey unions map contributions key by key.
	MergeAccumulateByKey MergeStrategy = "accumulate-by-key"
)

// FieldStrategies declares the merge strategy for every State field a stage
// can contribute to. The executor applies these at join time; there is no
// other write path into the shared state.
var FieldStrategies = map[string]MergeStrategy{
	"artifacts": MergeReplace,           // each key written by exactly one stage
	"errors":    MergeAccumulate,        // append-only for the run
	"logs":      MergeAccumulate,        // append-only for the run
	"metrics":   MergeAccumulateByKey,   // map union, keyed by stage name
	"prompts":   MergeAccumulateByKey,   // map union, first writer wins
	"phase":     MergeReplace,           // single writer at a time, forward-only
}

// Update is the partial state a stage returns. Zero-value fields contribute
// nothing.
type Update struct {
	Artifacts map[string]any
	Errors    []ErrorRecord
	Logs      []string
	Metrics   map[string]StageMetrics
	Prompts   map[string]string
	Phase     Phase
}

// apply merges an update into the state under the declared per-field
// strategies. Once the phase is terminal the state is immutable and the
// update is dropped.
func (s *State) apply(u *Update) {
	if u == nil || s.Phase.Terminal() {
		return
	}

	for k, v := range u.Artifacts {
		s.Artifacts[k] = v // replace
	}

	s.Errors = append(s.Errors, u.Errors...) // accumulate
	s.Logs = append(s.Logs, u.Logs...)       // accumulate

	for k, v := range u.Metrics { // accumulate-by-key
		s.Metrics[k] = v
	}

	for k, v := range u.Prompts { // accumulate-by-key, first writer wins
		if _, exists := s.Prompts[k]; !exists {
			s.Prompts[k] = v
		}
	}

	// Phase only ever moves forward.
	if u.Phase != PhaseUnset && u.Phase > s.Phase {
		s.Phase = u.Phase
	}
}
