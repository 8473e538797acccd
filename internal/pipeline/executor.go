package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Executor schedules a Graph's stages respecting declared dependencies,
// running all ready stages concurrently and merging their partial updates at
// each join boundary.
type Executor struct {
	graph    *Graph
	progress *ProgressReporter
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an executor for the given graph. The graph is validated
// here so that a declared cycle fails fast, before any run.
func NewExecutor(g *Graph, opts ...ExecutorOption) (*Executor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		graph:    g,
		progress: NewProgressReporter(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Progress returns a channel that emits per-stage progress events.
func (e *Executor) Progress() <-chan ProgressEvent {
	return e.progress.Subscribe()
}

// Close shuts down the progress reporter.
func (e *Executor) Close() {
	e.progress.Close()
}

// waveResult is one stage's outcome within a wave.
type waveResult struct {
	node   Node
	update *Update
	err    error
}

// Run executes the full graph for one set of inputs and returns the final
// merged state. The returned state is complete and inspectable even when the
// run fails; the error is non-nil only for executor-level problems (context
// cancellation), never for captured stage failures.
func (e *Executor) Run(ctx context.Context, inputs map[string]any) (*State, error) {
	state := NewState(inputs)
	state.apply(&Update{Phase: PhaseRunning})
	e.logger.Info("pipeline run started", "run_id", state.RunID, "stages", len(e.graph.nodes))

	done := make(map[string]bool, len(e.graph.nodes))
	hardFailed := false

	for len(done) < len(e.graph.nodes) {
		if err := ctx.Err(); err != nil {
			state.apply(&Update{Phase: PhaseFailed})
			return state, err
		}

		ready := e.readyNodes(done)
		if len(ready) == 0 {
			// Validate() rules this out, but guard against starvation anyway.
			state.apply(&Update{Phase: PhaseFailed})
			return state, fmt.Errorf("pipeline: no runnable stage with %d remaining", len(e.graph.nodes)-len(done))
		}

		for _, res := range e.runWave(ctx, state, ready) {
			state.apply(res.update)
			if res.err != nil {
				state.apply(&Update{
					Errors: []ErrorRecord{{
						Stage:   res.node.Name,
						Message: res.err.Error(),
						Fatal:   res.node.Fatal,
					}},
				})
				if res.node.Fatal {
					hardFailed = true
				}
				e.progress.Emit(ProgressEvent{Stage: res.node.Name, Status: StatusFailed, Message: res.err.Error()})
				e.logger.Warn("stage failed", "run_id", state.RunID, "stage", res.node.Name, "error", res.err)
			} else {
				e.progress.Emit(ProgressEvent{Stage: res.node.Name, Status: StatusComplete})
			}
			done[res.node.Name] = true
		}
	}

	e.finalize(state, hardFailed)
	e.logger.Info("pipeline run finished",
		"run_id", state.RunID,
		"phase", state.Phase.String(),
		"errors", len(state.Errors))
	return state, nil
}

// readyNodes returns every node whose dependencies have all completed and
// that has not yet run.
func (e *Executor) readyNodes(done map[string]bool) []Node {
	var ready []Node
	for _, n := range e.graph.nodes {
		if done[n.Name] {
			continue
		}
		ok := true
		for _, dep := range n.Deps {
			if !done[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, n)
		}
	}
	return ready
}

// runWave executes one set of ready stages concurrently and collects their
// results. Every stage sees the same snapshot, taken after the previous
// join, so siblings never observe each other's writes. A failing sibling
// does not cancel the others, and a panic inside a stage is recovered into
// an ordinary stage error.
func (e *Executor) runWave(ctx context.Context, state *State, ready []Node) []waveResult {
	view := state.snapshot()
	results := make([]waveResult, len(ready))

	var g errgroup.Group
	for i, n := range ready {
		results[i].node = n

		if n.RunIf != nil && !n.RunIf(view) {
			results[i].update = &Update{
				Logs: []string{fmt.Sprintf("%s skipped", n.Name)},
			}
			e.progress.Emit(ProgressEvent{Stage: n.Name, Status: StatusSkipped})
			continue
		}

		e.progress.Emit(ProgressEvent{Stage: n.Name, Status: StatusWorking})
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i].update = nil
					results[i].err = fmt.Errorf("stage panicked: %v", r)
				}
			}()
			results[i].update, results[i].err = n.Run(ctx, view)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures live in results

	return results
}

// finalize settles the terminal phase. A failed gate or a failed hard
// dependency makes the run failed, any captured error makes it failed, and
// everything else completes.
func (e *Executor) finalize(state *State, hardFailed bool) {
	if state.Phase.Terminal() {
		return
	}
	switch {
	case hardFailed || state.Phase == PhaseValidationFailed:
		state.apply(&Update{Phase: PhaseFailed})
	case len(state.Errors) > 0:
		state.apply(&Update{Phase: PhaseFailed})
	default:
		state.apply(&Update{Phase: PhaseCompleted})
	}
}
