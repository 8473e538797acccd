package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stage builds a StageFunc that writes one artifact and one log line.
func stage(name string) StageFunc {
	return func(_ context.Context, _ View) (*Update, error) {
		return &Update{
			Artifacts: map[string]any{name: name + "-output"},
			Logs:      []string{name + " done"},
		}, nil
	}
}

func failing(name string) StageFunc {
	return func(_ context.Context, _ View) (*Update, error) {
		return nil, errors.New(name + " exploded")
	}
}

// diamond builds the canonical fan-out/fan-in shape:
// root -> {left, mid, right} -> join.
func diamond(left, mid, right StageFunc) *Graph {
	g := NewGraph()
	g.MustAdd(Node{Name: "root", Run: stage("root"), Fatal: true})
	g.MustAdd(Node{Name: "left", Deps: []string{"root"}, Run: left})
	g.MustAdd(Node{Name: "mid", Deps: []string{"root"}, Run: mid})
	g.MustAdd(Node{Name: "right", Deps: []string{"root"}, Run: right})
	g.MustAdd(Node{Name: "join", Deps: []string{"left", "mid", "right"}, Run: stage("join")})
	return g
}

func TestRunAllStagesSucceed(t *testing.T) {
	exec, err := NewExecutor(diamond(stage("left"), stage("mid"), stage("right")))
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), map[string]any{"seed": 1})
	require.NoError(t, err)

	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Empty(t, state.Errors)
	for _, name := range []string{"root", "left", "mid", "right", "join"} {
		assert.Equal(t, name+"-output", state.Artifacts[name])
	}
}

func TestRunOneBranchFails(t *testing.T) {
	exec, err := NewExecutor(diamond(stage("left"), failing("mid"), stage("right")))
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err, "captured stage failures never surface as run errors")

	assert.Equal(t, PhaseFailed, state.Phase)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, "mid", state.Errors[0].Stage)
	assert.False(t, state.Errors[0].Fatal)

	// Siblings of the failed stage still ran to completion.
	assert.Equal(t, "left-output", state.Artifacts["left"])
	assert.Equal(t, "right-output", state.Artifacts["right"])
	_, ok := state.Artifacts["mid"]
	assert.False(t, ok)
}

func TestRunFatalStageFails(t *testing.T) {
	g := NewGraph()
	g.MustAdd(Node{Name: "root", Run: failing("root"), Fatal: true})
	g.MustAdd(Node{Name: "next", Deps: []string{"root"}, Run: stage("next")})

	exec, err := NewExecutor(g)
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, state.Phase)
	require.Len(t, state.Errors, 1)
	assert.True(t, state.Errors[0].Fatal)
}

func TestRunPanicIsRecovered(t *testing.T) {
	panicking := func(_ context.Context, _ View) (*Update, error) {
		panic("stage bug")
	}
	exec, err := NewExecutor(diamond(stage("left"), panicking, stage("right")))
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, state.Phase)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, "mid", state.Errors[0].Stage)
	assert.Contains(t, state.Errors[0].Message, "stage bug")
}

func TestRunSiblingsSeeSameSnapshot(t *testing.T) {
	// Each branch records whether it can see a sibling's artifact. None may.
	var leaks atomic.Int32
	peek := func(self, sibling string) StageFunc {
		return func(_ context.Context, view View) (*Update, error) {
			if view.Artifact(sibling) != nil {
				leaks.Add(1)
			}
			return &Update{Artifacts: map[string]any{self: true}}, nil
		}
	}
	g := NewGraph()
	g.MustAdd(Node{Name: "root", Run: stage("root")})
	g.MustAdd(Node{Name: "a", Deps: []string{"root"}, Run: peek("a", "b")})
	g.MustAdd(Node{Name: "b", Deps: []string{"root"}, Run: peek("b", "a")})

	exec, err := NewExecutor(g)
	require.NoError(t, err)
	defer exec.Close()

	_, err = exec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, leaks.Load())
}

func TestRunCrossSiblingLogsAllPresent(t *testing.T) {
	// Sibling log ordering is unspecified; only membership is guaranteed.
	exec, err := NewExecutor(diamond(stage("left"), stage("mid"), stage("right")))
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	for _, line := range []string{"left done", "mid done", "right done"} {
		assert.Contains(t, state.Logs, line)
	}
}

func TestRunIfSkipsStage(t *testing.T) {
	ran := false
	g := NewGraph()
	g.MustAdd(Node{Name: "first", Run: stage("first")})
	g.MustAdd(Node{
		Name: "second",
		Deps: []string{"first"},
		Run: func(_ context.Context, _ View) (*Update, error) {
			ran = true
			return &Update{}, nil
		},
		RunIf: func(View) bool { return false },
	})
	g.MustAdd(Node{Name: "third", Deps: []string{"second"}, Run: stage("third")})

	exec, err := NewExecutor(g)
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Contains(t, state.Logs, "second skipped")
	// A skipped stage still unblocks its dependents.
	assert.Equal(t, "third-output", state.Artifacts["third"])
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec, err := NewExecutor(diamond(stage("left"), stage("mid"), stage("right")))
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PhaseFailed, state.Phase)
}

func TestRunEmitsProgress(t *testing.T) {
	exec, err := NewExecutor(diamond(stage("left"), failing("mid"), stage("right")))
	require.NoError(t, err)

	events := exec.Progress()
	_, err = exec.Run(context.Background(), nil)
	require.NoError(t, err)
	exec.Close()

	byStage := map[string][]StageStatus{}
	for ev := range events {
		byStage[ev.Stage] = append(byStage[ev.Stage], ev.Status)
	}
	assert.Contains(t, byStage["left"], StatusComplete)
	assert.Contains(t, byStage["mid"], StatusFailed)
	assert.Contains(t, byStage["right"], StatusComplete)
}

func TestNewExecutorRejectsCycle(t *testing.T) {
	g := NewGraph()
	g.MustAdd(Node{Name: "a", Deps: []string{"b"}, Run: stage("a")})
	g.MustAdd(Node{Name: "b", Deps: []string{"a"}, Run: stage("b")})

	_, err := NewExecutor(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestRunStagesActuallyOverlap(t *testing.T) {
	// Two siblings that block until both have started prove concurrent
	// execution within a wave.
	gate := make(chan struct{}, 2)
	sync := func(name string) StageFunc {
		return func(ctx context.Context, _ View) (*Update, error) {
			gate <- struct{}{}
			deadline := time.After(2 * time.Second)
			for len(gate) < 2 {
				select {
				case <-deadline:
					return nil, errors.New("sibling never started")
				case <-time.After(time.Millisecond):
				}
			}
			return &Update{Artifacts: map[string]any{name: true}}, nil
		}
	}

	g := NewGraph()
	g.MustAdd(Node{Name: "a", Run: sync("a")})
	g.MustAdd(Node{Name: "b", Run: sync("b")})

	exec, err := NewExecutor(g)
	require.NoError(t, err)
	defer exec.Close()

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Empty(t, state.Errors)
}
