package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunChainsOutputs(t *testing.T) {
	exec := New(nil,
		Step{
			Name:   "double",
			Inputs: []string{"n"},
			Output: "doubled",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return in["n"].(int) * 2, nil
			},
		},
		Step{
			Name:   "describe",
			Inputs: []string{"doubled"},
			Output: "description",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return map[string]any{"summary": "done"}, nil
			},
		},
	)
	state := exec.Run(context.Background(), map[string]any{"n": 21})

	require.NotContains(t, state, "error")
	require.Equal(t, 42, state["doubled"])
	steps := state["reasoning_steps"].([]ReasoningStep)
	require.Len(t, steps, 2)
	require.Equal(t, "done", steps[1].Summary)
}

func TestRunHaltsOnMissingInput(t *testing.T) {
	ran := false
	exec := New(nil,
		Step{
			Name:    "needs_absent",
			Inputs:  []string{"absent"},
			Output:  "out",
			Default: map[string]any{},
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return "never", nil
			},
		},
		Step{
			Name:   "downstream",
			Inputs: []string{"out"},
			Output: "out2",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				ran = true
				return "never", nil
			},
		},
	)
	state := exec.Run(context.Background(), map[string]any{"present": 1})

	require.Contains(t, state["error"], "missing input")
	require.Equal(t, map[string]any{}, state["out"])
	require.False(t, ran, "downstream step must not run after a halt")
	require.Contains(t, state, "reasoning_steps")
}

func TestRunHaltsOnStepError(t *testing.T) {
	exec := New(nil,
		Step{
			Name:    "boom",
			Inputs:  []string{"n"},
			Output:  "out",
			Default: "fallback",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return nil, errors.New("provider exploded")
			},
		},
	)
	state := exec.Run(context.Background(), map[string]any{"n": 1})

	require.Contains(t, state["error"], "provider exploded")
	require.Equal(t, "fallback", state["out"])
	steps := state["reasoning_steps"].([]ReasoningStep)
	require.Len(t, steps, 1)
}

func TestRunHaltsOnErrorPayload(t *testing.T) {
	exec := New(nil,
		Step{
			Name:   "tagged",
			Inputs: []string{"n"},
			Output: "out",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return map[string]any{"error": "model failure"}, nil
			},
		},
		Step{
			Name:   "after",
			Inputs: []string{"out"},
			Output: "out2",
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				t.Fatal("must not run")
				return nil, nil
			},
		},
	)
	state := exec.Run(context.Background(), map[string]any{"n": 1})

	require.Equal(t, "model failure", state["error"])
	require.NotNil(t, state["out"], "failed payload is still stored")
}
