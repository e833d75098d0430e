package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StepFunc runs one step over its gathered inputs. An error result, or
// a map result whose "error" key is set, halts the workflow.
type StepFunc func(ctx context.Context, in map[string]any) (any, error)

// Step declares one stage of a workflow: which state keys it consumes,
// which key it produces, and a default value stored under Output when
// the step cannot run.
type Step struct {
	Name    string
	Inputs  []string
	Output  string
	Default any
	Run     StepFunc
}

// ReasoningStep is the audit record emitted per executed step.
type ReasoningStep struct {
	Step    int    `json:"step"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Executor runs steps sequentially over a shared state map. It never
// panics the caller: any failure is recorded under "error" and the
// state accumulated so far, including "reasoning_steps", is returned.
type Executor struct {
	steps []Step
	log   *zap.Logger
}

func New(log *zap.Logger, steps ...Step) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{steps: steps, log: log}
}

// Run executes every step in order against a copy of initial. On the
// first failure the partial state is returned with "error" set and the
// failed step's Default stored under its Output key, so downstream
// consumers see a well-formed shape either way.
func (e *Executor) Run(ctx context.Context, initial map[string]any) map[string]any {
	state := make(map[string]any, len(initial)+len(e.steps)+2)
	for k, v := range initial {
		state[k] = v
	}
	var reasoning []ReasoningStep
	defer func() { state["reasoning_steps"] = reasoning }()

	for i, st := range e.steps {
		in := make(map[string]any, len(st.Inputs))
		missing := ""
		for _, key := range st.Inputs {
			v, ok := state[key]
			if !ok {
				missing = key
				break
			}
			in[key] = v
		}
		if missing != "" {
			state["error"] = fmt.Sprintf("step %s: missing input %q", st.Name, missing)
			state[st.Output] = st.Default
			e.log.Warn("workflow halted on missing input",
				zap.String("step", st.Name), zap.String("input", missing))
			return state
		}

		out, err := st.Run(ctx, in)
		if err != nil {
			state["error"] = fmt.Sprintf("step %s: %v", st.Name, err)
			state[st.Output] = st.Default
			reasoning = append(reasoning, ReasoningStep{Step: i + 1, Name: st.Name, Summary: "failed: " + err.Error()})
			e.log.Warn("workflow step failed", zap.String("step", st.Name), zap.Error(err))
			return state
		}

		state[st.Output] = out
		reasoning = append(reasoning, ReasoningStep{Step: i + 1, Name: st.Name, Summary: summarize(out)})

		// A step may report failure inside its own payload.
		if m, ok := out.(map[string]any); ok {
			if msg, found := m["error"]; found && msg != nil && msg != "" {
				state["error"] = fmt.Sprint(msg)
				e.log.Warn("workflow halted on step error payload",
					zap.String("step", st.Name), zap.String("error", fmt.Sprint(msg)))
				return state
			}
		}
	}
	return state
}

// summaryKeys are tried in order to produce a one-line reasoning entry.
var summaryKeys = []string{"summary", "assessment", "validation_notes", "overall_sentiment", "notes"}

func summarize(out any) string {
	if m, ok := out.(map[string]any); ok {
		for _, key := range summaryKeys {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	s := fmt.Sprintf("%v", out)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
