package gates

import (
	"context"
	"time"

	"go.uber.org/zap"

	"personify/internal/util/jsonutil"
)

// Deferred validation types.
const (
	DeferMarketIntelligence = "market_intelligence"
	DeferValueAlignment     = "value_alignment"
	DeferFinalContent       = "final_synthesis_content"
)

type TaskStatus string

const (
	StatusPending      TaskStatus = "pending"
	StatusCompleted    TaskStatus = "completed"
	StatusSkippedEmpty TaskStatus = "skipped_empty"
)

// Task is one validation postponed until the persona is assembled.
// DataPath is a dot path into the finished persona; empty means the
// whole persona.
type Task struct {
	Step       string         `json:"step"`
	Type       string         `json:"validation_type"`
	DataPath   string         `json:"data_path"`
	Website    string         `json:"target_website"`
	Industry   string         `json:"industry"`
	Status     TaskStatus     `json:"status"`
	Result     map[string]any `json:"result,omitempty"`
	DeferredAt time.Time      `json:"deferred_at"`
}

// marketAltPaths are tried in order when the recorded path resolves to
// nothing; synthesis rewraps market data under several names.
var marketAltPaths = []string{
	"market_intelligence",
	"enhanced_market_intelligence.market_intelligence",
	"full_market_intelligence",
	"enhanced_market_intelligence.base_intelligence.market_intelligence",
}

// Tracker records validations postponed mid-pipeline and replays them
// once the persona is assembled. A tracker belongs to one request and
// is not shared across goroutines.
type Tracker struct {
	tasks []*Task
	log   *zap.Logger
}

func NewTracker(log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{log: log}
}

// Defer records a validation to run after assembly.
func (t *Tracker) Defer(step, typ, dataPath, website, industry string) {
	t.tasks = append(t.tasks, &Task{
		Step:       step,
		Type:       typ,
		DataPath:   dataPath,
		Website:    website,
		Industry:   industry,
		Status:     StatusPending,
		DeferredAt: time.Now().UTC(),
	})
	t.log.Info("validation deferred", zap.String("step", step), zap.String("type", typ))
}

// Pending counts tasks not yet drained.
func (t *Tracker) Pending() int {
	n := 0
	for _, task := range t.tasks {
		if task.Status == StatusPending {
			n++
		}
	}
	return n
}

// Tasks returns the recorded tasks, drained or not.
func (t *Tracker) Tasks() []*Task { return t.tasks }

// Drain runs every pending task against the assembled persona. Data
// that is still empty is skipped, not failed. A validator problem is
// captured in the task result and the task still completes; drained
// tasks never bounce a finished persona.
func (t *Tracker) Drain(ctx context.Context, persona map[string]any, v *Validator, requestID string) []Outcome {
	var outcomes []Outcome
	for _, task := range t.tasks {
		if task.Status != StatusPending {
			continue
		}
		data := t.resolveData(persona, task)
		if task.Type != DeferFinalContent && jsonutil.IsEmpty(data) {
			task.Status = StatusSkippedEmpty
			task.Result = map[string]any{"reason": "no data available at drain time"}
			t.log.Info("deferred validation skipped, data still empty",
				zap.String("step", task.Step), zap.String("type", task.Type))
			continue
		}

		var out Outcome
		switch task.Type {
		case DeferMarketIntelligence:
			out = v.CheckMarketIntelligence(ctx, requestID, asMap(data), task.Website, task.Industry)
		case DeferValueAlignment:
			out = v.CheckValueAlignment(ctx, requestID, asMap(data), task.Website)
		case DeferFinalContent:
			out = v.CheckFinalSynthesis(ctx, requestID, persona, task.Website, task.Industry)
		default:
			out = Unavailable(task.Type)
			out.Notes = "unknown deferred validation type"
		}
		task.Status = StatusCompleted
		task.Result = out.Map()
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// resolveData extracts the task's target payload from the persona,
// falling back to the alternate market nestings for market tasks.
func (t *Tracker) resolveData(persona map[string]any, task *Task) any {
	if task.DataPath == "" && task.Type == DeferFinalContent {
		return persona
	}
	if data, ok := jsonutil.Lookup(persona, task.DataPath); ok && !jsonutil.IsEmpty(data) {
		return data
	}
	if task.Type == DeferMarketIntelligence {
		for _, path := range marketAltPaths {
			if data, ok := jsonutil.Lookup(persona, path); ok && !jsonutil.IsEmpty(data) {
				t.log.Debug("deferred market data found at alternate path", zap.String("path", path))
				return data
			}
		}
	}
	return nil
}

// Summary renders the tracker state for artifact embedding.
func (t *Tracker) Summary() []map[string]any {
	out := make([]map[string]any, 0, len(t.tasks))
	for _, task := range t.tasks {
		entry := map[string]any{
			"step":            task.Step,
			"validation_type": task.Type,
			"status":          string(task.Status),
			"deferred_at":     task.DeferredAt.Format(time.RFC3339),
		}
		if task.Result != nil {
			entry["result"] = task.Result
		}
		out = append(out, entry)
	}
	return out
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"data": v}
}
