package progress

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one progress update of a generation run.
type Event struct {
	RunID  string    `json:"run_id"`
	Step   string    `json:"step"`
	Number float64   `json:"step_number"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// Hub fans generation progress out to websocket watchers. Events are
// buffered per run so a watcher attaching mid-run sees the history.
// All methods are safe on a nil hub, which turns progress reporting
// into a no-op for callers wired without one.
type Hub struct {
	mu       sync.Mutex
	subs     map[string][]chan Event
	history  map[string][]Event
	finished map[string]struct{}
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs:     make(map[string][]chan Event),
		history:  make(map[string][]Event),
		finished: make(map[string]struct{}),
		log:      log,
	}
}

// Publish records and broadcasts one event. Slow watchers are skipped
// rather than blocking the pipeline.
func (h *Hub) Publish(runID, step string, number float64, status string) {
	if h == nil {
		return
	}
	ev := Event{RunID: runID, Step: step, Number: number, Status: status, At: time.Now().UTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history[runID] = append(h.history[runID], ev)
	for _, ch := range h.subs[runID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel replaying the run's history and then
// streaming live events, plus a cancel func that must be called.
// Subscribing to a finished run yields an already-closed channel.
func (h *Hub) Subscribe(runID string) (<-chan Event, func()) {
	if h == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	h.mu.Lock()
	if _, done := h.finished[runID]; done {
		h.mu.Unlock()
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	// The buffer is sized for the full history so the replay below can
	// never block while the lock is held.
	hist := h.history[runID]
	ch := make(chan Event, len(hist)+64)
	for _, ev := range hist {
		ch <- ev
	}
	h.subs[runID] = append(h.subs[runID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subs[runID]
		for i, c := range subs {
			if c == ch {
				h.subs[runID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Finish closes out a run's live subscriptions and drops its history.
func (h *Hub) Finish(runID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[runID] {
		close(ch)
	}
	h.finished[runID] = struct{}{}
	delete(h.subs, runID)
	delete(h.history, runID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS streams a run's progress over a websocket. The run ID comes
// from the "run" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "missing run parameter", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(runID)
	defer cancel()

	// Reader goroutine detects client-side close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
