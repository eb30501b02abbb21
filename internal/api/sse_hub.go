package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RunEvent reports the end of one analysis run to SSE subscribers
type RunEvent struct {
	Analysis   string    `json:"analysis"`
	EventType  string    `json:"event_type"`
	RunID      string    `json:"run_id,omitempty"`
	Status     string    `json:"status"`
	TrialCount int       `json:"trial_count"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// allAnalyses is the subscription key of clients that want every event.
const allAnalyses = ""

// RunHub fans run events out to Server-Sent Events clients
type RunHub struct {
	clients   map[string]map[chan RunEvent]bool
	clientsMu sync.RWMutex
}

// NewRunHub creates an empty hub
func NewRunHub() *RunHub {
	return &RunHub{clients: make(map[string]map[chan RunEvent]bool)}
}

// Subscribe registers a client for one analysis, or for all of them when
// analysis is empty. The returned cancel func unregisters and closes the
// channel.
func (h *RunHub) Subscribe(analysis string) (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, 10)

	h.clientsMu.Lock()
	if h.clients[analysis] == nil {
		h.clients[analysis] = make(map[chan RunEvent]bool)
	}
	h.clients[analysis][ch] = true
	log.Printf("[SSE] Client registered for %q (total clients: %d)", analysis, len(h.clients[analysis]))
	h.clientsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.clientsMu.Lock()
			defer h.clientsMu.Unlock()
			clients := h.clients[analysis]
			delete(clients, ch)
			close(ch)
			if len(clients) == 0 {
				delete(h.clients, analysis)
			}
		})
	}
	return ch, cancel
}

// Broadcast sends an event to the clients of its analysis and to the
// clients of all analyses. Full client channels drop the event.
func (h *RunHub) Broadcast(event RunEvent) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	keys := []string{event.Analysis}
	if event.Analysis != allAnalyses {
		keys = append(keys, allAnalyses)
	}
	for _, key := range keys {
		for ch := range h.clients[key] {
			select {
			case ch <- event:
			default:
				log.Printf("[SSE] Client channel full for %q, skipping %s", key, event.EventType)
			}
		}
	}
}

// ClientCount returns the number of clients subscribed under analysis
func (h *RunHub) ClientCount(analysis string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[analysis])
}

// HandleSSE streams run events. The optional analysis query parameter
// narrows the stream to one analysis.
func (h *RunHub) HandleSSE(c *gin.Context) {
	events, cancel := h.Subscribe(c.Query("analysis"))
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(data))
			return true
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+time.Now().Format(time.RFC3339)+`"}`)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
