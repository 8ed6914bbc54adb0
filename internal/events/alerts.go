// Package events broadcasts run-lifecycle events: a run starting, an
// iteration completing, a halt condition being reached, a worker task
// failing. Adapted from the teacher's internal/heuristics.AlertManager:
// same broadcast-to-websocket-plus-webhooks-plus-in-memory-history shape,
// repurposed from security alerts to run-lifecycle notifications.
package events

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// Event is a structured run-lifecycle notification.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"` // run_started/iteration_complete/halted/worker_failed/resume_skipped
	Severity  string                 `json:"severity"`
	RunID     string                 `json:"runId"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// WebhookEndpoint is a registered webhook receiver, same shape as the
// teacher's WebhookEndpoint (Slack/Discord/generic JSON payload).
type WebhookEndpoint struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Enabled bool              `json:"enabled"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Manager distributes events to a websocket broadcast callback, to
// registered webhooks, and keeps a bounded in-memory history.
type Manager struct {
	mu         sync.RWMutex
	webhooks   []WebhookEndpoint
	recent     []Event
	maxHistory int
	httpClient *http.Client
	broadcast  func(Event)
}

// NewManager creates an event manager. broadcastFn is typically the
// status API's websocket hub Broadcast method; it may be nil if no
// real-time push is wired up.
func NewManager(broadcastFn func(Event)) *Manager {
	return &Manager{
		maxHistory: 1000,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		broadcast:  broadcastFn,
	}
}

// RegisterWebhook adds a webhook endpoint.
func (m *Manager) RegisterWebhook(name, url string, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, WebhookEndpoint{Name: name, URL: url, Enabled: true, Headers: headers})
	log.Printf("[events] registered webhook: %s -> %s", name, url)
}

// Emit records, broadcasts, and delivers an event.
func (m *Manager) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		e.ID = e.RunID + "-" + e.Type + "-" + e.Timestamp.Format(time.RFC3339Nano)
	}

	m.mu.Lock()
	m.recent = append(m.recent, e)
	if len(m.recent) > m.maxHistory {
		m.recent = m.recent[len(m.recent)-m.maxHistory:]
	}
	webhooks := append([]WebhookEndpoint(nil), m.webhooks...)
	m.mu.Unlock()

	if m.broadcast != nil {
		m.broadcast(e)
	}

	for _, wh := range webhooks {
		if !wh.Enabled {
			continue
		}
		go m.sendWebhook(wh, e)
	}

	log.Printf("[events] [%s] %s: %s", e.RunID, e.Type, e.Message)
}

// RunStarted emits a run_started event.
func (m *Manager) RunStarted(runID, method, encoding string) {
	m.Emit(Event{
		Type:     "run_started",
		Severity: "info",
		RunID:    runID,
		Message:  "run started",
		Payload:  map[string]interface{}{"method": method, "encoding": encoding},
	})
}

// IterationComplete emits an iteration_complete event.
func (m *Manager) IterationComplete(runID string, iteration, nUnique int) {
	m.Emit(Event{
		Type:     "iteration_complete",
		Severity: "info",
		RunID:    runID,
		Message:  "iteration complete",
		Payload:  map[string]interface{}{"iteration": iteration, "n_unique_users": nUnique},
	})
}

// Halted emits a halted event.
func (m *Manager) Halted(runID, reason string) {
	m.Emit(Event{
		Type:     "halted",
		Severity: "info",
		RunID:    runID,
		Message:  "run halted: " + reason,
		Payload:  map[string]interface{}{"reason": reason},
	})
}

// WorkerFailed emits a worker_failed event, matching spec.md §7's
// requirement that a single worker task's failure is logged and the run
// proceeds rather than aborting.
func (m *Manager) WorkerFailed(runID, userID string, err error) {
	m.Emit(Event{
		Type:     "worker_failed",
		Severity: "medium",
		RunID:    runID,
		Message:  "worker task failed",
		Payload:  map[string]interface{}{"user_id": userID, "error": err.Error()},
	})
}

// RecentEvents returns the most recent events, most recent first.
func (m *Manager) RecentEvents(limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.recent) {
		limit = len(m.recent)
	}
	start := len(m.recent) - limit
	result := make([]Event, limit)
	for i := 0; i < limit; i++ {
		result[i] = m.recent[start+limit-1-i]
	}
	return result
}

func (m *Manager) sendWebhook(wh WebhookEndpoint, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("[events] failed to marshal event for %s: %v", wh.Name, err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("[events] failed to build request for %s: %v", wh.Name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range wh.Headers {
		req.Header.Set(k, v)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[events] failed to send to %s: %v", wh.Name, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("[events] %s returned status %d", wh.Name, resp.StatusCode)
	}
}
