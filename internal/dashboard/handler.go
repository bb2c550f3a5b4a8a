// Package dashboard provides event handling and message formatting for the dashboard.
package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nikolaykusch/TODOtoNOTION/internal/engine"
)

// Handler turns completed pass results into dashboard messages. It
// satisfies the daemon's Notifier interface and keeps running totals.
type Handler struct {
	server *Server
	logger *log.Logger

	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// PushCompleted broadcasts a finished push pass.
func (h *Handler) PushCompleted(result *engine.PushResult) {
	h.logger.Printf("Push complete: %s (%d created, %d updated, %d archived)",
		result.File, len(result.Created), len(result.Updated), len(result.Archived))

	h.statsMu.Lock()
	h.stats.Passes++
	h.stats.Created += len(result.Created)
	h.stats.Updated += len(result.Updated)
	h.stats.Archived += len(result.Archived)
	h.stats.Failed += len(result.Failed)
	h.statsMu.Unlock()

	data := PassData{
		Direction:  "push",
		File:       result.File,
		Stamped:    result.Stamped,
		Created:    len(result.Created),
		Updated:    len(result.Updated),
		Archived:   len(result.Archived),
		Failed:     len(result.Failed),
		DurationMs: result.Duration.Milliseconds(),
	}
	h.broadcastPass(data)
}

// PullCompleted broadcasts a finished pull pass.
func (h *Handler) PullCompleted(result *engine.PullResult) {
	h.logger.Printf("Pull complete: %s (%d edited, %d deleted)",
		result.File, len(result.Updated), len(result.Deleted))

	h.statsMu.Lock()
	h.stats.Passes++
	h.stats.Edited += len(result.Updated)
	h.stats.Deleted += len(result.Deleted)
	h.stats.Failed += len(result.Failed)
	h.statsMu.Unlock()

	data := PassData{
		Direction:  "pull",
		File:       result.File,
		Edited:     len(result.Updated),
		Deleted:    len(result.Deleted),
		Failed:     len(result.Failed),
		DurationMs: result.Duration.Milliseconds(),
	}
	h.broadcastPass(data)
}

func (h *Handler) broadcastPass(data PassData) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal pass data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypePassComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
	h.broadcastStats()
}

// broadcastStats sends current totals to all clients.
func (h *Handler) broadcastStats() {
	h.statsMu.Lock()
	snapshot := h.stats
	h.statsMu.Unlock()

	dataJSON, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// GetStats returns the current totals.
func (h *Handler) GetStats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}
