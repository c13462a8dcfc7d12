package controller

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// EngagementNotice is one engagement event pushed to live subscribers.
type EngagementNotice struct {
	TouchpointID uint      `json:"touchpoint_id"`
	Recipient    string    `json:"recipient"`
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EngagementHub fans recorded engagement events out to websocket
// subscribers. Slow or dead connections are dropped on write failure.
type EngagementHub struct {
	mu     sync.RWMutex
	conns  map[*websocket.Conn]bool
	logger *log.Logger
}

func NewEngagementHub(logger *log.Logger) *EngagementHub {
	return &EngagementHub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

// HandleLiveFeed keeps a subscriber registered until its read loop fails.
func (h *EngagementHub) HandleLiveFeed(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a notice to every subscriber.
func (h *EngagementHub) Broadcast(notice EngagementNotice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(notice); err != nil {
			h.logger.Printf("Dropping live feed subscriber: %v", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// SubscriberCount reports the current number of live feed connections.
func (h *EngagementHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
