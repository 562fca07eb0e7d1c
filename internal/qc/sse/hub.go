package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is one connected browser tab
type Client struct {
	ID      string
	UserID  string
	Factory string
	Events  chan Event
}

// Hub fans report events out to connected clients
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast never blocks; a client with a full buffer misses the event
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// ReportUpdate payload of a report_update event
type ReportUpdate struct {
	ReportID string `json:"report_id"`
	OrderNo  string `json:"order_no"`
	Action   string `json:"action"`
	Status   string `json:"status"`
	Result   string `json:"result"`
}

// PublishReportUpdate broadcasts a report_update event
func (h *Hub) PublishReportUpdate(update ReportUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("marshal report update", zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: "report_update", Data: string(data)})
}
