package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// Hub maintains the set of active Clients and fans dataset events out to
// them. Every connection is bound to exactly one dataset by its session
// token, so rooms are keyed by dataset ID and membership is fixed at
// registration. A dataset can have many connections (multiple tabs).
type Hub struct {
	// rooms maps dataset IDs to connected clients
	rooms map[uuid.UUID]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the rooms map
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast sends an event to the hub's internal broadcast channel.
// This method implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"dataset_id", event.DatasetID,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// registerClient adds a client to its dataset's room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.DatasetID] == nil {
		h.rooms[client.DatasetID] = make(map[*Client]bool)
	}
	h.rooms[client.DatasetID][client] = true

	h.logger.Info("client registered",
		"dataset_id", client.DatasetID,
		"room_connections", len(h.rooms[client.DatasetID]),
	)
}

// unregisterClient removes a client from its room
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[client.DatasetID]; ok {
		if _, exists := room[client]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.DatasetID)
			}
		}
	}

	// Safely close the send channel
	client.CloseSend()

	h.logger.Info("client unregistered",
		"dataset_id", client.DatasetID,
	)
}

// broadcastEvent sends an event to every client viewing the event's dataset
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	room, ok := h.rooms[event.DatasetID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"dataset_id", event.DatasetID,
		"client_count", len(clients),
	)

	// Send to each client. Unregister stalled clients inline rather than via
	// the Unregister channel; this runs on the Run goroutine, so a channel
	// send here would block the event loop against itself.
	for _, client := range clients {
		select {
		case client.Send <- event:
			// Successfully queued
		default:
			h.logger.Warn("client send buffer full, unregistering",
				"dataset_id", client.DatasetID,
			)
			h.unregisterClient(client)
		}
	}
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, room := range h.rooms {
		count += len(room)
	}
	return count
}

// GetRoomCount returns the number of datasets with at least one viewer
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients viewing a dataset
func (h *Hub) GetClientsInRoom(datasetID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[datasetID]; ok {
		return len(room)
	}
	return 0
}
