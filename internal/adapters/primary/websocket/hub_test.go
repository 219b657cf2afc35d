package websocket

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHubClient(hub *Hub, datasetID uuid.UUID, buffer int) *Client {
	return &Client{
		Hub:       hub,
		Send:      make(chan domain.Event, buffer),
		DatasetID: datasetID,
		logger:    discardLogger(),
	}
}

func TestHubBroadcast(t *testing.T) {
	t.Run("events reach only the dataset's room", func(t *testing.T) {
		hub := NewHub(discardLogger())
		datasetA := uuid.New()
		datasetB := uuid.New()

		clientA := newHubClient(hub, datasetA, 4)
		clientB := newHubClient(hub, datasetB, 4)
		hub.registerClient(clientA)
		hub.registerClient(clientB)

		hub.broadcastEvent(domain.Event{Type: domain.EventFiltersUpdated, DatasetID: datasetA})

		require.Len(t, clientA.Send, 1)
		assert.Empty(t, clientB.Send)

		event := <-clientA.Send
		assert.Equal(t, domain.EventFiltersUpdated, event.Type)
		assert.Equal(t, datasetA, event.DatasetID)
	})

	t.Run("stalled client is dropped without blocking the loop", func(t *testing.T) {
		hub := NewHub(discardLogger())
		datasetID := uuid.New()

		stalled := newHubClient(hub, datasetID, 1)
		stalled.Send <- domain.Event{Type: "PONG", DatasetID: datasetID}
		hub.registerClient(stalled)

		// Must return rather than wait on the hub's own Unregister channel.
		hub.broadcastEvent(domain.Event{Type: domain.EventFiltersUpdated, DatasetID: datasetID})

		assert.Equal(t, 0, hub.GetClientsInRoom(datasetID))
		assert.Equal(t, 0, hub.GetRoomCount())

		// The send channel is closed once the client is unregistered.
		<-stalled.Send
		_, open := <-stalled.Send
		assert.False(t, open)
	})

	t.Run("broadcast to an empty room is a no-op", func(t *testing.T) {
		hub := NewHub(discardLogger())
		hub.broadcastEvent(domain.Event{Type: domain.EventDatasetIngested, DatasetID: uuid.New()})
		assert.Equal(t, 0, hub.GetClientCount())
	})

	t.Run("unregister removes the last viewer's room", func(t *testing.T) {
		hub := NewHub(discardLogger())
		datasetID := uuid.New()

		first := newHubClient(hub, datasetID, 1)
		second := newHubClient(hub, datasetID, 1)
		hub.registerClient(first)
		hub.registerClient(second)
		require.Equal(t, 2, hub.GetClientsInRoom(datasetID))

		hub.unregisterClient(first)
		assert.Equal(t, 1, hub.GetClientsInRoom(datasetID))
		assert.Equal(t, 1, hub.GetRoomCount())

		hub.unregisterClient(second)
		assert.Equal(t, 0, hub.GetRoomCount())
	})
}
