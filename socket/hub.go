package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"todolist/internal/todo/model"
	"todolist/pkg/logger"
)

const (
	broadcastBuffer = 256
	snapshotTimeout = 5 * time.Second
)

// ListLoader loads the state sent to a client when it joins a room.
type ListLoader interface {
	FindListByName(ctx context.Context, name string) (*model.List, error)
}

// Hub fans list events out to every browser viewing that list. Rooms are
// keyed by normalized list name.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan model.ListEvent
	Register   chan *Client
	Unregister chan *Client
	loader     ListLoader
	mu         sync.Mutex
	done       chan struct{}
}

func NewHub(loader ListLoader) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan model.ListEvent, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		loader:     loader,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.ListName] == nil {
				h.Rooms[client.ListName] = make(map[*Client]bool)
			}
			h.Rooms[client.ListName][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Rooms[client.ListName][client]; ok {
				delete(h.Rooms[client.ListName], client)
				close(client.Send)

				if len(h.Rooms[client.ListName]) == 0 {
					delete(h.Rooms, client.ListName)
					logger.Sugar.Debugf("Closed empty room: %s", client.ListName)
				}
			}
			h.mu.Unlock()

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Collect recipients under the lock, send outside it.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[event.ListName]))
			for client := range h.Rooms[event.ListName] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				h.sendTo(client, payload)
			}
		}
	}
}

// Publish queues an event for delivery. It never blocks request handling: if
// the queue is full or the hub has stopped the event is dropped.
func (h *Hub) Publish(event model.ListEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.Broadcast <- event:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping %s event for %s", event.Type, event.ListName)
	}
}

// ClientCount is the number of clients connected to a list's room.
func (h *Hub) ClientCount(listName string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[listName])
}

// snapshot loads the SNAPSHOT message for a joining client. It runs on the
// joining request's goroutine, never on the event loop.
func (h *Hub) snapshot(ctx context.Context, listName string) []byte {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	items := []model.Item{}
	list, err := h.loader.FindListByName(ctx, listName)
	switch {
	case err == nil:
		items = list.Items
	case errors.Is(err, model.ErrNotFound):
	default:
		logger.Sugar.Errorf("Failed to load list %s for snapshot: %v", listName, err)
	}

	itemsPayload, _ := json.Marshal(items)
	payload, _ := json.Marshal(model.ListEvent{Type: model.SnapshotType, ListName: listName, Payload: itemsPayload})
	return payload
}

func (h *Hub) sendTo(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		// A full send buffer means the client is lagging; drop it rather than
		// stall the hub.
		logger.Sugar.Warnf("Client on %s has a full send buffer, disconnecting", client.ListName)
		h.mu.Lock()
		if _, ok := h.Rooms[client.ListName][client]; ok {
			delete(h.Rooms[client.ListName], client)
			close(client.Send)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for name, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
			client.Conn.Close()
		}
		delete(h.Rooms, name)
	}
}
