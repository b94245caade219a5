// Package live pushes race-day updates (fixture status changes, results,
// notifications) to connected fans over websockets.
package live

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Event is one broadcast message.
type Event struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to connected clients. Clients that can't keep up
// are dropped rather than allowed to stall the broadcast loop.
type Hub struct {
	Logger *logrus.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		Logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run owns the client set; it exits when ctx is cancelled, closing all
// connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast queues an event for all connected clients. It never blocks:
// when the hub is saturated the event is dropped with a warning.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	if h == nil {
		return
	}
	message, err := json.Marshal(Event{Kind: kind, Payload: payload})
	if err != nil {
		h.Logger.WithError(err).Warn("live: encode event failed")
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.Logger.Warn("live: broadcast queue full, event dropped")
	}
}
