package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-indexer/internal/notifications"
)

// Publisher hands notification events to downstream subscribers
type Publisher interface {
	Publish(ctx context.Context, events []notifications.Event) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans subaccount notifications out to websocket clients subscribed to
// the event key (the subaccount uuid).
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

var _ Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Publish delivers each event to the subscribers of its key. A client whose
// send buffer is full misses the message.
func (h *Hub) Publish(ctx context.Context, events []notifications.Event) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := json.Marshal(event.Message)
		if err != nil {
			return fmt.Errorf("failed to marshal %s message: %w", event.Topic, err)
		}

		h.mu.RLock()
		for client := range h.clients {
			if !client.IsSubscribed(event.Key) {
				continue
			}
			select {
			case client.send <- body:
			default:
				log.Warn().
					Str("component", "publisher").
					Str("client_id", client.id).
					Str("channel", event.Key).
					Msg("client send buffer full, dropping message")
			}
		}
		h.mu.RUnlock()
	}
	return nil
}

// SubscriberCount returns how many clients listen on channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.IsSubscribed(channel) {
			n++
		}
	}
	return n
}

// ServeWS upgrades the request and runs the client until it disconnects
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("component", "publisher").Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            conn.RemoteAddr().String(),
		subscriptions: make(map[string]bool),
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("component", "publisher").Str("client_id", c.id).Int("total", total).Msg("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("component", "publisher").Str("client_id", c.id).Int("total", total).Msg("client disconnected")
}
