package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"mazi-recorder/pkg/events"
)

type subscriptionRequest struct {
	client  *Client
	channel string
}

// Hub fans channel events out to the stream clients listening on them.
// Membership changes are serialized through Run; Broadcast only reads.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	channels map[string]map[*Client]struct{}

	register     chan *Client
	unregister   chan *Client
	subscription chan subscriptionRequest
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		channels:     make(map[string]map[*Client]struct{}),
		register:     make(chan *Client, 256),
		unregister:   make(chan *Client, 256),
		subscription: make(chan subscriptionRequest, 512),
	}
}

// Run applies membership changes until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.subscription:
			h.join(req.client, req.channel)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister drops the client from every channel and closes its Send queue.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds the client to channel, registering it if needed.
func (h *Hub) Subscribe(client *Client, channel string) {
	h.subscription <- subscriptionRequest{client: client, channel: channel}
}

// Broadcast queues payload for every client on channel. Slow clients lose
// messages rather than block the sender.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channel] {
		c.SendMessage(payload)
	}
}

// Publish encodes event and broadcasts it, so the hub can stand in as the
// in-process events.Publisher.
func (h *Hub) Publish(_ context.Context, channel string, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.Broadcast(channel, data)
	return nil
}

// SubscriberCount reports how many clients listen on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, channel := range client.channelList() {
		if members, ok := h.channels[channel]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	delete(h.clients, client.ID)
	client.closeSend()
}

func (h *Hub) join(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// a subscription queued behind the client's own Unregister is stale
	if client.isClosed() {
		return
	}
	h.clients[client.ID] = client
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[channel] = members
	}
	members[client] = struct{}{}
	client.track(channel)
}
