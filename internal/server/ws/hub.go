// Package ws implements the WebSocket pub/sub boundary: clients subscribe to
// channels per market and receive the normalized data messages in publication
// order, with cached snapshots replayed on subscribe.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tardis-dev/serum-vial/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256

	// maxMarketsPerRequest caps the markets array of a single subscribe
	// request.
	maxMarketsPerRequest = 50
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Public market data, any origin may connect.
		return true
	},
}

// snapshotTypes are the message types cached per topic and replayed to a
// client right after it subscribes, so late subscribers get current state
// before the live updates.
var snapshotTypes = map[domain.Channel][]domain.MessageType{
	domain.ChannelTrades: {domain.TypeRecentTrades},
	domain.ChannelLevel1: {domain.TypeQuote},
	domain.ChannelLevel2: {domain.TypeL2Snapshot},
	domain.ChannelLevel3: {domain.TypeL3Snapshot},
}

// subscribeRequest is the JSON operation a client sends to manage its
// subscriptions.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Channel string   `json:"channel"`
	Markets []string `json:"markets"`
}

// client is a single WebSocket connection with its topic subscriptions.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

// Hub fans the producer's message envelopes out to subscribed WebSocket
// clients and keeps the latest snapshot payload per topic for replay.
type Hub struct {
	logger     *slog.Logger
	markets    map[string]bool
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan domain.MessageEnvelope

	snapMu    sync.RWMutex
	snapshots map[string][]byte
}

// NewHub creates a hub serving the given market names.
func NewHub(logger *slog.Logger, marketNames []string) *Hub {
	markets := make(map[string]bool, len(marketNames))
	for _, name := range marketNames {
		markets[name] = true
	}
	return &Hub{
		logger:     logger.With("component", "ws_hub"),
		markets:    markets,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan domain.MessageEnvelope, 1024),
		snapshots:  make(map[string][]byte),
	}
}

// topicKey is the broadcast routing key: "{type}/{market}".
func topicKey(msgType domain.MessageType, market string) string {
	return fmt.Sprintf("%s/%s", msgType, market)
}

// Publish hands one envelope to the hub. Snapshot payloads are always cached;
// only envelopes flagged for publication reach live subscribers.
func (h *Hub) Publish(ctx context.Context, env domain.MessageEnvelope) error {
	select {
	case h.broadcast <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the hub's main event loop. It handles client registration,
// unregistration and message broadcasting until ctx is canceled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return ctx.Err()

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info("client connected", "client_id", c.id, "total_clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("client disconnected", "client_id", c.id, "total_clients", len(h.clients))

		case env := <-h.broadcast:
			h.cacheSnapshot(env)
			if !env.Publish {
				continue
			}
			topic := topicKey(env.Type, env.Market)
			for c := range h.clients {
				if !c.isSubscribed(topic) {
					continue
				}
				select {
				case c.send <- env.Payload:
				default:
					// Client's send buffer is full; drop the message.
					h.logger.Warn("dropping message for slow client", "client_id", c.id)
				}
			}
		}
	}
}

func (h *Hub) cacheSnapshot(env domain.MessageEnvelope) {
	switch env.Type {
	case domain.TypeL3Snapshot, domain.TypeL2Snapshot, domain.TypeQuote, domain.TypeRecentTrades:
	default:
		return
	}
	h.snapMu.Lock()
	h.snapshots[topicKey(env.Type, env.Market)] = env.Payload
	h.snapMu.Unlock()
}

func (h *Hub) snapshotFor(msgType domain.MessageType, market string) []byte {
	h.snapMu.RLock()
	defer h.snapMu.RUnlock()
	return h.snapshots[topicKey(msgType, market)]
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /v1/streams
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump reads subscription operations from the client until the
// connection drops.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close error", "client_id", c.id, "error", err)
			}
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.sendError(fmt.Sprintf("invalid message: %s", err))
			continue
		}
		c.handleRequest(req)
	}
}

// handleRequest validates and applies one subscribe/unsubscribe operation.
func (c *client) handleRequest(req subscribeRequest) {
	if req.Op != "subscribe" && req.Op != "unsubscribe" {
		c.sendError(fmt.Sprintf("invalid op %q, allowed ops: subscribe, unsubscribe", req.Op))
		return
	}

	channel := domain.Channel(req.Channel)
	msgTypes, ok := domain.MessageTypesPerChannel[channel]
	if !ok {
		c.sendError(fmt.Sprintf("invalid channel %q, allowed channels: %s", req.Channel, channelNames()))
		return
	}

	if len(req.Markets) == 0 {
		c.sendError("no markets provided")
		return
	}
	if len(req.Markets) > maxMarketsPerRequest {
		c.sendError(fmt.Sprintf("too many markets provided (> %d)", maxMarketsPerRequest))
		return
	}
	for _, market := range req.Markets {
		if !c.hub.markets[market] {
			c.sendError(fmt.Sprintf("invalid market %q", market))
			return
		}
	}

	c.mu.Lock()
	for _, market := range req.Markets {
		for _, msgType := range msgTypes {
			if req.Op == "subscribe" {
				c.subs[topicKey(msgType, market)] = true
			} else {
				delete(c.subs, topicKey(msgType, market))
			}
		}
	}
	c.mu.Unlock()

	c.sendConfirmation(req)

	if req.Op == "subscribe" {
		c.replaySnapshots(channel, req.Markets)
	}
}

// replaySnapshots pushes the cached snapshot payloads for the channel's
// markets so a new subscriber starts from current state.
func (c *client) replaySnapshots(channel domain.Channel, markets []string) {
	for _, market := range markets {
		for _, msgType := range snapshotTypes[channel] {
			payload := c.hub.snapshotFor(msgType, market)
			if payload == nil {
				continue
			}
			select {
			case c.send <- payload:
			default:
				c.hub.logger.Warn("dropping snapshot for slow client", "client_id", c.id)
			}
		}
	}
}

func (c *client) sendConfirmation(req subscribeRequest) {
	msgType := domain.TypeSubscribed
	if req.Op == "unsubscribe" {
		msgType = domain.TypeUnsubscribed
	}
	c.sendJSON(map[string]any{
		"type":      msgType,
		"channel":   req.Channel,
		"markets":   req.Markets,
		"timestamp": time.Now().UTC(),
	})
}

func (c *client) sendError(message string) {
	c.hub.logger.Warn("rejecting client request", "client_id", c.id, "reason", message)
	c.sendJSON(map[string]any{
		"type":      domain.TypeError,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (c *client) sendJSON(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// isSubscribed checks whether the client subscribed to the given topic.
func (c *client) isSubscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[topic]
}

// writePump pumps messages from the hub to the WebSocket connection and
// sends periodic ping frames for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func channelNames() string {
	names := ""
	for i, ch := range domain.Channels {
		if i > 0 {
			names += ", "
		}
		names += string(ch)
	}
	return names
}
