package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"assessment_backend/internal/util"
	"assessment_backend/pkg/logger"
	"assessment_backend/pkg/monitoring"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	shardCount     = 32
	sendBuffer     = 256

	eventChannel = "assessment_workspace_events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is an outbound event.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundMessage is what a client sends. Data is decoded by the handler
// for its Type.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InboundHandler processes a client message and may return a reply for
// that client alone.
type InboundHandler func(workspaceID string, ownerID uint, msg InboundMessage) *WSMessage

type Client struct {
	Hub         *EventHub
	Conn        *websocket.Conn
	Send        chan []byte
	WorkspaceID string
	UserID      uint
	Limiter     *rate.Limiter
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("workspace", c.WorkspaceID))
			}
			break
		}

		// excess drag events are dropped
		if !c.Limiter.Allow() {
			continue
		}

		var in InboundMessage
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}
		monitoring.WSMessageCounter.WithLabelValues(in.Type, "in").Inc()

		if reply := c.Hub.dispatch(c, in); reply != nil {
			c.Hub.sendTo(c, *reply)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// EventHub fans workspace events out to websocket clients. With Redis set,
// events go through pub/sub so a client connected to another instance
// still receives them.
type EventHub struct {
	shards [shardCount]*shard
	Redis  *redis.Client

	handlerMu sync.RWMutex
	handler   InboundHandler

	stopOnce sync.Once
	done     chan struct{}
}

func NewEventHub(rdb *redis.Client) *EventHub {
	h := &EventHub{
		Redis: rdb,
		done:  make(chan struct{}),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[string]map[*Client]struct{}),
		}
	}
	return h
}

func (h *EventHub) SetInboundHandler(fn InboundHandler) {
	h.handlerMu.Lock()
	h.handler = fn
	h.handlerMu.Unlock()
}

func (h *EventHub) dispatch(c *Client, in InboundMessage) *WSMessage {
	if in.Type == util.MessagePing {
		return &WSMessage{Type: util.MessagePing}
	}
	h.handlerMu.RLock()
	fn := h.handler
	h.handlerMu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(c.WorkspaceID, c.UserID, in)
}

func (h *EventHub) getShard(workspaceID string) *shard {
	return h.shards[xxhash.Sum64String(workspaceID)%shardCount]
}

type PubSubMessage struct {
	WorkspaceID string          `json:"workspaceId"`
	Payload     json.RawMessage `json:"payload"`
}

// Run relays pub/sub events to local clients until ctx is done, then
// closes every client. Without Redis it only waits for ctx.
func (h *EventHub) Run(ctx context.Context) {
	defer h.Stop()
	if h.Redis == nil {
		<-ctx.Done()
		return
	}

	pubsub := h.Redis.Subscribe(ctx, eventChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var psMsg PubSubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.pushToLocal(psMsg.WorkspaceID, psMsg.Payload)
		}
	}
}

func (h *EventHub) add(client *Client) bool {
	s := h.getShard(client.WorkspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	set, ok := s.clients[client.WorkspaceID]
	if !ok {
		set = make(map[*Client]struct{})
		s.clients[client.WorkspaceID] = set
	}
	set[client] = struct{}{}
	return true
}

func (h *EventHub) remove(client *Client) {
	s := h.getShard(client.WorkspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.clients[client.WorkspaceID]
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(s.clients, client.WorkspaceID)
	}
}

// Disconnect closes the local clients of one workspace.
func (h *EventHub) Disconnect(workspaceID string) {
	s := h.getShard(workspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients[workspaceID] {
		close(client.Send)
	}
	delete(s.clients, workspaceID)
}

// Stop closes all local connections. It is safe to call more than once.
func (h *EventHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		closed := 0
		for i := 0; i < shardCount; i++ {
			s := h.shards[i]
			s.mu.Lock()
			for id, set := range s.clients {
				for client := range set {
					close(client.Send)
					closed++
				}
				delete(s.clients, id)
			}
			s.mu.Unlock()
		}
		logger.Log.Info("EventHub stopped", zap.Int("closedConnections", closed))
	})
}

// Push satisfies EventSink.
func (h *EventHub) Push(workspaceID string, msg WSMessage) {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Event marshal error", zap.Error(err), zap.String("type", msg.Type))
		return
	}
	monitoring.WSMessageCounter.WithLabelValues(msg.Type, "out").Inc()

	if h.Redis == nil {
		h.pushToLocal(workspaceID, msgBytes)
		return
	}
	payload, _ := json.Marshal(PubSubMessage{WorkspaceID: workspaceID, Payload: msgBytes})
	if err := h.Redis.Publish(context.Background(), eventChannel, payload).Err(); err != nil {
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
		h.pushToLocal(workspaceID, msgBytes)
	}
}

func (h *EventHub) sendTo(c *Client, msg WSMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s := h.getShard(c.WorkspaceID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clients[c.WorkspaceID][c]; !ok {
		return
	}
	monitoring.WSMessageCounter.WithLabelValues(msg.Type, "out").Inc()
	select {
	case c.Send <- b:
	default:
	}
}

func (h *EventHub) pushToLocal(workspaceID string, payload []byte) {
	s := h.getShard(workspaceID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients[workspaceID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Connections reports how many local clients watch workspaceID.
func (h *EventHub) Connections(workspaceID string) int {
	s := h.getShard(workspaceID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[workspaceID])
}

// Attach registers an already upgraded connection.
func (h *EventHub) Attach(conn *websocket.Conn, workspaceID string, userID uint) *Client {
	client := &Client{
		Hub:         h,
		Conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Limiter:     rate.NewLimiter(rate.Limit(60), 120),
	}
	if !h.add(client) {
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return client
}

func ServeWs(hub *EventHub, w http.ResponseWriter, r *http.Request, workspaceID string, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("workspace", workspaceID))
		return
	}
	hub.Attach(conn, workspaceID, userID)
}
