package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"quiz_console/pkg/logger"
	"quiz_console/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WSMessage 推送给浏览器标签页的消息
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const MessageSessionChanged = "SESSION_CHANGED"

// SessionSnapshot 会话头部展示所需的数据
type SessionSnapshot struct {
	State       string `json:"state"`
	RemainingMS int64  `json:"remaining_ms"`
	Remaining   string `json:"remaining"`
}

func Snapshot(ctx context.Context, gate *SessionGate) SessionSnapshot {
	state := gate.State()
	remaining := time.Duration(0)
	if state == StateAuthenticated {
		remaining = gate.RemainingTime(ctx)
	}
	return SessionSnapshot{
		State:       state.String(),
		RemainingMS: remaining.Milliseconds(),
		Remaining:   FormatRemainingTime(remaining),
	}
}

type hubClient struct {
	hub  *SessionHub
	conn *websocket.Conn
	send chan []byte
}

// SessionHub 将 gate 的状态变化推送到所有已连接的浏览器标签页
type SessionHub struct {
	gate     *SessionGate
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

func NewSessionHub(gate *SessionGate, checkOrigin func(r *http.Request) bool) *SessionHub {
	return &SessionHub{
		gate: gate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Start 订阅 gate 状态变化和 store 事件并广播，ctx 结束时断开所有连接
func (h *SessionHub) Start(ctx context.Context) {
	unsubscribe := h.gate.Subscribe(func(_, _ GateState) {
		h.Broadcast(ctx)
	})
	// 状态未变的 store 事件同样推送，其他上下文重新登录会改变剩余时间
	unsubscribeEvents := h.gate.SubscribeEvents(func() {
		h.Broadcast(ctx)
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
		unsubscribeEvents()
		h.Stop()
	}()
}

func (h *SessionHub) message(ctx context.Context) []byte {
	data, _ := json.Marshal(WSMessage{Type: MessageSessionChanged, Data: Snapshot(ctx, h.gate)})
	return data
}

// Broadcast 推送当前会话快照；发送队列已满的客户端被断开
func (h *SessionHub) Broadcast(ctx context.Context) {
	msg := h.message(ctx)
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.removeLocked(c)
		}
	}
}

func (h *SessionHub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	monitoring.SessionSubscribers.Inc()
	return true
}

func (h *SessionHub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *SessionHub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		monitoring.SessionSubscribers.Dec()
	}
}

func (h *SessionHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *SessionHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWs 升级连接并立即推送一次当前状态
func (h *SessionHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	c := &hubClient{hub: h, conn: conn, send: make(chan []byte, 16)}
	c.send <- h.message(r.Context())
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump 只处理控制帧，浏览器不向服务端发送业务消息
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (c *hubClient) writePump() {
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
