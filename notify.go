package blackjack

import (
	"log"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Notifier is told about every committed change to a session. It is
// always called after the session lock is released.
type Notifier interface {
	Notify(sessionID string)
}

type NotifierFunc func(sessionID string)

func (f NotifierFunc) Notify(sessionID string) { f(sessionID) }

// Hub fans game_notify messages out to websocket subscribers.
type Hub struct {
	writeTimeout time.Duration
	logger       *log.Logger

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
}

func NewHub(logger *log.Logger, writeTimeout time.Duration) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		writeTimeout: writeTimeout,
		logger:       logger,
		subs:         make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.subs[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.subs[sessionID] = conns
	}
	conns[conn] = struct{}{}
}

func (h *Hub) Unsubscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subs[sessionID]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.subs, sessionID)
	}
}

// Subscribers is the number of connections watching sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

// Notify sends one game_notify to every subscriber of sessionID.
// Connections that fail to take the message are dropped.
func (h *Hub) Notify(sessionID string) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[sessionID]))
	for c := range h.subs[sessionID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := MakeMessage(MessageGameNotify, GameNotifyMessage{Game: sessionID})
	for _, c := range conns {
		if h.writeTimeout > 0 {
			c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := websocket.JSON.Send(c, msg); err != nil {
			h.logger.Printf("%s: dropping subscriber: %v", sessionID, err)
			h.Unsubscribe(sessionID, c)
			c.Close()
		}
	}
}
