// Package canvas broadcasts block updates to connected viewers of an AI
// session's canvas over WebSocket, the same connection-registry idiom the
// chat blueprint's realtime layer uses. The HTTP upgrade handshake itself
// is the excluded HTTP surface (§1); callers hand this package an already
// upgraded *websocket.Conn.
package canvas

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/privasearch/search/types"
)

// Hub fans block-update events out to every connection subscribed to a
// session's canvas. One Hub serves every session; subscribers are
// partitioned by session ID.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]chan types.Block
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*websocket.Conn]chan types.Block)}
}

// Subscribe registers conn to receive block updates for sessionID and
// starts a writer goroutine pumping them to conn as JSON text frames until
// conn errors or Unsubscribe is called. The returned func unsubscribes.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) (unsubscribe func()) {
	ch := make(chan types.Block, 16)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*websocket.Conn]chan types.Block)
	}
	h.subs[sessionID][conn] = ch
	h.mu.Unlock()

	go func() {
		for block := range ch {
			data, err := json.Marshal(block)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Unsubscribe(sessionID, conn)
				return
			}
		}
	}()

	return func() { h.Unsubscribe(sessionID, conn) }
}

// Unsubscribe removes conn from sessionID's subscriber set and stops its
// writer goroutine. Unsubscribing an already-removed conn is a no-op.
func (h *Hub) Unsubscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if ch, ok := subs[conn]; ok {
		close(ch)
		delete(subs, conn)
	}
	if len(subs) == 0 {
		delete(h.subs, sessionID)
	}
}

// Broadcast fans block out to every subscriber of sessionID. Subscribers
// whose buffer is full drop the update rather than block the broadcaster —
// canvas state is sourced from feature/session, not from the stream, so a
// dropped update costs latency, not correctness.
func (h *Hub) Broadcast(sessionID string, block types.Block) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[sessionID] {
		select {
		case ch <- block:
		default:
		}
	}
}

// SubscriberCount reports how many connections are watching sessionID,
// used by tests and operational introspection.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
