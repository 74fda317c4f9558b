package canvas

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/privasearch/search/types"
)

var upgrader = websocket.Upgrader{}

func newTestServer(t *testing.T, hub *Hub, sessionID string) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		hub.Subscribe(sessionID, conn)
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return srv, conn
}

func TestHubBroadcastDeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	srv, conn := newTestServer(t, hub, "sess-1")
	defer srv.Close()
	defer conn.Close()

	// Give the server side time to register its subscription.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("sess-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.SubscriberCount("sess-1") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount("sess-1"))
	}

	hub.Broadcast("sess-1", types.Block{ID: "b1", Type: "text", Content: "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected broadcast content in message, got %s", data)
	}
}

func TestHubBroadcastToUnknownSessionIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("missing", types.Block{ID: "b1"})
	if hub.SubscriberCount("missing") != 0 {
		t.Fatal("expected no subscribers for unknown session")
	}
}
