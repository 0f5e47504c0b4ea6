package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applogger "habridge/pkg/logger"

	"github.com/gorilla/websocket"
)

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	hub := NewHub(l)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConn(conn)
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dialTestHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f testFrame
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("unmarshal frame %q: %v", b, err)
	}
	return f
}

func TestHubWelcomeFrame(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dialTestHub(t, srv)

	if f := readFrame(t, conn); f.Event != "connected" {
		t.Fatalf("first frame = %q, want connected", f.Event)
	}
}

func TestHubSubscribeAck(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dialTestHub(t, srv)
	readFrame(t, conn) // welcome

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "EURUSD"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	f := readFrame(t, conn)
	if f.Event != "subscribed" {
		t.Fatalf("ack = %q, want subscribed", f.Event)
	}
	var payload map[string]string
	if err := json.Unmarshal(f.Data, &payload); err != nil || payload["symbol"] != "EURUSD" {
		t.Fatalf("ack payload = %s", f.Data)
	}
}

func TestHubSymbolFiltering(t *testing.T) {
	hub, srv := newTestHub(t)

	subscribed := dialTestHub(t, srv)
	readFrame(t, subscribed) // welcome
	if err := subscribed.WriteJSON(map[string]string{"type": "subscribe", "symbol": "EURUSD"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	readFrame(t, subscribed) // ack

	everything := dialTestHub(t, srv)
	readFrame(t, everything) // welcome

	hub.Publish("new_signal", "GBPUSD", map[string]string{"symbol": "GBPUSD"})
	hub.Publish("new_signal", "EURUSD", map[string]string{"symbol": "EURUSD"})
	hub.Publish("account_update", "", map[string]float64{"balance": 1000})

	// The unfiltered client sees all three in order.
	for _, want := range []string{"new_signal", "new_signal", "account_update"} {
		if f := readFrame(t, everything); f.Event != want {
			t.Fatalf("unfiltered got %q, want %q", f.Event, want)
		}
	}

	// The subscribed client must skip the GBPUSD signal: its next frame is
	// the EURUSD one, then the symbol-less account event.
	f := readFrame(t, subscribed)
	if f.Event != "new_signal" {
		t.Fatalf("subscribed got %q, want new_signal", f.Event)
	}
	var sig map[string]string
	if err := json.Unmarshal(f.Data, &sig); err != nil || sig["symbol"] != "EURUSD" {
		t.Fatalf("subscribed received wrong signal: %s", f.Data)
	}
	if f := readFrame(t, subscribed); f.Event != "account_update" {
		t.Fatalf("subscribed got %q, want account_update", f.Event)
	}
}

func TestHubStopDisconnectsClients(t *testing.T) {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	hub := NewHub(l)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConn(conn)
	}))
	defer srv.Close()

	conn := dialTestHub(t, srv)
	readFrame(t, conn) // welcome

	hub.Stop()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // connection closed by the hub
		}
	}
}
