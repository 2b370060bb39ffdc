package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/gateway"
	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/hub"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

func startServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	wsHub := hub.NewHub(zap.NewNop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		client := gateway.NewClient(conn, wsHub, zap.NewNop())
		client.Start()
	}))

	return server, wsHub
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(serverURL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	return wsConn
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		t.Fatalf("Failed to decode %q: %v", msg, err)
	}
}

func TestEndToEnd_SnapshotOnConnect(t *testing.T) {
	server, wsHub := startServer(t)
	defer server.Close()

	wsHub.Broadcast(models.PriceQuote{Symbol: "BTC", Price: 50000, Currency: "USD", Source: "test", Timestamp: time.Now().UTC()})
	wsHub.Broadcast(models.PriceQuote{Symbol: "ETH", Price: 3000, Currency: "USD", Source: "test", Timestamp: time.Now().UTC()})

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	var snap struct {
		Type   string                       `json:"type"`
		Prices map[string]models.PriceQuote `json:"prices"`
	}
	readJSON(t, wsConn, &snap)

	if snap.Type != "snapshot" {
		t.Errorf("Expected first frame to be a snapshot, got type %q", snap.Type)
	}
	if len(snap.Prices) != 2 {
		t.Errorf("Expected 2 prices in snapshot, got %d", len(snap.Prices))
	}
	if snap.Prices["BTC"].Price != 50000 {
		t.Errorf("Expected BTC at 50000, got %v", snap.Prices["BTC"].Price)
	}
}

func TestEndToEnd_BroadcastDelivered(t *testing.T) {
	server, wsHub := startServer(t)
	defer server.Close()

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	// Drain the connect snapshot first
	var snap struct {
		Type string `json:"type"`
	}
	readJSON(t, wsConn, &snap)

	go func() {
		time.Sleep(100 * time.Millisecond)
		wsHub.Broadcast(models.PriceQuote{Symbol: "BTC", Price: 51234.5, Currency: "USD", Source: "test", Timestamp: time.Now().UTC()})
	}()

	var quote models.PriceQuote
	readJSON(t, wsConn, &quote)

	if quote.Symbol != "BTC" || quote.Price != 51234.5 {
		t.Errorf("Expected BTC at 51234.5, got %s at %v", quote.Symbol, quote.Price)
	}
}

func TestEndToEnd_PingPong(t *testing.T) {
	server, _ := startServer(t)
	defer server.Close()

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	var snap struct {
		Type string `json:"type"`
	}
	readJSON(t, wsConn, &snap)

	if err := wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	var pong struct {
		Type string `json:"type"`
	}
	readJSON(t, wsConn, &pong)

	if pong.Type != "pong" {
		t.Errorf("Expected pong, got %q", pong.Type)
	}
}

func TestEndToEnd_GarbageFrameIgnored(t *testing.T) {
	server, wsHub := startServer(t)
	defer server.Close()

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	var snap struct {
		Type string `json:"type"`
	}
	readJSON(t, wsConn, &snap)

	// Unparseable frames are dropped; the connection stays usable
	wsConn.WriteMessage(websocket.TextMessage, []byte(`{not json`))

	time.Sleep(100 * time.Millisecond)
	wsHub.Broadcast(models.PriceQuote{Symbol: "ETH", Price: 3100, Currency: "USD", Source: "test", Timestamp: time.Now().UTC()})

	var quote models.PriceQuote
	readJSON(t, wsConn, &quote)
	if quote.Symbol != "ETH" {
		t.Errorf("Expected ETH broadcast after garbage frame, got %q", quote.Symbol)
	}
}

func TestEndToEnd_DisconnectCleansUp(t *testing.T) {
	server, wsHub := startServer(t)
	defer server.Close()

	wsConn := connectWS(t, server.URL)

	var snap struct {
		Type string `json:"type"`
	}
	readJSON(t, wsConn, &snap)

	if got := wsHub.SubscriberCount(); got != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", got)
	}

	wsConn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wsHub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscriber was not unregistered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
