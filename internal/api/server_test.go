package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auric-audio/auric-core/internal/dispatch"
	"github.com/auric-audio/auric-core/internal/driver"
	"github.com/auric-audio/auric-core/internal/driver/demo"
	"github.com/auric-audio/auric-core/internal/infrastructure/config"
	"github.com/auric-audio/auric-core/internal/infrastructure/logging"
	"github.com/auric-audio/auric-core/internal/zone"
)

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		MaxMessageSize: 4096,
		PingInterval:   30,
		PongTimeout:    10,
	}
}

// newTestServer wires a hub, registry with one demo zone, dispatcher and
// server, and exposes the router on an httptest listener.
func newTestServer(t *testing.T) (*Server, *Hub, *httptest.Server) {
	t.Helper()

	logger := testLogger()
	hub := NewHub(testWSConfig(), logger)

	factory := driver.NewFactory()
	if err := factory.Register(demo.Kind, demo.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	registry, err := zone.NewRegistry(zone.Options{Factory: factory, Broadcaster: hub})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Setup(context.Background(), []config.ZoneConfig{
		{ID: 1, Name: "Kitchen", Driver: demo.Kind, Address: "127.0.0.1"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(registry.Close)

	dispatcher := dispatch.New(dispatch.Options{
		Registry: registry,
		MAC:      "50:4f:94:ff:1b:b3",
		Name:     "Auric Core",
	})

	srv, err := New(Deps{
		Config:     config.ServerConfig{Mac: "50:4f:94:ff:1b:b3"},
		WS:         testWSConfig(),
		Logger:     logger,
		Registry:   registry,
		Dispatcher: dispatcher,
		Hub:        hub,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, hub, ts
}

func TestNew_RequiresDependencies(t *testing.T) {
	logger := testLogger()
	hub := NewHub(testWSConfig(), logger)

	if _, err := New(Deps{Logger: logger, Hub: hub}); err == nil {
		t.Error("expected error for missing registry")
	}
	if _, err := New(Deps{}); err == nil {
		t.Error("expected error for missing logger")
	}
}

func TestWireCommand_Envelope(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/audio/cfg/getradios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatalf("response is not valid json: %v", err)
	}
	if _, ok := fields["getradios_result"]; !ok {
		t.Error("expected getradios_result in response")
	}
	var echo string
	if err := json.Unmarshal(fields["command"], &echo); err != nil || echo != "audio/cfg/getradios" {
		t.Errorf("command echo = %q (err %v)", echo, err)
	}
}

func TestWireCommand_UnroutableStillAnswers(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/audio/cfg/doesnotexist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("unroutable command must not be a transport error, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("stats is not valid json: %v", err)
	}
	if zones, ok := stats["zones"].(float64); !ok || zones != 1 {
		t.Errorf("zones = %v, want 1", stats["zones"])
	}
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket_CommandRoundTrip(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dialWS(t, ts, "/ws")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("audio/cfg/getradios")); err != nil {
		t.Fatalf("write: %v", err)
	}

	//nolint:errcheck // Deadline on a test connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(reply, &fields); err != nil {
		t.Fatalf("reply is not valid json: %v", err)
	}
	if _, ok := fields["getradios_result"]; !ok {
		t.Errorf("expected getradios_result reply, got %s", reply)
	}
}

func TestWebSocket_UpgradeAtRoot(t *testing.T) {
	_, hub, ts := newTestServer(t)
	conn := dialWS(t, ts, "/")

	if hub.ClientCount() != 1 {
		t.Errorf("clients = %d, want 1", hub.ClientCount())
	}
	conn.Close()
}

func TestWebSocket_ReceivesBroadcast(t *testing.T) {
	_, hub, ts := newTestServer(t)
	conn := dialWS(t, ts, "/ws")

	// The read pump registers before the dial returns, but give the
	// hub a moment on slow machines.
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	payload := []byte(`{"audio_event":[{"playerid":1}]}`)
	hub.Broadcast(payload)

	//nolint:errcheck // Deadline on a test connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("broadcast payload modified in flight:\ngot  %s\nwant %s", got, payload)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
