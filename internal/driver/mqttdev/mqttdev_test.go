package mqttdev

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/auric-audio/auric-core/internal/driver"
)

type publishCall struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// mockBroker records publishes and captures subscription handlers so
// tests can inject inbound state messages.
type mockBroker struct {
	mu        sync.Mutex
	published []publishCall
	handlers  map[string]func(topic string, payload []byte) error
	unsubbed  []string
}

func newMockBroker() *mockBroker {
	return &mockBroker{handlers: make(map[string]func(string, []byte) error)}
}

func (m *mockBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishCall{topic, payload, qos, retained})
	return nil
}

func (m *mockBroker) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockBroker) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubbed = append(m.unsubbed, topic)
	return nil
}

func (m *mockBroker) deliver(t *testing.T, topic string, payload string) error {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription for %q", topic)
	}
	return handler(topic, []byte(payload))
}

func (m *mockBroker) lastPublish(t *testing.T) publishCall {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		t.Fatal("nothing published")
	}
	return m.published[len(m.published)-1]
}

type recordingUpdater struct {
	mu      sync.Mutex
	updates []driver.Update
}

func (r *recordingUpdater) UpdateTrack(_ int, u driver.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *recordingUpdater) lastUpdate(t *testing.T) driver.Update {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		t.Fatal("no updates recorded")
	}
	return r.updates[len(r.updates)-1]
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestDriver(t *testing.T) (*Driver, *mockBroker, *recordingUpdater) {
	t.Helper()
	broker := newMockBroker()
	updater := &recordingUpdater{}
	d, err := New(driver.Config{
		ZoneID:  4,
		Updater: updater,
		Logger:  noopLogger{},
	}, Options{Broker: broker, Prefix: "auric", QoS: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d.(*Driver), broker, updater
}

func TestNew_RequiresBrokerAndPrefix(t *testing.T) {
	cfg := driver.Config{ZoneID: 1, Updater: &recordingUpdater{}, Logger: noopLogger{}}

	if _, err := New(cfg, Options{Prefix: "auric"}); err == nil {
		t.Error("expected error for missing broker")
	}
	if _, err := New(cfg, Options{Broker: newMockBroker()}); err == nil {
		t.Error("expected error for missing prefix")
	}
}

func TestInitialize_SubscribesToStateTopic(t *testing.T) {
	d, broker, _ := newTestDriver(t)

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broker.mu.Lock()
	_, ok := broker.handlers["auric/zone/4/state"]
	broker.mu.Unlock()
	if !ok {
		t.Error("expected a subscription on auric/zone/4/state")
	}
}

func TestInitialize_TwiceIsNoop(t *testing.T) {
	d, broker, _ := newTestDriver(t)

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.handlers) != 1 {
		t.Errorf("expected a single subscription, got %d", len(broker.handlers))
	}
}

func TestStateMessage_PartialFieldsOnly(t *testing.T) {
	d, broker, updater := newTestDriver(t)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := broker.deliver(t, "auric/zone/4/state", `{"volume":44,"mode":"play"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := updater.lastUpdate(t)
	if u.Volume == nil || *u.Volume != 44 {
		t.Errorf("volume = %v, want 44", u.Volume)
	}
	if u.Mode == nil || *u.Mode != driver.ModePlay {
		t.Errorf("mode = %v, want play", u.Mode)
	}
	// Absent fields must stay absent so the merge leaves them alone.
	if u.Power != nil || u.Title != nil || u.Duration != nil {
		t.Errorf("absent fields were set: %+v", u)
	}
}

func TestStateMessage_MalformedRejected(t *testing.T) {
	d, broker, updater := newTestDriver(t)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := broker.deliver(t, "auric/zone/4/state", `not json`); err == nil {
		t.Error("expected an error for a malformed payload")
	}
	updater.mu.Lock()
	defer updater.mu.Unlock()
	if len(updater.updates) != 0 {
		t.Errorf("malformed payload pushed %d updates", len(updater.updates))
	}
}

func TestSendCommand_PublishesToCommandTopic(t *testing.T) {
	d, broker, _ := newTestDriver(t)

	if err := d.SendCommand("volume", "25"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := broker.lastPublish(t)
	if call.topic != "auric/zone/4/command" {
		t.Errorf("topic = %q, want auric/zone/4/command", call.topic)
	}
	if call.qos != 1 || call.retained {
		t.Errorf("qos = %d retained = %v, want 1 false", call.qos, call.retained)
	}

	var msg commandMessage
	if err := json.Unmarshal(call.payload, &msg); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if msg.Command != "volume" || msg.Param != "25" {
		t.Errorf("payload = %+v, want volume/25", msg)
	}
}

func TestSendGroupCommand_DropsMasterSelfJoin(t *testing.T) {
	d, broker, _ := newTestDriver(t)

	if err := d.SendGroupCommand("join", "static", 4, []int{4, 5, 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := broker.lastPublish(t)
	if call.topic != "auric/zone/4/group" {
		t.Errorf("topic = %q, want auric/zone/4/group", call.topic)
	}

	var msg groupMessage
	if err := json.Unmarshal(call.payload, &msg); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if msg.Master != 4 || msg.Command != "join" || msg.Type != "static" {
		t.Errorf("payload = %+v", msg)
	}
	if len(msg.Members) != 2 || msg.Members[0] != 5 || msg.Members[1] != 6 {
		t.Errorf("members = %v, want [5 6]", msg.Members)
	}
}

func TestClose_UnsubscribesOnce(t *testing.T) {
	d, broker, _ := newTestDriver(t)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.unsubbed) != 1 {
		t.Errorf("expected one unsubscribe, got %v", broker.unsubbed)
	}
}
