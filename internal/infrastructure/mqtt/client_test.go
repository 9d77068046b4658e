package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/auric-audio/auric-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "auric-test",
		},
		QoS:         1,
		TopicPrefix: "auric",
	}
}

// disconnectedClient builds a client without touching the network.
func disconnectedClient() *Client {
	cfg := testConfig()
	return &Client{
		cfg:           cfg,
		topics:        Topics{Prefix: cfg.TopicPrefix},
		subscriptions: make(map[string]subscription),
	}
}

func TestPublish_Validation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "auric/events", qos: 3, wantErr: ErrInvalidQoS},
		{name: "oversized payload", topic: "auric/events", payload: make([]byte, maxPayloadSize+1), qos: 1, wantErr: ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := disconnectedClient()

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("auric/zone/+/state", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := c.Subscribe("auric/zone/+/state", 3, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos error = %v", err)
	}
}

func TestTopics_Builders(t *testing.T) {
	topics := Topics{Prefix: "auric"}

	tests := []struct {
		got  string
		want string
	}{
		{topics.SystemStatus(), "auric/system/status"},
		{topics.Events(), "auric/events"},
		{topics.ZoneState(4), "auric/zone/4/state"},
		{topics.ZoneCommand(4), "auric/zone/4/command"},
		{topics.ZoneGroup(4), "auric/zone/4/group"},
		{topics.AllZoneStates(), "auric/zone/+/state"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTopics_DefaultPrefix(t *testing.T) {
	topics := Topics{}
	if !strings.HasPrefix(topics.Events(), DefaultTopicPrefix+"/") {
		t.Errorf("expected default prefix, got %q", topics.Events())
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := disconnectedClient()

	// Not connected: subscription must be rejected and not tracked.
	err := c.Subscribe("auric/zone/1/state", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("subscriptions = %d, want 0", c.SubscriptionCount())
	}
	if c.HasSubscription("auric/zone/1/state") {
		t.Error("failed subscription must not be tracked")
	}
}

func TestClose_NeverConnected(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
