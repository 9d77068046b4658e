package mqtt

// Mirror republishes broadcast events onto the bus so other
// home-automation services can follow playback state without holding a
// WebSocket to the emulated device.
//
// It satisfies the zone registry's Broadcaster interface and is composed
// alongside the WebSocket hub at startup.
type Mirror struct {
	client *Client
	topic  string
	qos    byte
	logger Logger
}

// NewMirror creates a mirror publishing to the client's events topic.
func NewMirror(client *Client, logger Logger) *Mirror {
	return &Mirror{
		client: client,
		topic:  client.Topics().Events(),
		qos:    byte(client.cfg.QoS),
		logger: logger,
	}
}

// Broadcast republishes the exact event payload to the events topic.
// Delivery is best-effort: a publish failure is logged, never escalated,
// so a broker outage cannot stall track updates.
func (m *Mirror) Broadcast(payload []byte) {
	if err := m.client.Publish(m.topic, payload, m.qos, false); err != nil {
		if m.logger != nil {
			m.logger.Warn("event mirror publish failed", "topic", m.topic, "error", err)
		}
	}
}
