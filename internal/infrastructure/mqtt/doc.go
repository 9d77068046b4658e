// Package mqtt provides MQTT client connectivity for Auric Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The broker is an optional side channel: it backs the "mqtt" driver
// kind (speakers controlled through bus-attached amplifiers) and the
// event mirror, which republishes every WebSocket broadcast so other
// home-automation services can follow playback state without speaking
// the emulated wire protocol.
//
//	Auric Core ↔ MQTT Broker ↔ Bus amplifiers / observers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	err = client.Subscribe(topics.AllZoneStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("state: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
