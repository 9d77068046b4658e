// Package mqttdev implements a driver for speakers controlled over an
// MQTT bus (typically amplifier endpoints behind a broker-attached
// controller).
//
// Commands are published to <prefix>/zone/<id>/command; the device (or
// whatever bridges it onto the bus) reports state as retained partial
// JSON on <prefix>/zone/<id>/state, which maps one-to-one onto track
// fields. Group commands travel on <prefix>/zone/<id>/group.
package mqttdev

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/auric-audio/auric-core/internal/driver"
)

// Kind is the factory name of this driver.
const Kind = "mqtt"

// Broker is the subset of the MQTT client used by the driver.
// It is satisfied by an adapter around *mqtt.Client (wired in main).
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topic string) error
}

// Options carries driver settings beyond the per-zone driver.Config.
type Options struct {
	// Broker is the shared bus connection. Required.
	Broker Broker

	// Prefix is the topic namespace, e.g. "auric". Required.
	Prefix string

	// QoS for published commands and the state subscription.
	QoS byte
}

// commandMessage is the wire shape of a published command.
type commandMessage struct {
	Command string `json:"command"`
	Param   string `json:"param,omitempty"`
}

// groupMessage is the wire shape of a published group command.
type groupMessage struct {
	Command string `json:"command"`
	Type    string `json:"type"`
	Master  int    `json:"master"`
	Members []int  `json:"members"`
}

// stateMessage is the partial state reported by the device. Pointer
// fields distinguish "absent" from zero values so only reported fields
// reach the merge.
type stateMessage struct {
	Power     *string `json:"power"`
	Volume    *int    `json:"volume"`
	Mode      *string `json:"mode"`
	AudioType *int    `json:"audiotype"`
	AudioPath *string `json:"audiopath"`
	Repeat    *int    `json:"plrepeat"`
	Shuffle   *int    `json:"plshuffle"`
	Duration  *int    `json:"duration"`
	Position  *int    `json:"time"`
	Title     *string `json:"title"`
	Artist    *string `json:"artist"`
	Album     *string `json:"album"`
	Station   *string `json:"station"`
	CoverURL  *string `json:"coverurl"`
}

// Driver bridges one zone onto the MQTT bus.
type Driver struct {
	zoneID  int
	updater driver.Updater
	logger  driver.Logger
	broker  Broker
	prefix  string
	qos     byte

	mu         sync.Mutex
	subscribed bool
}

// New constructs an mqtt driver for one zone.
func New(cfg driver.Config, opts Options) (driver.Driver, error) {
	if opts.Broker == nil {
		return nil, fmt.Errorf("mqttdev: broker is required")
	}
	if opts.Prefix == "" {
		return nil, fmt.Errorf("mqttdev: topic prefix is required")
	}
	return &Driver{
		zoneID:  cfg.ZoneID,
		updater: cfg.Updater,
		logger:  cfg.Logger,
		broker:  opts.Broker,
		prefix:  opts.Prefix,
		qos:     opts.QoS,
	}, nil
}

// topic builds <prefix>/zone/<id>/<suffix>.
func (d *Driver) topic(suffix string) string {
	return fmt.Sprintf("%s/zone/%d/%s", d.prefix, d.zoneID, suffix)
}

// Initialize subscribes to the zone's state topic.
// Initialising twice is a safe no-op.
func (d *Driver) Initialize(_ context.Context) error {
	d.mu.Lock()
	if d.subscribed {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	if err := d.broker.Subscribe(d.topic("state"), d.qos, d.handleState); err != nil {
		return fmt.Errorf("subscribing to zone state: %w", err)
	}

	d.mu.Lock()
	d.subscribed = true
	d.mu.Unlock()
	return nil
}

// handleState maps a partial state payload onto a track update.
func (d *Driver) handleState(_ string, payload []byte) error {
	var msg stateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing state payload: %w", err)
	}

	u := driver.Update{
		Power:     msg.Power,
		Volume:    msg.Volume,
		Mode:      msg.Mode,
		AudioType: msg.AudioType,
		AudioPath: msg.AudioPath,
		Repeat:    msg.Repeat,
		Shuffle:   msg.Shuffle,
		Duration:  msg.Duration,
		Position:  msg.Position,
		Title:     msg.Title,
		Artist:    msg.Artist,
		Album:     msg.Album,
		Station:   msg.Station,
		CoverURL:  msg.CoverURL,
	}
	if err := d.updater.UpdateTrack(d.zoneID, u); err != nil {
		return fmt.Errorf("applying state update: %w", err)
	}
	return nil
}

// SendCommand publishes the command to the zone's command topic.
// The audible effect surfaces later through the state topic.
func (d *Driver) SendCommand(command, param string) error {
	payload, err := json.Marshal(commandMessage{Command: command, Param: param})
	if err != nil {
		return fmt.Errorf("marshalling command: %w", err)
	}
	if err := d.broker.Publish(d.topic("command"), payload, d.qos, false); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}
	return nil
}

// SendGroupCommand publishes a group command on the master's group topic.
// The master id is dropped from the member list so the master is never
// sent a self-join.
func (d *Driver) SendGroupCommand(command, groupType string, masterID int, memberIDs []int) error {
	members := make([]int, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == masterID {
			continue
		}
		members = append(members, id)
	}

	payload, err := json.Marshal(groupMessage{
		Command: command,
		Type:    groupType,
		Master:  masterID,
		Members: members,
	})
	if err != nil {
		return fmt.Errorf("marshalling group command: %w", err)
	}
	if err := d.broker.Publish(d.topic("group"), payload, d.qos, false); err != nil {
		return fmt.Errorf("publishing group command: %w", err)
	}
	return nil
}

// Close drops the state subscription. Closing twice is a safe no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	subscribed := d.subscribed
	d.subscribed = false
	d.mu.Unlock()

	if !subscribed {
		return nil
	}
	if err := d.broker.Unsubscribe(d.topic("state")); err != nil {
		d.logger.Warn("mqttdev: unsubscribe failed", "zone", d.zoneID, "error", err)
	}
	return nil
}
