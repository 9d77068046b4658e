package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "auric"

// Topics builds the Auric MQTT topic hierarchy under a configurable
// prefix. Using these helpers keeps topic naming consistent between the
// client wrapper, the mqtt driver and external bus devices.
//
//	topics := mqtt.Topics{Prefix: cfg.TopicPrefix}
//	topics.ZoneState(4) // "auric/zone/4/state"
type Topics struct {
	Prefix string
}

func (t Topics) base() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// SystemStatus returns the online/offline status topic.
//
// Example: auric/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.base())
}

// Events returns the broadcast mirror topic. Every event fanned out to
// WebSocket clients is republished here when mirroring is enabled.
//
// Example: auric/events
func (t Topics) Events() string {
	return fmt.Sprintf("%s/events", t.base())
}

// ZoneState returns the topic a bus device reports zone state on.
//
// Example: auric/zone/4/state
func (t Topics) ZoneState(zoneID int) string {
	return fmt.Sprintf("%s/zone/%d/state", t.base(), zoneID)
}

// ZoneCommand returns the topic zone commands are published to.
//
// Example: auric/zone/4/command
func (t Topics) ZoneCommand(zoneID int) string {
	return fmt.Sprintf("%s/zone/%d/command", t.base(), zoneID)
}

// ZoneGroup returns the topic group commands are published to.
//
// Example: auric/zone/4/group
func (t Topics) ZoneGroup(zoneID int) string {
	return fmt.Sprintf("%s/zone/%d/group", t.base(), zoneID)
}

// AllZoneStates returns a pattern matching state reports for all zones.
//
// Pattern: auric/zone/+/state
func (t Topics) AllZoneStates() string {
	return fmt.Sprintf("%s/zone/+/state", t.base())
}
