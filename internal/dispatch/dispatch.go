// Package dispatch routes path-style wire commands onto the zone
// registry and wraps every answer in the protocol envelope the master
// controller expects.
//
// Routing is stateless and built once: an ordered literal table first
// (more specific prefixes before shorter ones that would shadow them),
// then structural pattern matchers for parameterized routes, then a
// generic fallback ack. A request never produces a transport error;
// anything unroutable is acknowledged and logged as unhandled.
package dispatch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/auric-audio/auric-core/internal/zone"
)

// Registry is the zone surface the dispatcher drives.
type Registry interface {
	Get(id int) (zone.Snapshot, error)
	Zones() []zone.Snapshot
	SendCommand(zoneID int, command, param string) error
	SendGroupCommand(command, groupType, idList string) error
}

// Logger is the subset of the process logger used here.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Dispatcher.
type Options struct {
	Registry Registry // required
	Logger   Logger   // optional, defaults to a no-op logger

	// MAC is the hardware address the emulated device reports.
	MAC string

	// Name is the device name reported on discovery routes.
	Name string
}

// Dispatcher translates wire commands into registry operations and
// protocol envelopes. Safe for concurrent use.
type Dispatcher struct {
	registry Registry
	logger   Logger
	mac      string
	name     string
	routes   []literalRoute
}

// literalRoute answers a fixed command prefix.
type literalRoute struct {
	prefix string
	// name overrides the derived envelope name when non-empty.
	name    string
	handler func(cmd string) any
}

// zoneCommands is the fixed vocabulary accepted on audio/<id>/<cmd>.
var zoneCommands = map[string]bool{
	"play":       true,
	"resume":     true,
	"pause":      true,
	"stop":       true,
	"on":         true,
	"off":        true,
	"volume":     true,
	"queueplus":  true,
	"queueminus": true,
	"repeat":     true,
	"shuffle":    true,
	"position":   true,
}

// New builds a Dispatcher with its routing table.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		registry: opts.Registry,
		logger:   opts.Logger,
		mac:      opts.MAC,
		name:     opts.Name,
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}

	// Order matters: longer prefixes come before shorter ones that
	// would otherwise shadow them.
	d.routes = []literalRoute{
		{prefix: "audio/cfg/all", handler: d.allTracks},
		{prefix: "audio/cfg/getconfig", handler: d.getConfig},
		{prefix: "audio/cfg/getkey", handler: d.getKey},
		{prefix: "audio/cfg/getmediafolder", handler: d.emptyFolder},
		{prefix: "audio/cfg/getplaylists2/lms", name: "getplaylists2", handler: d.emptyFolder},
		{prefix: "audio/cfg/getradios", handler: d.getRadios},
		{prefix: "audio/cfg/getservices", handler: d.emptyList},
		{prefix: "audio/cfg/getinputs", handler: d.emptyList},
		{prefix: "audio/cfg/getsyncedplayers", handler: d.syncedPlayers},
		{prefix: "audio/cfg/playersdetails", handler: d.allTracks},
		{prefix: "audio/cfg/iamaminiserver", name: "iamamusicserver", handler: d.iAmAMusicServer},
		{prefix: "audio/cfg/mac", handler: d.macAddress},
		{prefix: "audio/cfg/ready", handler: d.ready},
		{prefix: "audio/cfg/getroomfavs", handler: d.emptyFolder},
		{prefix: "audio/cfg/scanstatus", handler: d.scanStatus},
		{prefix: "audio/cfg/volumes", handler: d.emptyList},
	}
	return d
}

// Handle routes one wire command and returns the serialized envelope.
//
// The command is matched with trailing whitespace trimmed but echoed in
// the envelope byte-for-byte as it arrived.
func (d *Dispatcher) Handle(command string) []byte {
	trimmed := strings.TrimRight(command, " \t\r\n")

	for _, route := range d.routes {
		if strings.HasPrefix(trimmed, route.prefix) {
			name := route.name
			if name == "" {
				name = envelopeName(route.prefix)
			}
			return envelope(name, route.handler(trimmed), command)
		}
	}

	if name, payload, ok := d.matchPattern(trimmed); ok {
		return envelope(name, payload, command)
	}

	d.logger.Info("unhandled wire command", "command", trimmed)
	return envelope(envelopeName(trimmed), emptyAck, command)
}

// matchPattern tries the parameterized routes.
func (d *Dispatcher) matchPattern(trimmed string) (name string, payload any, ok bool) {
	segs := strings.Split(trimmed, "/")
	if len(segs) < 3 || segs[0] != "audio" {
		return "", nil, false
	}

	// audio/cfg/dgroup/<action>/<type>/<idList>
	if segs[1] == "cfg" && segs[2] == "dgroup" {
		if len(segs) < 6 {
			return "", nil, false
		}
		if err := d.registry.SendGroupCommand(segs[3], segs[4], segs[5]); err != nil {
			d.logger.Error("group command rejected",
				"action", segs[3], "spec", segs[5], "error", err)
		}
		return "dgroup", emptyAck, true
	}

	zoneID, err := strconv.Atoi(segs[1])
	if err != nil {
		return "", nil, false
	}

	switch {
	// audio/<id>/status
	case segs[2] == "status":
		snap, err := d.registry.Get(zoneID)
		if err != nil {
			d.logger.Error("status for unknown zone", "zone", zoneID)
			return "status", emptyAck, true
		}
		return "status", []zone.Track{snap.Track}, true

	// audio/<id>/getqueue/<start>/<length>
	case segs[2] == "getqueue" && len(segs) == 5:
		start, err := strconv.Atoi(segs[3])
		if err != nil {
			return "", nil, false
		}
		if _, err := strconv.Atoi(segs[4]); err != nil {
			return "", nil, false
		}
		return "getqueue", []folder{{ID: zoneID, Start: start, Items: []any{}}}, true

	// audio/<id>/<cmd>[/<param>]
	case zoneCommands[segs[2]]:
		param := ""
		if len(segs) > 3 {
			param = segs[3]
		}
		// Fire and forget: the authoritative state change arrives
		// later over the broadcast channel.
		if err := d.registry.SendCommand(zoneID, segs[2], param); err != nil {
			d.logger.Error("zone command rejected",
				"zone", zoneID, "command", segs[2], "error", err)
		}
		return segs[2], emptyAck, true
	}

	return "", nil, false
}

// envelopeName derives the result-key name: the last path segment that
// starts with a lowercase letter.
func envelopeName(trimmed string) string {
	segs := strings.Split(trimmed, "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == "" {
			continue
		}
		r := rune(segs[i][0])
		if unicode.IsLower(r) {
			return segs[i]
		}
	}
	return "unknown"
}

// emptyAck is the payload for fire-and-forget and fallback answers.
var emptyAck = []any{}

// envelope wraps a payload in the protocol response shape. The field
// names are a byte-compatibility contract with the master controller.
func envelope(name string, payload any, command string) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte("null")
	}
	echo, err := json.Marshal(command)
	if err != nil {
		echo = []byte(`""`)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"`)
	buf.WriteString(name)
	buf.WriteString(`_result":`)
	buf.Write(body)
	buf.WriteString(`,"command":`)
	buf.Write(echo)
	buf.WriteByte('}')
	return buf.Bytes()
}
