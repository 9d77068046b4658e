package dispatch

import (
	"strconv"
	"strings"

	"github.com/auric-audio/auric-core/internal/zone"
)

// folder is the browse-container shape shared by media folder, playlist,
// queue and room-favourite answers.
type folder struct {
	ID         int   `json:"id"`
	TotalItems int   `json:"totalitems"`
	Start      int   `json:"start"`
	Items      []any `json:"items"`
}

// radioService is one entry of the radio service list.
type radioService struct {
	Cmd  string `json:"cmd"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	Root string `json:"root"`
}

// syncedGroup is one entry of the synced-players answer.
type syncedGroup struct {
	Master  int   `json:"master"`
	Players []int `json:"players"`
}

// readySession is a fixed session marker; the controller only checks
// for presence, not for any particular value.
const readySession = 547541322864

func (d *Dispatcher) allTracks(string) any {
	snaps := d.registry.Zones()
	tracks := make([]zone.Track, 0, len(snaps))
	for _, s := range snaps {
		tracks = append(tracks, s.Track)
	}
	return tracks
}

func (d *Dispatcher) getConfig(string) any {
	return map[string]any{
		"crc32":      "1f9a3e00",
		"extensions": []any{},
	}
}

// getKey answers the handshake stub: a fixed key that satisfies the
// controller's shape check without implementing real cryptography.
func (d *Dispatcher) getKey(string) any {
	return []map[string]any{{
		"pubkey": "mwAAAB+LCAAAAAAABADtWtmOo0iafpWSr1OZ7I59qS5mWGwMxoDZt9YI",
		"exp":    1.7,
	}}
}

func (d *Dispatcher) getRadios(string) any {
	return []radioService{{
		Cmd:  "presets",
		Name: "Radio Favorites",
		Icon: "http://" + d.mac + "/imgcache/radio.png",
		Root: "start",
	}}
}

func (d *Dispatcher) emptyList(string) any {
	return []any{}
}

// emptyFolder answers browse routes with an empty container. When the
// route carries a numeric id segment it is echoed back as the container
// id, matching what a real library scan with no content returns.
func (d *Dispatcher) emptyFolder(cmd string) any {
	id := 0
	for _, seg := range strings.Split(cmd, "/") {
		if n, err := strconv.Atoi(seg); err == nil {
			id = n
			break
		}
	}
	return []folder{{ID: id, Items: []any{}}}
}

// syncedPlayers derives the current grouping from zone state: every zone
// whose player list names it first is reported as a group master.
func (d *Dispatcher) syncedPlayers(string) any {
	groups := []syncedGroup{}
	for _, s := range d.registry.Zones() {
		players := s.Track.Players
		if len(players) < 2 || players[0] != s.ID {
			continue
		}
		groups = append(groups, syncedGroup{Master: s.ID, Players: players})
	}
	return groups
}

func (d *Dispatcher) iAmAMusicServer(string) any {
	return map[string]any{
		"name": d.name,
		"mac":  d.mac,
	}
}

func (d *Dispatcher) macAddress(string) any {
	return []map[string]string{{"macaddress": d.mac}}
}

func (d *Dispatcher) ready(string) any {
	return map[string]any{"session": readySession}
}

func (d *Dispatcher) scanStatus(string) any {
	return []map[string]int{{"scanning": 0}}
}
