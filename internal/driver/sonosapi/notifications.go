package sonosapi

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/auric-audio/auric-core/internal/driver"
)

// notification is the envelope of one pushed bridge event.
type notification struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// volumeData is the payload of a volume-changed notification.
type volumeData struct {
	Volume int `json:"volume"`
}

// transportData is the payload of a transport-state notification.
type transportData struct {
	State string `json:"state"`
}

// nowPlayingData is the payload of a now-playing notification.
type nowPlayingData struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Station  string `json:"station"`
	Duration int    `json:"duration"`
	URI      string `json:"uri"`
	Art      string `json:"art"`
	Stream   bool   `json:"stream"`
}

// handleNotification maps one inbound notification onto a partial track
// update through the fixed type→fields table. Each notification type
// touches only its own fields; anything unmapped is left alone.
func (d *Driver) handleNotification(raw []byte) {
	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		d.logger.Warn("sonosapi: malformed notification",
			"zone", d.zoneID, "error", err)
		return
	}

	var u driver.Update
	switch n.Type {
	case "volume-changed":
		var data volumeData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			d.logger.Warn("sonosapi: bad volume payload", "zone", d.zoneID, "error", err)
			return
		}
		u.Volume = driver.Int(data.Volume)

	case "transport-state":
		var data transportData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			d.logger.Warn("sonosapi: bad transport payload", "zone", d.zoneID, "error", err)
			return
		}
		switch data.State {
		case "PLAYING":
			u.Mode = driver.String(driver.ModePlay)
			u.Power = driver.String("on")
		case "PAUSED_PLAYBACK":
			u.Mode = driver.String(driver.ModePause)
		case "STOPPED":
			u.Mode = driver.String(driver.ModeStop)
		default:
			d.logger.Debug("sonosapi: unmapped transport state",
				"zone", d.zoneID, "state", data.State)
			return
		}

	case "track-ended":
		// Playback fields go back to their defaults; volume and power
		// are deliberately untouched.
		u.Mode = driver.String(driver.ModeStop)
		u.AudioType = driver.Int(driver.AudioTypeOff)
		u.AudioPath = driver.String("")
		u.Position = driver.Int(0)
		u.Duration = driver.Int(0)
		u.Title = driver.String("")
		u.Artist = driver.String("")
		u.Album = driver.String("")
		u.Station = driver.String("")
		u.CoverURL = driver.String("")

	case "now-playing":
		var data nowPlayingData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			d.logger.Warn("sonosapi: bad now-playing payload", "zone", d.zoneID, "error", err)
			return
		}
		audioType := driver.AudioTypeLibrary
		if data.Stream {
			audioType = driver.AudioTypeStream
		}
		u.Title = driver.String(data.Title)
		u.Artist = driver.String(data.Artist)
		u.Album = driver.String(data.Album)
		u.Station = driver.String(data.Station)
		u.Duration = driver.Int(data.Duration)
		u.AudioPath = driver.String(data.URI)
		u.AudioType = driver.Int(audioType)
		u.CoverURL = driver.String(d.proxyCover(data.Art, data.Album))

	default:
		d.logger.Debug("sonosapi: unmapped notification type",
			"zone", d.zoneID, "type", n.Type)
		return
	}

	if err := d.updater.UpdateTrack(d.zoneID, u); err != nil {
		d.logger.Warn("sonosapi: track update rejected",
			"zone", d.zoneID, "error", err)
	}
}

// proxyCover rewrites a device artwork URL to go through the art proxy,
// with a cache-buster derived from the album name so clients refetch art
// when the album changes but the upstream URL does not.
func (d *Driver) proxyCover(art, album string) string {
	if art == "" {
		return ""
	}
	if d.coverBase == "" {
		return art
	}
	h := fnv.New32a()
	h.Write([]byte(album))
	return fmt.Sprintf("%s/cover.jpg?src=%s&v=%08x",
		d.coverBase, url.QueryEscape(art), h.Sum32())
}
