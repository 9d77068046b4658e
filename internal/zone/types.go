package zone

import (
	"github.com/auric-audio/auric-core/internal/driver"
)

// Default track values. Every Track field has a defined default so a
// track is never partially undefined, even before the first device update.
const (
	defaultVolume = 10
	defaultPower  = "off"
)

// Track is the mutable playback state of a zone.
//
// The JSON field names are a wire-compatibility contract with the master
// controller and its companion app; they must not change.
type Track struct {
	PlayerID  int    `json:"playerid"`
	Power     string `json:"power"`
	Volume    int    `json:"volume"`
	Mode      string `json:"mode"`
	AudioType int    `json:"audiotype"`
	AudioPath string `json:"audiopath"`
	Repeat    int    `json:"plrepeat"`
	Shuffle   int    `json:"plshuffle"`
	Duration  int    `json:"duration"`
	Position  int    `json:"time"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Station   string `json:"station"`
	CoverURL  string `json:"coverurl"`

	// Players lists the zone ids currently grouped with this zone,
	// master first. Empty when the zone plays standalone.
	Players []int `json:"players"`
}

// defaultTrack returns a fully-populated Track for a freshly set up zone.
func defaultTrack(zoneID int) Track {
	return Track{
		PlayerID:  zoneID,
		Power:     defaultPower,
		Volume:    defaultVolume,
		Mode:      driver.ModeStop,
		AudioType: driver.AudioTypeOff,
		Players:   []int{},
	}
}

// merge applies a partial update to the track, field by field.
// Nil fields are left untouched; set fields overwrite (last-write-wins).
func (t *Track) merge(u driver.Update) {
	if u.Power != nil {
		t.Power = *u.Power
	}
	if u.Volume != nil {
		t.Volume = *u.Volume
	}
	if u.Mode != nil {
		t.Mode = *u.Mode
	}
	if u.AudioType != nil {
		t.AudioType = *u.AudioType
	}
	if u.AudioPath != nil {
		t.AudioPath = *u.AudioPath
	}
	if u.Repeat != nil {
		t.Repeat = *u.Repeat
	}
	if u.Shuffle != nil {
		t.Shuffle = *u.Shuffle
	}
	if u.Duration != nil {
		t.Duration = *u.Duration
	}
	if u.Position != nil {
		t.Position = *u.Position
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Artist != nil {
		t.Artist = *u.Artist
	}
	if u.Album != nil {
		t.Album = *u.Album
	}
	if u.Station != nil {
		t.Station = *u.Station
	}
	if u.CoverURL != nil {
		t.CoverURL = *u.CoverURL
	}
}

// clone returns an independent copy of the track.
// The Players slice is cloned so snapshots cannot alias registry state.
func (t *Track) clone() Track {
	cpy := *t
	cpy.Players = make([]int, len(t.Players))
	copy(cpy.Players, t.Players)
	return cpy
}

// Zone pairs a static descriptor with mutable track state and the one
// driver instance that backs it.
//
// The descriptor fields are immutable after Setup. Track state is guarded
// by the registry's lock; callers only ever see clones.
type Zone struct {
	ID        int
	Name      string
	MaxVolume int
	Kind      string
	Address   string

	driver driver.Driver
	track  Track
}

// Driver returns the device driver owned by this zone.
// The driver instance never changes for the lifetime of the process.
func (z *Zone) Driver() driver.Driver {
	return z.driver
}

// Snapshot is a read-only view of a zone used by protocol handlers.
type Snapshot struct {
	ID        int
	Name      string
	MaxVolume int
	Kind      string
	Address   string
	Track     Track
}
