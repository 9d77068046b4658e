// Package demo implements a stub driver for zones without real hardware.
//
// It synthesizes track state locally: commands take effect immediately on
// a simulated player, and a timer advances playback through a small fixed
// playlist. Zones whose configuration is missing or broken degrade to
// this driver so the controller always sees a responsive device.
package demo

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/auric-audio/auric-core/internal/driver"
)

// Kind is the factory name of this driver.
const Kind = "demo"

// tickInterval is how often the simulated player advances its position.
const tickInterval = 5 * time.Second

// demoTrack is one entry of the synthetic playlist.
type demoTrack struct {
	title    string
	artist   string
	album    string
	duration int
}

// playlist is the fixed rotation the simulated player cycles through.
var playlist = []demoTrack{
	{title: "So What", artist: "Miles Davis", album: "Kind of Blue", duration: 545},
	{title: "Take Five", artist: "The Dave Brubeck Quartet", album: "Time Out", duration: 324},
	{title: "Feeling Good", artist: "Nina Simone", album: "I Put a Spell on You", duration: 177},
}

// Driver simulates a playback device.
type Driver struct {
	zoneID  int
	updater driver.Updater
	logger  driver.Logger

	mu       sync.Mutex
	playing  bool
	position int
	index    int
	stop     chan struct{}
	stopped  bool
}

// New constructs a demo driver. It satisfies driver.Constructor.
func New(cfg driver.Config) (driver.Driver, error) {
	return &Driver{
		zoneID:  cfg.ZoneID,
		updater: cfg.Updater,
		logger:  cfg.Logger,
	}, nil
}

// Initialize arms the synthetic playback timer and reports the first
// playlist entry so the zone has presentable metadata immediately.
func (d *Driver) Initialize(_ context.Context) error {
	d.mu.Lock()
	if d.stop != nil {
		// Already armed; starting twice is a safe no-op.
		d.mu.Unlock()
		return nil
	}
	d.stop = make(chan struct{})
	d.stopped = false
	d.mu.Unlock()

	d.pushCurrentTrack()

	go d.run()
	return nil
}

// run advances the simulated player until Close is called.
func (d *Driver) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

// tick advances playback position and rolls over to the next track.
func (d *Driver) tick() {
	d.mu.Lock()
	if !d.playing {
		d.mu.Unlock()
		return
	}
	d.position += int(tickInterval / time.Second)
	rollover := d.position >= playlist[d.index].duration
	if rollover {
		d.index = (d.index + 1) % len(playlist)
		d.position = 0
	}
	position := d.position
	d.mu.Unlock()

	if rollover {
		d.pushCurrentTrack()
		return
	}
	d.update(driver.Update{Position: driver.Int(position)})
}

// pushCurrentTrack reports the full metadata of the current playlist entry.
func (d *Driver) pushCurrentTrack() {
	d.mu.Lock()
	t := playlist[d.index]
	position := d.position
	d.mu.Unlock()

	d.update(driver.Update{
		Title:     driver.String(t.title),
		Artist:    driver.String(t.artist),
		Album:     driver.String(t.album),
		Duration:  driver.Int(t.duration),
		Position:  driver.Int(position),
		AudioType: driver.Int(driver.AudioTypeLibrary),
		AudioPath: driver.String("demo:" + strconv.Itoa(d.zoneID)),
	})
}

// SendCommand applies the command to the simulated player immediately.
// Unknown commands are logged and ignored.
func (d *Driver) SendCommand(command, param string) error {
	switch command {
	case "play", "resume", "on":
		d.mu.Lock()
		d.playing = true
		d.mu.Unlock()
		d.update(driver.Update{
			Mode:  driver.String(driver.ModePlay),
			Power: driver.String("on"),
		})
	case "pause":
		d.mu.Lock()
		d.playing = false
		d.mu.Unlock()
		d.update(driver.Update{Mode: driver.String(driver.ModePause)})
	case "stop", "off":
		d.mu.Lock()
		d.playing = false
		d.position = 0
		d.mu.Unlock()
		d.update(driver.Update{
			Mode:     driver.String(driver.ModeStop),
			Position: driver.Int(0),
		})
	case "volume":
		v, err := strconv.Atoi(param)
		if err != nil {
			d.logger.Warn("demo: non-numeric volume", "zone", d.zoneID, "param", param)
			return nil
		}
		d.update(driver.Update{Volume: driver.Int(v)})
	case "queueplus":
		d.mu.Lock()
		d.index = (d.index + 1) % len(playlist)
		d.position = 0
		d.mu.Unlock()
		d.pushCurrentTrack()
	case "queueminus":
		d.mu.Lock()
		d.index = (d.index - 1 + len(playlist)) % len(playlist)
		d.position = 0
		d.mu.Unlock()
		d.pushCurrentTrack()
	case "repeat":
		if v, err := strconv.Atoi(param); err == nil {
			d.update(driver.Update{Repeat: driver.Int(v)})
		}
	case "shuffle":
		if v, err := strconv.Atoi(param); err == nil {
			d.update(driver.Update{Shuffle: driver.Int(v)})
		}
	case "position":
		if v, err := strconv.Atoi(param); err == nil {
			d.mu.Lock()
			d.position = v
			d.mu.Unlock()
			d.update(driver.Update{Position: driver.Int(v)})
		}
	default:
		d.logger.Warn("demo: unknown command ignored",
			"zone", d.zoneID, "command", command, "param", param)
	}
	return nil
}

// update pushes a partial track update into the registry.
func (d *Driver) update(u driver.Update) {
	if err := d.updater.UpdateTrack(d.zoneID, u); err != nil {
		d.logger.Warn("demo: track update rejected", "zone", d.zoneID, "error", err)
	}
}

// Close stops the synthetic timer. Closing twice is a safe no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil || d.stopped {
		return nil
	}
	close(d.stop)
	d.stopped = true
	return nil
}
