package driver

import "context"

// Playback modes as they appear on the wire.
const (
	ModeStop  = "stop"
	ModePlay  = "play"
	ModePause = "pause"
)

// Audio source types as they appear on the wire.
const (
	AudioTypeOff     = 0
	AudioTypeLineIn  = 1
	AudioTypeLibrary = 2
	AudioTypeStream  = 3
)

// Driver is implemented by every device integration.
//
// Initialize begins tracking/controlling the real device (opening a push
// subscription, arming a synthetic timer, ...). SendCommand translates a
// generic command name into device-specific actions; the audible effect
// may be applied asynchronously, with the resulting state surfacing later
// through the Updater. Close releases the driver's transport; closing an
// already-closed driver is a safe no-op.
type Driver interface {
	Initialize(ctx context.Context) error
	SendCommand(command, param string) error
	Close() error
}

// GroupSender is the optional grouping capability.
//
// Drivers that can join zones into synchronised playback groups implement
// it in addition to Driver. masterID is the coordinating zone; memberIDs
// are the additional zones as they appeared in the request. Implementations
// must skip the master id if it reappears among the members so the master
// is never sent a self-join.
type GroupSender interface {
	SendGroupCommand(command, groupType string, masterID int, memberIDs []int) error
}

// Update is a partial track-state change pushed by a driver.
//
// Nil fields are left untouched by the merge; set fields overwrite,
// last-write-wins. This is the only shape in which drivers report state.
type Update struct {
	Power     *string
	Volume    *int
	Mode      *string
	AudioType *int
	AudioPath *string
	Repeat    *int
	Shuffle   *int
	Duration  *int
	Position  *int
	Title     *string
	Artist    *string
	Album     *string
	Station   *string
	CoverURL  *string
}

// Updater receives partial track updates from drivers.
// It is satisfied by the zone registry.
type Updater interface {
	UpdateTrack(zoneID int, u Update) error
}

// Logger is the logging interface drivers use.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// String returns a pointer to s, for building Updates.
func String(s string) *string { return &s }

// Int returns a pointer to i, for building Updates.
func Int(i int) *int { return &i }
