// Package zone owns the set of logical playback zones exposed to the
// master controller.
//
// Each zone pairs a static descriptor (id, name, driver kind, address)
// with mutable track state and exactly one device driver instance. Zones
// are built once during Setup from the resolved zone configuration and
// are never created or destroyed afterwards; a zone keeps the same driver
// for the whole process lifetime.
//
// The Registry is the single writer for track state. Drivers and command
// handlers feed partial updates through UpdateTrack, which merges them
// field by field (last-write-wins) and fans the updated snapshot out to
// every connected client, persists it, and records telemetry. Commands
// travel the other way: SendCommand delegates to the zone's driver and
// returns without waiting for the audible effect; the authoritative state
// change arrives later through the same UpdateTrack path.
package zone
