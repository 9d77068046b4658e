// Package driver defines the contract between logical playback zones and
// the device integrations that control real speaker hardware.
//
// Each zone owns exactly one Driver for the lifetime of the process. A
// driver translates generic commands (play, pause, volume, ...) into
// device-specific actions and, in the other direction, pushes partial
// track-state updates through the Updater callback. Drivers never mutate
// zone state directly; the zone registry is the single writer.
//
// Grouping is an optional capability. Callers detect it with a type
// assertion against GroupSender rather than relying on a stubbed no-op,
// so absence of support is explicit at the call site.
//
// Driver kinds are resolved through a closed Factory populated once at
// process start; unknown kinds are a configuration error surfaced during
// startup, never a nil driver at runtime.
package driver
