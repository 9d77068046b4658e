// Package config provides configuration loading for Auric Core.
//
// Configuration is read from a single YAML file, merged over hardcoded
// defaults, and finally overridden by AURIC_* environment variables.
// Validation happens at load time so the daemon fails fast on a broken
// deployment rather than misbehaving at runtime.
//
// The zone list is the one piece of configuration the core consumes from
// the external pairing subsystem: each entry names a zone id, a driver
// kind, and the network address of the real speaker behind that zone.
// Driver kinds are validated against the driver factory in main, not
// here, to keep this package free of domain imports.
package config
