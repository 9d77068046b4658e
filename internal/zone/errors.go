package zone

import "errors"

// Domain errors for the zone package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, zone.ErrZoneNotFound) {
//	    // handle not found case
//	}
var (
	// ErrZoneNotFound is returned when a zone id does not exist.
	ErrZoneNotFound = errors.New("zone: not found")

	// ErrNoZones is returned by Setup when the zone configuration is empty.
	ErrNoZones = errors.New("zone: no zones configured")

	// ErrGroupUnsupported is returned when a group command targets a zone
	// whose driver does not implement the grouping capability.
	ErrGroupUnsupported = errors.New("zone: driver does not support grouping")

	// ErrBadGroupSpec is returned when a group id list cannot be parsed.
	ErrBadGroupSpec = errors.New("zone: invalid group id list")
)
