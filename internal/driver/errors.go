package driver

import "errors"

// Domain errors for the driver package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, driver.ErrUnknownKind) {
//	    // configuration error, fail startup
//	}
var (
	// ErrUnknownKind is returned when a driver kind is not registered
	// with the factory.
	ErrUnknownKind = errors.New("driver: unknown kind")

	// ErrKindRegistered is returned when registering a kind that
	// already exists in the factory.
	ErrKindRegistered = errors.New("driver: kind already registered")

	// ErrNotInitialized is returned by operations that require a prior
	// successful Initialize call.
	ErrNotInitialized = errors.New("driver: not initialized")

	// ErrUnknownCommand is returned when a command name is not part of
	// the driver's vocabulary. Callers log and ignore it.
	ErrUnknownCommand = errors.New("driver: unknown command")
)
