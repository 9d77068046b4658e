package discovery

import (
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/auric-audio/auric-core/internal/infrastructure/config"
	"github.com/auric-audio/auric-core/internal/infrastructure/logging"
)

// Service identifiers for the mDNS announcement.
const (
	// serviceType is the DNS-SD service music apps browse for.
	serviceType = "_musicserver._tcp"

	// serviceDomain is the mDNS domain (always local).
	serviceDomain = "local."
)

// Sentinel errors for discovery operations.
var (
	// ErrDisabled indicates discovery is turned off in configuration.
	ErrDisabled = errors.New("discovery is disabled")

	// ErrRegisterFailed indicates the mDNS announcement could not be made.
	ErrRegisterFailed = errors.New("mdns registration failed")
)

// Announcer publishes the server's presence on the local network.
//
// Thread Safety:
//   - Announce and Close must not be called concurrently.
type Announcer struct {
	cfg    config.DiscoveryConfig
	logger *logging.Logger
	server *zeroconf.Server
}

// New creates an announcer. Nothing is published until Announce is called.
func New(cfg config.DiscoveryConfig, logger *logging.Logger) *Announcer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Announcer{
		cfg:    cfg,
		logger: logger,
	}
}

// Announce registers the instance on all multicast-capable interfaces.
//
// The TXT record carries the device MAC so clients can match the
// announcement against a paired controller.
//
// Parameters:
//   - port: The HTTP/WebSocket listen port to advertise
//   - mac: The device MAC address included in the TXT record
//
// Returns:
//   - error: ErrDisabled when discovery is off, ErrRegisterFailed on failure
func (a *Announcer) Announce(port int, mac string) error {
	if !a.cfg.Enabled {
		return ErrDisabled
	}

	txt := []string{
		"mac=" + mac,
		"path=/",
	}

	server, err := zeroconf.Register(a.cfg.Instance, serviceType, serviceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterFailed, err)
	}
	a.server = server

	a.logger.Info("mdns announcement registered",
		"instance", a.cfg.Instance,
		"service", serviceType,
		"port", port,
	)
	return nil
}

// Close withdraws the announcement. Safe to call when Announce was
// never called or returned an error.
func (a *Announcer) Close() {
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.logger.Info("mdns announcement withdrawn")
}
