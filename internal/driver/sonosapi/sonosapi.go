// Package sonosapi implements a driver for speakers fronted by an HTTP
// bridge in the style of the Sonos HTTP API.
//
// Commands are relayed as GET actions against a per-zone REST endpoint.
// State flows the other way through a push subscription: the driver holds
// a streaming HTTP connection open against the bridge's events endpoint
// and maps each line-delimited JSON notification onto a partial track
// update. Because the upstream session silently expires, the subscription
// is force-closed and reopened on a fixed per-zone period; a mid-stream
// error is logged and recovery waits for the next scheduled renewal.
package sonosapi

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/auric-audio/auric-core/internal/driver"
)

// Kind is the factory name of this driver.
const Kind = "sonosapi"

const (
	// defaultRenewInterval is how often the push subscription is
	// force-closed and reopened to beat upstream session expiry.
	defaultRenewInterval = 15 * time.Minute

	// actionTimeout bounds a single command relay request.
	actionTimeout = 5 * time.Second
)

// Options carries driver settings beyond the per-zone driver.Config.
type Options struct {
	// CoverBase is the externally reachable base URL of the art proxy,
	// used to rewrite artwork references pushed by the device.
	CoverBase string

	// HTTPClient overrides the default client. The client must not set
	// a global timeout; the events stream stays open indefinitely.
	HTTPClient *http.Client

	// RenewInterval overrides the subscription renewal period.
	RenewInterval time.Duration
}

// Driver relays commands to, and tracks state from, one bridged speaker.
type Driver struct {
	zoneID     int
	base       string
	updater    driver.Updater
	logger     driver.Logger
	http       *http.Client
	coverBase  string
	renewEvery time.Duration

	mu           sync.Mutex
	streamCancel context.CancelFunc // non-nil while a subscription is open
	stop         chan struct{}      // closes the renewal loop
	started      bool
}

// New constructs a sonosapi driver for one zone.
func New(cfg driver.Config, opts Options) (driver.Driver, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("sonosapi: address is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	renew := opts.RenewInterval
	if renew <= 0 {
		renew = defaultRenewInterval
	}
	base := cfg.Address
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Driver{
		zoneID:     cfg.ZoneID,
		base:       strings.TrimRight(base, "/"),
		updater:    cfg.Updater,
		logger:     cfg.Logger,
		http:       client,
		coverBase:  strings.TrimRight(opts.CoverBase, "/"),
		renewEvery: renew,
	}, nil
}

// Initialize opens the push subscription and starts the renewal timer.
// Initialising twice is a safe no-op.
func (d *Driver) Initialize(_ context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.stop = make(chan struct{})
	d.mu.Unlock()

	if err := d.subscribe(); err != nil {
		// The renewal loop still runs: the next tick retries, so a
		// device that is down at startup recovers without operator help.
		d.logger.Warn("sonosapi: initial subscription failed",
			"zone", d.zoneID, "error", err)
	}

	go d.renewLoop()
	return nil
}

// renewLoop periodically force-renews the subscription until Close.
// Each zone renews on its own schedule; timers are not coordinated.
func (d *Driver) renewLoop() {
	ticker := time.NewTicker(d.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.unsubscribe()
			if err := d.subscribe(); err != nil {
				d.logger.Warn("sonosapi: subscription renewal failed",
					"zone", d.zoneID, "error", err)
			}
		}
	}
}

// subscribe opens the events stream and starts consuming notifications.
func (d *Driver) subscribe() error {
	ctx, cancel := context.WithCancel(context.Background())

	endpoint := fmt.Sprintf("%s/zones/%d/events", d.base, d.zoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("building events request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("opening events stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("events stream returned status %d", resp.StatusCode)
	}

	d.mu.Lock()
	// Replace any subscription that raced us; last one wins.
	if d.streamCancel != nil {
		d.streamCancel()
	}
	d.streamCancel = cancel
	d.mu.Unlock()

	d.logger.Debug("sonosapi: subscription opened", "zone", d.zoneID)

	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			d.handleNotification([]byte(line))
		}
		resp.Body.Close()
		// No immediate reconnect: a broken stream is logged and the
		// next scheduled renewal recovers it.
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			d.logger.Warn("sonosapi: events stream broke",
				"zone", d.zoneID, "error", err)
		}
	}()

	return nil
}

// unsubscribe force-closes the current subscription.
// Closing an absent subscription is a safe no-op.
func (d *Driver) unsubscribe() {
	d.mu.Lock()
	cancel := d.streamCancel
	d.streamCancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		d.logger.Debug("sonosapi: subscription closed", "zone", d.zoneID)
	}
}

// SendCommand relays a generic command as an HTTP action.
// Unknown commands are logged and ignored, not escalated.
func (d *Driver) SendCommand(command, param string) error {
	action, ok := actionFor(command, param)
	if !ok {
		d.logger.Warn("sonosapi: unknown command ignored",
			"zone", d.zoneID, "command", command, "param", param)
		return nil
	}
	return d.doAction(fmt.Sprintf("zones/%d/%s", d.zoneID, action))
}

// actionFor maps the generic command vocabulary onto bridge action paths.
func actionFor(command, param string) (string, bool) {
	switch command {
	case "play", "resume":
		return "play", true
	case "pause":
		return "pause", true
	case "stop":
		return "stop", true
	case "on":
		return "power/on", true
	case "off":
		return "power/off", true
	case "volume":
		return "volume/" + url.PathEscape(param), true
	case "queueplus":
		return "next", true
	case "queueminus":
		return "previous", true
	case "repeat":
		return "repeat/" + url.PathEscape(param), true
	case "shuffle":
		return "shuffle/" + url.PathEscape(param), true
	case "position":
		return "seek/" + url.PathEscape(param), true
	default:
		return "", false
	}
}

// SendGroupCommand relays a group action for each member.
// The master id is skipped if it reappears among the members, so the
// master is never sent a self-join.
func (d *Driver) SendGroupCommand(command, groupType string, masterID int, memberIDs []int) error {
	for _, member := range memberIDs {
		if member == masterID {
			continue
		}
		path := fmt.Sprintf("zones/%d/%s/%s/%d", masterID, command, url.PathEscape(groupType), member)
		if err := d.doAction(path); err != nil {
			return fmt.Errorf("group %s for member %d: %w", command, member, err)
		}
	}
	return nil
}

// doAction performs one fire-and-forget GET action against the bridge.
func (d *Driver) doAction(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/"+path, nil)
	if err != nil {
		return fmt.Errorf("building action request: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("action %s: %w", path, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("action %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// Close stops the renewal timer and the subscription.
// Closing twice is a safe no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = false
	close(d.stop)
	d.mu.Unlock()

	d.unsubscribe()
	return nil
}
