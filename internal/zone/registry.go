package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/auric-audio/auric-core/internal/driver"
	"github.com/auric-audio/auric-core/internal/infrastructure/config"
)

// Fallback used when a zone is configured without a driver kind or
// address. A zone is never left without a driver.
const (
	fallbackKind    = "demo"
	fallbackAddress = "127.0.0.1"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broadcaster fans serialized events out to every connected client.
// It is satisfied by the API server's WebSocket hub.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Store persists last-known track state across restarts.
// It is satisfied by *database.TrackStore. Optional.
type Store interface {
	SaveTrack(ctx context.Context, zoneID int, t Track) error
	LoadTrack(ctx context.Context, zoneID int) (Track, bool, error)
}

// Telemetry records playback measurements.
// It is satisfied by *influxdb.Client. Optional.
type Telemetry interface {
	WriteZoneMetric(zoneID int, measurement string, value float64)
}

// Options holds the dependencies for creating a Registry.
type Options struct {
	// Factory resolves configured driver kinds. Required.
	Factory *driver.Factory

	// Broadcaster receives serialized state-change events. Optional;
	// if nil, updates are applied without fan-out.
	Broadcaster Broadcaster

	// Store persists last-known track state. Optional.
	Store Store

	// Telemetry records playback measurements. Optional.
	Telemetry Telemetry

	// Logger is the structured logger. Optional; defaults to no-op.
	Logger Logger
}

// Registry owns the set of playback zones.
//
// It is the single writer for track state: drivers push partial updates
// through UpdateTrack (the Registry satisfies driver.Updater) and command
// handlers delegate through SendCommand/SendGroupCommand. All mutation
// happens under one lock, so no two merges of the same track interleave
// at sub-field granularity.
type Registry struct {
	factory     *driver.Factory
	broadcaster Broadcaster
	store       Store
	telemetry   Telemetry
	logger      Logger

	mu    sync.RWMutex
	zones map[int]*Zone
}

// NewRegistry creates a registry with no zones.
// Call Setup to build zones from configuration.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("zone: driver factory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		factory:     opts.Factory,
		broadcaster: opts.Broadcaster,
		store:       opts.Store,
		telemetry:   opts.Telemetry,
		logger:      logger,
		zones:       make(map[int]*Zone),
	}, nil
}

// Setup builds one zone per configuration entry and initialises its driver.
//
// A zone with a missing driver kind or address degrades to the demo
// driver on a loopback address rather than being left driverless; an
// unknown kind is logged as a configuration error and degrades the same
// way. Driver initialisation failures are logged and do not prevent the
// remaining zones from initialising.
//
// Zones are not created or destroyed after Setup returns.
func (r *Registry) Setup(ctx context.Context, configs []config.ZoneConfig) error {
	if len(configs) == 0 {
		return ErrNoZones
	}

	r.mu.Lock()
	for _, zc := range configs {
		kind := zc.Driver
		address := zc.Address
		if kind == "" || address == "" {
			r.logger.Warn("zone missing driver or address, falling back to demo",
				"zone", zc.ID, "driver", kind, "address", address)
			kind = fallbackKind
			address = fallbackAddress
		}
		if !r.factory.Known(kind) {
			r.logger.Error("unknown driver kind, falling back to demo",
				"zone", zc.ID, "driver", kind)
			kind = fallbackKind
			address = fallbackAddress
		}

		z := &Zone{
			ID:        zc.ID,
			Name:      zc.Name,
			MaxVolume: zc.MaxVolume,
			Kind:      kind,
			Address:   address,
			track:     defaultTrack(zc.ID),
		}

		// Warm start: present the last-known state to the controller
		// instead of defaults after a restart.
		if r.store != nil {
			if t, ok, err := r.store.LoadTrack(ctx, zc.ID); err != nil {
				r.logger.Warn("loading persisted track failed", "zone", zc.ID, "error", err)
			} else if ok {
				t.PlayerID = zc.ID
				z.track = t
			}
		}

		d, err := r.factory.New(kind, driver.Config{
			ZoneID:  zc.ID,
			Address: address,
			Updater: r,
			Logger:  r.logger,
		})
		if err != nil {
			// Constructors of registered kinds should not fail, but a
			// zone must never be left without a driver.
			r.logger.Error("driver construction failed, falling back to demo",
				"zone", zc.ID, "driver", kind, "error", err)
			d, err = r.factory.New(fallbackKind, driver.Config{
				ZoneID:  zc.ID,
				Address: fallbackAddress,
				Updater: r,
				Logger:  r.logger,
			})
			if err != nil {
				r.mu.Unlock()
				return fmt.Errorf("constructing fallback driver for zone %d: %w", zc.ID, err)
			}
			z.Kind = fallbackKind
			z.Address = fallbackAddress
		}
		z.driver = d
		r.zones[zc.ID] = z
	}
	zones := make([]*Zone, 0, len(r.zones))
	for _, z := range r.zones {
		zones = append(zones, z)
	}
	r.mu.Unlock()

	// Initialise drivers outside the lock; drivers may call back into
	// UpdateTrack during initialisation.
	for _, z := range zones {
		if err := z.driver.Initialize(ctx); err != nil {
			// Per-zone fault isolation: one unreachable device must not
			// take down the others.
			r.logger.Error("driver initialisation failed",
				"zone", z.ID, "driver", z.Kind, "error", err)
			continue
		}
		r.logger.Info("zone initialised", "zone", z.ID, "name", z.Name, "driver", z.Kind)
	}

	return nil
}

// Get returns a snapshot of the zone with the given id.
// Returns ErrZoneNotFound if the id is not configured.
func (r *Registry) Get(id int) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	z, ok := r.zones[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrZoneNotFound, id)
	}
	return r.snapshotLocked(z), nil
}

// Zones returns snapshots of all zones, sorted by id.
func (r *Registry) Zones() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(r.zones))
	for _, z := range r.zones {
		snaps = append(snaps, r.snapshotLocked(z))
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// Count returns the number of configured zones.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}

// snapshotLocked builds a Snapshot; the caller must hold at least a read lock.
func (r *Registry) snapshotLocked(z *Zone) Snapshot {
	return Snapshot{
		ID:        z.ID,
		Name:      z.Name,
		MaxVolume: z.MaxVolume,
		Kind:      z.Kind,
		Address:   z.Address,
		Track:     z.track.clone(),
	}
}

// UpdateTrack merges a partial update into the zone's track.
//
// This is the single writer path for track mutation. On success the
// updated snapshot is fanned out to all connected clients, persisted,
// and recorded as telemetry. An unknown zone returns ErrZoneNotFound
// and triggers no broadcast.
func (r *Registry) UpdateTrack(zoneID int, u driver.Update) error {
	r.mu.Lock()
	z, ok := r.zones[zoneID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrZoneNotFound, zoneID)
	}
	z.track.merge(u)
	snap := z.track.clone()
	r.mu.Unlock()

	r.publishTrack(snap)
	return nil
}

// publishTrack fans an updated track out to clients, storage, and telemetry.
func (r *Registry) publishTrack(t Track) {
	if r.broadcaster != nil {
		payload, err := json.Marshal(map[string][]Track{"audio_event": {t}})
		if err != nil {
			r.logger.Error("marshalling audio event failed", "zone", t.PlayerID, "error", err)
		} else {
			r.broadcaster.Broadcast(payload)
		}
	}

	if r.store != nil {
		if err := r.store.SaveTrack(context.Background(), t.PlayerID, t); err != nil {
			r.logger.Warn("persisting track failed", "zone", t.PlayerID, "error", err)
		}
	}

	if r.telemetry != nil {
		r.telemetry.WriteZoneMetric(t.PlayerID, "volume", float64(t.Volume))
		r.telemetry.WriteZoneMetric(t.PlayerID, "position", float64(t.Position))
		power := 0.0
		if t.Power == "on" {
			power = 1.0
		}
		r.telemetry.WriteZoneMetric(t.PlayerID, "power", power)
	}
}

// SendCommand delegates a generic command to the zone's driver.
//
// The call is fire-and-forget: it returns as soon as the command has been
// handed to the driver, without waiting for the device-visible effect.
// Delegation failures are logged and swallowed; the authoritative state
// change arrives later through UpdateTrack.
func (r *Registry) SendCommand(zoneID int, command, param string) error {
	r.mu.RLock()
	z, ok := r.zones[zoneID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrZoneNotFound, zoneID)
	}

	go func() {
		if err := z.driver.SendCommand(command, param); err != nil {
			r.logger.Warn("driver command failed",
				"zone", zoneID, "command", command, "param", param, "error", err)
		}
	}()
	return nil
}

// SendGroupCommand delegates a group command to the master zone's driver.
//
// idList is a comma-separated zone id list where the first id is the
// master; the remaining ids are passed to the driver as members verbatim.
// Drivers skip the master id if it reappears among the members, so the
// master is never sent a self-join. Group membership is tracked from the
// actual request and a sync event derived from that state is broadcast.
//
// Drivers without the grouping capability yield ErrGroupUnsupported;
// callers must not assume success.
func (r *Registry) SendGroupCommand(command, groupType, idList string) error {
	master, members, err := parseGroupSpec(idList)
	if err != nil {
		return err
	}

	r.mu.RLock()
	z, ok := r.zones[master]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrZoneNotFound, master)
	}

	sender, ok := z.driver.(driver.GroupSender)
	if !ok {
		r.logger.Warn("group command on driver without grouping support",
			"zone", master, "driver", z.Kind, "command", command)
		return fmt.Errorf("%w: kind %q", ErrGroupUnsupported, z.Kind)
	}

	go func() {
		if err := sender.SendGroupCommand(command, groupType, master, members); err != nil {
			r.logger.Warn("driver group command failed",
				"zone", master, "command", command, "error", err)
		}
	}()

	r.recordGroup(master, members)
	return nil
}

// parseGroupSpec parses a comma-separated id list into master and members.
// Members are not filtered here; self-join suppression is the driver's
// responsibility so the wire behaviour stays byte-compatible.
func parseGroupSpec(idList string) (master int, members []int, err error) {
	parts := strings.Split(strings.TrimSpace(idList), ",")
	if len(parts) == 0 || parts[0] == "" {
		return 0, nil, fmt.Errorf("%w: %q", ErrBadGroupSpec, idList)
	}

	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, nil, fmt.Errorf("%w: %q", ErrBadGroupSpec, idList)
		}
		ids = append(ids, id)
	}

	return ids[0], ids[1:], nil
}

// syncGroup is the wire shape of one entry in an audio_sync_event.
type syncGroup struct {
	Master  int   `json:"master"`
	Players []int `json:"players"`
}

// recordGroup stores group membership on the affected zones and
// broadcasts a sync event derived from the actual request.
// Duplicate ids are collapsed for the bookkeeping view.
func (r *Registry) recordGroup(master int, members []int) {
	players := []int{master}
	seen := map[int]bool{master: true}
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		players = append(players, id)
	}

	r.mu.Lock()
	for _, id := range players {
		if z, ok := r.zones[id]; ok {
			z.track.Players = make([]int, len(players))
			copy(z.track.Players, players)
		}
	}
	r.mu.Unlock()

	if r.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(map[string][]syncGroup{
		"audio_sync_event": {{Master: master, Players: players}},
	})
	if err != nil {
		r.logger.Error("marshalling sync event failed", "zone", master, "error", err)
		return
	}
	r.broadcaster.Broadcast(payload)
}

// Stats holds registry statistics for monitoring.
type Stats struct {
	TotalZones int
	ByKind     map[string]int
	Playing    int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalZones: len(r.zones),
		ByKind:     make(map[string]int),
	}
	for _, z := range r.zones {
		stats.ByKind[z.Kind]++
		if z.track.Mode == driver.ModePlay {
			stats.Playing++
		}
	}
	return stats
}

// Close shuts down every zone's driver.
// Close errors are logged, not returned; shutdown always proceeds.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, z := range r.zones {
		if err := z.driver.Close(); err != nil {
			r.logger.Warn("closing driver failed", "zone", z.ID, "error", err)
		}
	}
}
