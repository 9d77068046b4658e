package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auric-audio/auric-core/internal/zone"
)

// TrackStore persists the last-known track state of each zone so a
// restart presents the controller with the same playback picture it saw
// before, instead of factory defaults.
//
// It satisfies the zone registry's Store interface.
type TrackStore struct {
	db *DB
}

// NewTrackStore creates a track store on the given database.
func NewTrackStore(db *DB) *TrackStore {
	return &TrackStore{db: db}
}

// SaveTrack upserts the serialized track state for one zone.
func (s *TrackStore) SaveTrack(ctx context.Context, zoneID int, t zone.Track) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("serialising track for zone %d: %w", zoneID, err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO zone_tracks (zone_id, track, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(zone_id) DO UPDATE SET track = excluded.track, updated_at = excluded.updated_at`,
		zoneID, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving track for zone %d: %w", zoneID, err)
	}
	return nil
}

// LoadTrack returns the persisted track state for one zone.
// The second return value is false when nothing has been saved yet.
func (s *TrackStore) LoadTrack(ctx context.Context, zoneID int) (zone.Track, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT track FROM zone_tracks WHERE zone_id = ?", zoneID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zone.Track{}, false, nil
	}
	if err != nil {
		return zone.Track{}, false, fmt.Errorf("loading track for zone %d: %w", zoneID, err)
	}

	var t zone.Track
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return zone.Track{}, false, fmt.Errorf("parsing stored track for zone %d: %w", zoneID, err)
	}
	return t, true, nil
}
