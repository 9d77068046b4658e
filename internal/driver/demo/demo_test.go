package demo

import (
	"context"
	"sync"
	"testing"

	"github.com/auric-audio/auric-core/internal/driver"
)

// recordingUpdater collects pushed updates.
type recordingUpdater struct {
	mu      sync.Mutex
	zoneIDs []int
	updates []driver.Update
}

func (r *recordingUpdater) UpdateTrack(zoneID int, u driver.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoneIDs = append(r.zoneIDs, zoneID)
	r.updates = append(r.updates, u)
	return nil
}

func (r *recordingUpdater) lastUpdate(t *testing.T) driver.Update {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		t.Fatal("no updates recorded")
	}
	return r.updates[len(r.updates)-1]
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestDriver(t *testing.T) (*Driver, *recordingUpdater) {
	t.Helper()
	updater := &recordingUpdater{}
	d, err := New(driver.Config{ZoneID: 7, Address: "127.0.0.1", Updater: updater, Logger: noopLogger{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d.(*Driver), updater
}

func TestInitialize_PushesMetadata(t *testing.T) {
	d, updater := newTestDriver(t)
	defer d.Close()

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := updater.lastUpdate(t)
	if u.Title == nil || *u.Title == "" {
		t.Error("expected a title in the initial update")
	}
	if u.Duration == nil || *u.Duration <= 0 {
		t.Error("expected a positive duration")
	}
	if updater.zoneIDs[0] != 7 {
		t.Errorf("update targeted zone %d, want 7", updater.zoneIDs[0])
	}
}

func TestInitialize_TwiceIsNoop(t *testing.T) {
	d, _ := newTestDriver(t)
	defer d.Close()

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
}

func TestSendCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		param   string
		check   func(t *testing.T, u driver.Update)
	}{
		{
			name:    "play sets mode and power",
			command: "play",
			check: func(t *testing.T, u driver.Update) {
				if u.Mode == nil || *u.Mode != driver.ModePlay {
					t.Errorf("mode = %v, want play", u.Mode)
				}
				if u.Power == nil || *u.Power != "on" {
					t.Errorf("power = %v, want on", u.Power)
				}
			},
		},
		{
			name:    "pause sets mode",
			command: "pause",
			check: func(t *testing.T, u driver.Update) {
				if u.Mode == nil || *u.Mode != driver.ModePause {
					t.Errorf("mode = %v, want pause", u.Mode)
				}
			},
		},
		{
			name:    "volume parses param",
			command: "volume",
			param:   "37",
			check: func(t *testing.T, u driver.Update) {
				if u.Volume == nil || *u.Volume != 37 {
					t.Errorf("volume = %v, want 37", u.Volume)
				}
			},
		},
		{
			name:    "queueplus advances track",
			command: "queueplus",
			check: func(t *testing.T, u driver.Update) {
				if u.Title == nil {
					t.Error("expected metadata after queueplus")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, updater := newTestDriver(t)
			defer d.Close()

			if err := d.SendCommand(tt.command, tt.param); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, updater.lastUpdate(t))
		})
	}
}

func TestSendCommand_UnknownIsIgnored(t *testing.T) {
	d, updater := newTestDriver(t)
	defer d.Close()

	if err := d.SendCommand("teleport", "9"); err != nil {
		t.Fatalf("unknown command should not error, got %v", err)
	}
	updater.mu.Lock()
	defer updater.mu.Unlock()
	if len(updater.updates) != 0 {
		t.Errorf("unknown command pushed %d updates", len(updater.updates))
	}
}

func TestClose_TwiceIsNoop(t *testing.T) {
	d, _ := newTestDriver(t)

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
