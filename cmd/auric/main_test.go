package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/auric-audio/auric-core/internal/zone"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AURIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("AURIC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("AURIC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown exercises the full startup path with only
// local dependencies (demo driver, MQTT/InfluxDB/discovery disabled) and
// waits for context-driven shutdown.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "auric.db")

	configContent := `
server:
  host: "127.0.0.1"
  port: 17091
  mac: "50:4f:94:ff:1b:b3"
  timeouts:
    read: 30
    write: 30
    idle: 120

zones:
  - id: 1
    name: "Kitchen"
    driver: demo
    address: "127.0.0.1"

mqtt:
  enabled: false

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

discovery:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("AURIC_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
}

// captureSink records broadcast payloads for fan-out assertions.
type captureSink struct {
	got [][]byte
}

func (s *captureSink) Broadcast(payload []byte) {
	s.got = append(s.got, payload)
}

// TestBroadcastFanout delivers the same payload to every sink.
func TestBroadcastFanout(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}

	f := &broadcastFanout{targets: []zone.Broadcaster{first, second}}
	f.Broadcast([]byte(`{"audio_event":[]}`))

	if len(first.got) != 1 || len(second.got) != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", len(first.got), len(second.got))
	}
	if string(first.got[0]) != `{"audio_event":[]}` {
		t.Errorf("payload = %s", first.got[0])
	}
}
