// Auric Core - Music Server Emulator
//
// This is the main entry point for the Auric Core application. Auric
// emulates a proprietary multi-room audio controller so a building
// automation miniserver pairs with it as if it were the vendor's own
// hardware, while playback is delegated to whatever actually drives the
// speakers (Sonos HTTP bridges, MQTT-attached amplifiers, or a built-in
// demo device).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/auric-audio/auric-core/internal/api"
	"github.com/auric-audio/auric-core/internal/discovery"
	"github.com/auric-audio/auric-core/internal/dispatch"
	"github.com/auric-audio/auric-core/internal/driver"
	"github.com/auric-audio/auric-core/internal/driver/demo"
	"github.com/auric-audio/auric-core/internal/driver/mqttdev"
	"github.com/auric-audio/auric-core/internal/driver/sonosapi"
	"github.com/auric-audio/auric-core/internal/infrastructure/config"
	"github.com/auric-audio/auric-core/internal/infrastructure/database"
	"github.com/auric-audio/auric-core/internal/infrastructure/influxdb"
	"github.com/auric-audio/auric-core/internal/infrastructure/logging"
	"github.com/auric-audio/auric-core/internal/infrastructure/mqtt"
	"github.com/auric-audio/auric-core/internal/zone"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Auric Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	trackStore := database.NewTrackStore(db)

	// Connect to MQTT broker (optional; backs the "mqtt" driver kind and
	// the event mirror)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Register driver kinds. The "mqtt" kind is only available when a
	// broker connection exists; zones configured for it without one
	// degrade to the demo driver during Setup.
	factory := driver.NewFactory()
	if err := factory.Register(demo.Kind, demo.New); err != nil {
		return fmt.Errorf("registering demo driver: %w", err)
	}
	sonosOpts := sonosapi.Options{CoverBase: cfg.Drivers.Sonos.CoverBase}
	if err := factory.Register(sonosapi.Kind, func(dc driver.Config) (driver.Driver, error) {
		return sonosapi.New(dc, sonosOpts)
	}); err != nil {
		return fmt.Errorf("registering sonosapi driver: %w", err)
	}
	if mqttClient != nil {
		bus := &busAdapter{client: mqttClient}
		prefix := mqttClient.Topics().Prefix
		qos := byte(cfg.MQTT.QoS) // #nosec G115 -- validated to 0..2 at connect
		if err := factory.Register(mqttdev.Kind, func(dc driver.Config) (driver.Driver, error) {
			return mqttdev.New(dc, mqttdev.Options{Broker: bus, Prefix: prefix, QoS: qos})
		}); err != nil {
			return fmt.Errorf("registering mqtt driver: %w", err)
		}
	}
	log.Info("driver kinds registered", "kinds", factory.Kinds())

	// The hub is created before the registry so zone events can fan out
	// to WebSocket clients; the event mirror republishes the same bytes
	// onto the bus when enabled.
	hub := api.NewHub(cfg.WebSocket, log)
	var broadcaster zone.Broadcaster = hub
	if mqttClient != nil && cfg.MQTT.MirrorEvents {
		broadcaster = &broadcastFanout{targets: []zone.Broadcaster{hub, mqtt.NewMirror(mqttClient, log)}}
		log.Info("event mirror enabled", "topic", mqttClient.Topics().Events())
	}

	// Build zones
	registryOpts := zone.Options{
		Factory:     factory,
		Broadcaster: broadcaster,
		Store:       trackStore,
		Logger:      log,
	}
	if influxClient != nil {
		registryOpts.Telemetry = influxClient
	}
	registry, err := zone.NewRegistry(registryOpts)
	if err != nil {
		return fmt.Errorf("creating zone registry: %w", err)
	}
	if err := registry.Setup(ctx, cfg.Zones); err != nil {
		return fmt.Errorf("setting up zones: %w", err)
	}
	defer func() {
		log.Info("closing zones")
		registry.Close()
	}()
	log.Info("zones initialised", "count", len(cfg.Zones))

	// Wire the command dispatcher and the HTTP/WebSocket front
	dispatcher := dispatch.New(dispatch.Options{
		Registry: registry,
		Logger:   log,
		MAC:      cfg.Server.Mac,
		Name:     cfg.Discovery.Instance,
	})

	server, err := api.New(api.Deps{
		Config:     cfg.Server,
		WS:         cfg.WebSocket,
		Logger:     log,
		Registry:   registry,
		Dispatcher: dispatcher,
		Hub:        hub,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating wire server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting wire server: %w", err)
	}
	defer func() {
		log.Info("stopping wire server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing wire server", "error", closeErr)
		}
	}()

	// Announce over mDNS (optional)
	announcer := discovery.New(cfg.Discovery, log)
	if err := announcer.Announce(cfg.Server.Port, cfg.Server.Mac); err != nil {
		if errors.Is(err, discovery.ErrDisabled) {
			log.Info("mdns discovery disabled")
		} else {
			// Discovery failure is not fatal; clients can connect by address.
			log.Warn("mdns announcement failed", "error", err)
		}
	} else {
		defer announcer.Close()
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. mDNS announcement (if registered)
	// 2. Wire server (closes WebSocket clients)
	// 3. Zones (driver teardown)
	// 4. InfluxDB (if enabled)
	// 5. MQTT (if enabled)
	// 6. Database

	log.Info("Auric Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AURIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AURIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// busAdapter adapts the infrastructure MQTT client to the mqtt driver's
// Broker interface. The only difference is the Subscribe handler type:
// the infrastructure client takes a named MessageHandler, the driver a
// plain func with the same shape.
type busAdapter struct {
	client *mqtt.Client
}

// Publish implements mqttdev.Broker.
func (a *busAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements mqttdev.Broker.
func (a *busAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// Unsubscribe implements mqttdev.Broker.
func (a *busAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// broadcastFanout delivers each event to every configured sink.
type broadcastFanout struct {
	targets []zone.Broadcaster
}

// Broadcast implements zone.Broadcaster.
func (f *broadcastFanout) Broadcast(payload []byte) {
	for _, t := range f.targets {
		t.Broadcast(payload)
	}
}
