// Package influxdb provides InfluxDB connectivity for Auric Core.
//
// It wraps the official influxdb-client-go v2 library with Auric-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage of playback telemetry:
//   - Volume changes per zone
//   - Playback position and power transitions
//   - Process-level statistics (connection counts, zones playing)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "auric",
//	    Bucket: "playback",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteZoneMetric(4, "volume", 35)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
package influxdb
