package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteZoneMetric writes a single zone playback measurement.
//
// This is the primary method for recording playback telemetry and the
// one the zone registry calls on every track update. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - zoneID: The zone the measurement belongs to
//   - measurement: The metric name (e.g., "volume", "position", "power")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteZoneMetric(4, "volume", 35)
//	client.WriteZoneMetric(4, "position", 128)
func (c *Client) WriteZoneMetric(zoneID int, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"zone_metrics",
		map[string]string{
			"zone_id":     strconv.Itoa(zoneID),
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteZoneMetric, such as
// process-level statistics.
//
// Example:
//
//	client.WritePoint("server_stats",
//	    map[string]string{"host": "auric-01"},
//	    map[string]interface{}{"connections": 3, "zones_playing": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
