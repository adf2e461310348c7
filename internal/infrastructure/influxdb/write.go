package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading writes a sensor reading to the history bucket.
//
// This is the primary method for recording telemetry data. The write is
// non-blocking; data is batched and sent asynchronously. Field names match
// the telemetry payload keys (temperature_c, humidity_pct, co2_ppm, ...).
//
// Example:
//
//	client.WriteReading("farm-01", "room-02", "sensor-3",
//	    map[string]interface{}{"temperature_c": 21.5, "humidity_pct": 63.0},
//	    time.Now())
func (c *Client) WriteReading(farmID, roomID, deviceID string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"farm_id":   farmID,
			"room_id":   roomID,
			"device_id": deviceID,
		},
		fields,
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteRuleTrigger records an automation rule firing.
//
// Used for dashboarding rule activity alongside the sensor history.
func (c *Client) WriteRuleTrigger(farmID, roomID, ruleID string, sensorValue float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rule_triggers",
		map[string]string{
			"farm_id": farmID,
			"room_id": roomID,
			"rule_id": ruleID,
		},
		map[string]interface{}{
			"sensor_value": sensorValue,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods. Tags should
// be low cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
