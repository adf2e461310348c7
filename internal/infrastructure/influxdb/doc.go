// Package influxdb provides sensor history storage for Farm Core.
//
// It wraps the official influxdb-client-go v2 library with Farm Core-specific
// patterns for connection management, reading writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Sensor readings (temperature, humidity, CO2, light, substrate moisture)
//   - Automation rule trigger history
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("farm-01", "room-02", "sensor-3",
//	    map[string]interface{}{"temperature_c": 21.5}, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly. The sink is optional: when disabled, Connect returns ErrDisabled
// and the caller runs without history storage.
package influxdb
