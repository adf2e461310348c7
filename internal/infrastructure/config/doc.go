// Package config loads and validates Farm Core configuration.
//
// Configuration is read from a YAML file with hardcoded defaults applied
// first and FARMCORE_* environment variables applied last, so deployment
// secrets (JWT secret, MQTT credentials, InfluxDB token) never need to live
// in the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
