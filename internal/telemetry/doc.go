// Package telemetry ingests MQTT messages published by field devices.
//
// Two channels arrive per device: telemetry carries sensor readings, and
// status carries command acknowledgements and online/offline transitions.
// The handler parses the topic for the device's location, decodes the
// payload, and fans out to the rule engine, the command dispatcher, the
// device registry, and the optional time-series recorder.
//
// Handler errors are returned to the MQTT client, which logs them; a bad
// payload from one device never stops the subscription.
package telemetry
