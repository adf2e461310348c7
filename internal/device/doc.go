// Package device manages the sensors and actuators installed across farm
// rooms.
//
// Every device belongs to exactly one room on one farm; that pair doubles
// as the device's MQTT topic path. The Registry fronts the repository with
// an in-memory cache because device lookups sit on the two hot paths of
// the system: resolving the source of every telemetry reading and the
// target of every dispatched command.
package device
