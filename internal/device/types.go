package device

import "time"

// Type classifies what a device does.
type Type string

const (
	TypeSensor     Type = "sensor"
	TypeFan        Type = "fan"
	TypePump       Type = "pump"
	TypeLight      Type = "light"
	TypeHeater     Type = "heater"
	TypeHumidifier Type = "humidifier"
	TypeValve      Type = "valve"
)

// AllTypes returns the recognised device types.
func AllTypes() []Type {
	return []Type{TypeSensor, TypeFan, TypePump, TypeLight, TypeHeater, TypeHumidifier, TypeValve}
}

// ConnectionStatus is a device's last known reachability.
type ConnectionStatus string

const (
	StatusOnline  ConnectionStatus = "online"
	StatusOffline ConnectionStatus = "offline"
)

// Device is a sensor or actuator installed in a grow room.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Type   `json:"type"`

	// Location. Every device belongs to exactly one room on one farm;
	// the pair also forms the device's MQTT topic path.
	FarmID string `json:"farm_id"`
	RoomID string `json:"room_id"`

	Status ConnectionStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is a device's position in the farm topology.
type Location struct {
	FarmID string
	RoomID string
}

// DeepCopy creates an independent copy of the device.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
