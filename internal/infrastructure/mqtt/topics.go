package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Farm Core MQTT hierarchy.
//
// Device topics use the scheme: farm/{farm_id}/room/{room_id}/device/{device_id}/{channel}
// This matches the firmware on field controllers, which subscribes to its own
// command channel and publishes telemetry and status on the sibling channels.
const (
	// TopicPrefixFarm is the base for all per-farm device topics.
	TopicPrefixFarm = "farm"

	// TopicPrefixSystem is the base for Core system topics.
	TopicPrefixSystem = "farmcore/system"
)

// Device topic channels.
const (
	ChannelCommand   = "command"
	ChannelTelemetry = "telemetry"
	ChannelStatus    = "status"
)

// deviceTopicParts is the number of segments in a device topic.
// farm/{farm_id}/room/{room_id}/device/{device_id}/{channel}
const deviceTopicParts = 7

// Topics provides builders for Farm Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("farm-01", "room-02", "pump-1")
//	// Returns: "farm/farm-01/room/room-02/device/pump-1/command"
type Topics struct{}

// DeviceCommand returns the topic commands are published to for a device.
//
// Example: farm/farm-01/room/room-02/device/pump-1/command
func (Topics) DeviceCommand(farmID, roomID, deviceID string) string {
	return fmt.Sprintf("%s/%s/room/%s/device/%s/%s", TopicPrefixFarm, farmID, roomID, deviceID, ChannelCommand)
}

// DeviceTelemetry returns the topic a device publishes sensor readings to.
//
// Example: farm/farm-01/room/room-02/device/sensor-3/telemetry
func (Topics) DeviceTelemetry(farmID, roomID, deviceID string) string {
	return fmt.Sprintf("%s/%s/room/%s/device/%s/%s", TopicPrefixFarm, farmID, roomID, deviceID, ChannelTelemetry)
}

// DeviceStatus returns the topic a device publishes command results and
// lifecycle status to.
//
// Example: farm/farm-01/room/room-02/device/pump-1/status
func (Topics) DeviceStatus(farmID, roomID, deviceID string) string {
	return fmt.Sprintf("%s/%s/room/%s/device/%s/%s", TopicPrefixFarm, farmID, roomID, deviceID, ChannelStatus)
}

// SystemStatus returns the Core system status topic.
//
// Example: farmcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// FarmTelemetry returns a pattern matching all telemetry for a farm.
//
// Pattern: farm/{farm_id}/room/+/device/+/telemetry
func (Topics) FarmTelemetry(farmID string) string {
	return fmt.Sprintf("%s/%s/room/+/device/+/%s", TopicPrefixFarm, farmID, ChannelTelemetry)
}

// FarmStatus returns a pattern matching all device status messages for a farm.
//
// Pattern: farm/{farm_id}/room/+/device/+/status
func (Topics) FarmStatus(farmID string) string {
	return fmt.Sprintf("%s/%s/room/+/device/+/%s", TopicPrefixFarm, farmID, ChannelStatus)
}

// FarmAll returns a pattern matching all topics for a farm.
// Use with caution - this receives ALL traffic for the farm.
//
// Pattern: farm/{farm_id}/#
func (Topics) FarmAll(farmID string) string {
	return fmt.Sprintf("%s/%s/#", TopicPrefixFarm, farmID)
}

// DeviceTopic holds the identifiers extracted from a device topic.
type DeviceTopic struct {
	FarmID   string
	RoomID   string
	DeviceID string
	Channel  string
}

// ParseDeviceTopic extracts identifiers from a device topic.
//
// The topic must have exactly the form
// farm/{farm_id}/room/{room_id}/device/{device_id}/{channel} with no empty
// segments.
func ParseDeviceTopic(topic string) (DeviceTopic, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != deviceTopicParts {
		return DeviceTopic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if parts[0] != TopicPrefixFarm || parts[2] != "room" || parts[4] != "device" {
		return DeviceTopic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	dt := DeviceTopic{
		FarmID:   parts[1],
		RoomID:   parts[3],
		DeviceID: parts[5],
		Channel:  parts[6],
	}
	if dt.FarmID == "" || dt.RoomID == "" || dt.DeviceID == "" || dt.Channel == "" {
		return DeviceTopic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	switch dt.Channel {
	case ChannelCommand, ChannelTelemetry, ChannelStatus:
		return dt, nil
	default:
		return DeviceTopic{}, fmt.Errorf("%w: unknown channel in %q", ErrInvalidTopic, topic)
	}
}
