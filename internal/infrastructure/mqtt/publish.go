package mqtt

import (
	"fmt"
)

// Payloads above this size are rejected before hitting the broker.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the given topic and waits for the broker to
// acknowledge it, up to the publish timeout. Retained messages are stored
// by the broker and handed to new subscribers; use them for state topics
// only, never for commands.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishCommand publishes a command payload to a device's command topic
// with the configured default QoS. Commands are never retained; a device
// reconnecting must not replay stale instructions.
func (c *Client) PublishCommand(farmID, roomID, deviceID string, payload []byte) error {
	topic := Topics{}.DeviceCommand(farmID, roomID, deviceID)
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}

// PublishRetained publishes a retained state message with the configured
// default QoS, so new subscribers receive the current value immediately.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
