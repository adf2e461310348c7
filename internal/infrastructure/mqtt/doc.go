// Package mqtt provides MQTT client connectivity for Farm Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Farm Core uses MQTT as the message bus connecting the Core to field
// controllers on each farm. Devices publish sensor readings on their
// telemetry channel and command results on their status channel; Core
// publishes actuator commands on each device's command channel.
//
//	Farm Core ↔ MQTT Broker ↔ Field Controllers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all telemetry for the farm
//	err = client.Subscribe(mqtt.Topics{}.FarmTelemetry("farm-01"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish command
//	topic := mqtt.Topics{}.DeviceCommand("farm-01", "room-02", "pump-1")
//	client.Publish(topic, []byte(`{"command":"turn_on"}`), 1, false)
package mqtt
