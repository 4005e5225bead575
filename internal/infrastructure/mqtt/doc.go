// Package mqtt provides MQTT client connectivity for the bridge.
//
// This package manages:
//   - Connection to the broker
//   - Retained state publishing
//   - Topic subscriptions with restore-on-reconnect
//   - Last Will and Testament (LWT) on the availability topic
//
// # Architecture
//
// The bridge publishes every panel state change as a retained message, so
// the broker always carries the last known value per topic and consumers
// that restart converge immediately:
//
//	Security panel → bridge → MQTT broker → consumers (Home Assistant, ...)
//
// Reconnection is deliberately NOT handled here: the connection supervisor
// owns the retry policy and forces a full state resync after every
// successful reconnect, so the client exposes Reconnect() instead of
// enabling paho's auto-reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, topics.Availability())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishRetained(topics.Partition(1), []byte("1A"))
//
//	client.EnsureSubscribed(topics.Command(), 1,
//	    func(topic string, payload []byte) error {
//	        // handle arm/disarm command
//	        return nil
//	    })
package mqtt
