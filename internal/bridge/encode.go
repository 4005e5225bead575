package bridge

import (
	"strconv"

	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/mqtt"
	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

// Partition payload suffixes on the partition state topic.
const (
	payloadArmedAway = "A"
	payloadArmedStay = "S"
	payloadDisarmed  = "D"
	payloadExitDelay = "P"
	payloadAlarm     = "T"
)

// Binary payloads for fire, zone, power and bus-link topics.
const (
	payloadActive   = "1"
	payloadRestored = "0"
)

// Message is one encoded bus message. All bridge messages are published
// retained so late subscribers converge to current state.
type Message struct {
	Topic   string
	Payload string
}

// Encoder maps a Change to its bus message.
//
// The mapping is pure and deterministic: the same (subject, number,
// value) always yields the same topic and payload, independent of call
// order. Retained-bus semantics depend on this: during a burst of
// changes the broker keeps only the last payload per topic, and
// determinism guarantees the steady state converges regardless of
// message ordering.
type Encoder struct {
	topics mqtt.Topics
}

// NewEncoder creates an encoder over the configured topic prefixes.
func NewEncoder(topics mqtt.Topics) Encoder {
	return Encoder{topics: topics}
}

// Encode returns the bus message for a change, or ok=false for changes
// with no bus encoding: keypad alarm buttons (notification-only events),
// exit delay ending (the armed or disarmed fact carries the transition)
// and alarm restore (the disarm message is the downstream signal).
func (e Encoder) Encode(c Change) (Message, bool) {
	switch c.Subject {
	case SubjectArmed:
		return Message{
			Topic:   e.topics.Partition(c.Number),
			Payload: strconv.Itoa(c.Number) + armedSuffix(c),
		}, true

	case SubjectExitDelay:
		if !c.Value {
			return Message{}, false
		}
		return Message{
			Topic:   e.topics.Partition(c.Number),
			Payload: strconv.Itoa(c.Number) + payloadExitDelay,
		}, true

	case SubjectAlarm:
		if !c.Value {
			return Message{}, false
		}
		return Message{
			Topic:   e.topics.Partition(c.Number),
			Payload: strconv.Itoa(c.Number) + payloadAlarm,
		}, true

	case SubjectFire:
		return Message{Topic: e.topics.Fire(c.Number), Payload: binary(c.Value)}, true

	case SubjectZoneOpen:
		return Message{Topic: e.topics.Zone(c.Number), Payload: binary(c.Value)}, true

	case SubjectZoneAlarm:
		return Message{Topic: e.topics.ZoneAlarm(c.Number), Payload: binary(c.Value)}, true

	case SubjectPower:
		return Message{Topic: e.topics.Power(), Payload: binary(c.Value)}, true

	case SubjectKeybus:
		return Message{Topic: e.topics.Keybus(), Payload: binary(c.Value)}, true

	default:
		return Message{}, false
	}
}

func armedSuffix(c Change) string {
	if !c.Value {
		return payloadDisarmed
	}
	if c.Mode == panel.ArmStay {
		return payloadArmedStay
	}
	return payloadArmedAway
}

func binary(v bool) string {
	if v {
		return payloadActive
	}
	return payloadRestored
}
