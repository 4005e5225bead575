package mqtt

import (
	"fmt"

	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/config"
)

// Topics provides builders for the bridge's MQTT topics.
//
// Partition and zone numbers are appended to the configured prefixes in
// decimal, 1-based. Using these helpers keeps topic naming consistent
// between the publisher and the tests:
//
//	topics := mqtt.NewTopics(cfg.Topics)
//	topics.Partition(1) // "dsc/Get/Partition1"
//	topics.Zone(5)      // "dsc/Get/Zone5"
type Topics struct {
	cfg config.TopicsConfig
}

// NewTopics creates a Topics builder from the configured prefixes.
func NewTopics(cfg config.TopicsConfig) Topics {
	return Topics{cfg: cfg}
}

// Partition returns the state topic for a partition.
//
// Example: dsc/Get/Partition1
func (t Topics) Partition(n int) string {
	return fmt.Sprintf("%s%d", t.cfg.Partition, n)
}

// Zone returns the open/closed topic for a zone.
//
// Example: dsc/Get/Zone5
func (t Topics) Zone(n int) string {
	return fmt.Sprintf("%s%d", t.cfg.Zone, n)
}

// ZoneAlarm returns the alarming/restored topic for a zone.
//
// Example: dsc/Get/ZoneAlarm5
func (t Topics) ZoneAlarm(n int) string {
	return fmt.Sprintf("%s%d", t.cfg.ZoneAlarm, n)
}

// Fire returns the fire-state topic for a partition.
//
// Example: dsc/Get/Fire1
func (t Topics) Fire(n int) string {
	return fmt.Sprintf("%s%d", t.cfg.Fire, n)
}

// Power returns the panel AC power trouble topic.
//
// Example: dsc/Get/Power
func (t Topics) Power() string {
	return t.cfg.Power
}

// Keybus returns the panel bus link status topic.
//
// Example: dsc/Get/Keybus
func (t Topics) Keybus() string {
	return t.cfg.Keybus
}

// Command returns the inbound arm/disarm command topic.
//
// Example: dsc/Set
func (t Topics) Command() string {
	return t.cfg.Command
}

// Availability returns the retained online/offline status topic.
//
// Example: dsc/Status
func (t Topics) Availability() string {
	return t.cfg.Availability
}
