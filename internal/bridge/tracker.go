package bridge

import (
	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

// Subject identifies which panel fact a Change describes.
type Subject int

const (
	// SubjectArmed covers arming and disarming of a partition. Value
	// true means armed (Mode carries away/stay), false means disarmed.
	SubjectArmed Subject = iota

	// SubjectExitDelay is the exit-delay countdown on a partition.
	SubjectExitDelay

	// SubjectAlarm is a partition alarm. Value false is the restore.
	SubjectAlarm

	// SubjectFire is a partition fire condition.
	SubjectFire

	// SubjectZoneOpen is a zone opening or closing.
	SubjectZoneOpen

	// SubjectZoneAlarm is a zone entering or leaving alarm.
	SubjectZoneAlarm

	// SubjectPower is the panel AC power trouble condition.
	SubjectPower

	// SubjectKeybus is the panel bus link status.
	SubjectKeybus

	// Keypad alarm buttons are one-shot events, not state.
	SubjectKeypadFire
	SubjectKeypadAux
	SubjectKeypadPanic
)

func (s Subject) String() string {
	switch s {
	case SubjectArmed:
		return "armed"
	case SubjectExitDelay:
		return "exit_delay"
	case SubjectAlarm:
		return "alarm"
	case SubjectFire:
		return "fire"
	case SubjectZoneOpen:
		return "zone_open"
	case SubjectZoneAlarm:
		return "zone_alarm"
	case SubjectPower:
		return "power"
	case SubjectKeybus:
		return "keybus"
	case SubjectKeypadFire:
		return "keypad_fire"
	case SubjectKeypadAux:
		return "keypad_aux"
	case SubjectKeypadPanic:
		return "keypad_panic"
	default:
		return "unknown"
	}
}

// Change is one consumed panel fact: the subject, the 1-based partition
// or zone number it applies to (0 for panel-wide subjects), and the new
// value. Mode is meaningful only for SubjectArmed with Value true.
type Change struct {
	Subject Subject
	Number  int
	Value   bool
	Mode    panel.ArmMode
}

// Tracker consumes one-shot changed flags from the panel state and turns
// them into Change events.
//
// Consumption is edge-triggered and clears each flag exactly once: a flag
// is cleared before its Change is appended, so re-entering Scan cannot
// yield the same transition twice. Scan order is fixed: partitions 1..N
// (armed, exit delay, alarm, fire), open zones 1..64, alarm zones 1..64,
// then power, bus link, and the keypad alarm buttons. Zone order is
// group-ascending then bit-ascending.
type Tracker struct {
	// partitions is the configured number of partitions in service.
	partitions int
}

// NewTracker creates a tracker scanning partitions 1..partitions.
func NewTracker(partitions int) *Tracker {
	if partitions < 1 || partitions > panel.MaxPartitions {
		partitions = panel.MaxPartitions
	}
	return &Tracker{partitions: partitions}
}

// Scan consumes every set changed flag and returns the resulting Changes
// in scan order. The second return is the buffer-overflow advisory: true
// when the decoder reported dropped data since the last scan. Overflow is
// not a Change; the lost data cannot be retried.
func (t *Tracker) Scan(s *panel.State) ([]Change, bool) {
	var changes []Change

	for n := 1; n <= t.partitions; n++ {
		p := s.Partition(n)
		if p == nil || p.Disabled {
			// Disabled partitions are skipped entirely: no flags are
			// read or cleared for them.
			continue
		}
		changes = t.scanPartition(n, p, changes)
	}

	changes = scanZones(&s.OpenZones, &s.OpenZonesChanged, SubjectZoneOpen, changes)
	changes = scanZones(&s.AlarmZones, &s.AlarmZonesChanged, SubjectZoneAlarm, changes)

	if s.PowerChanged {
		s.PowerChanged = false
		changes = append(changes, Change{Subject: SubjectPower, Value: s.PowerTrouble})
	}
	if s.KeybusChanged {
		s.KeybusChanged = false
		changes = append(changes, Change{Subject: SubjectKeybus, Value: s.KeybusConnected})
	}

	if s.KeypadFireAlarm {
		s.KeypadFireAlarm = false
		changes = append(changes, Change{Subject: SubjectKeypadFire, Value: true})
	}
	if s.KeypadAuxAlarm {
		s.KeypadAuxAlarm = false
		changes = append(changes, Change{Subject: SubjectKeypadAux, Value: true})
	}
	if s.KeypadPanicAlarm {
		s.KeypadPanicAlarm = false
		changes = append(changes, Change{Subject: SubjectKeypadPanic, Value: true})
	}

	overflow := s.BufferOverflow
	s.BufferOverflow = false

	return changes, overflow
}

// scanPartition consumes the per-partition flags in fixed order.
func (t *Tracker) scanPartition(n int, p *panel.PartitionStatus, changes []Change) []Change {
	armedEmitted := false
	if p.ArmedChanged {
		p.ArmedChanged = false
		armedEmitted = true
		changes = append(changes, Change{
			Subject: SubjectArmed,
			Number:  n,
			Value:   p.Armed,
			Mode:    p.ArmedMode,
		})
	}

	if p.ExitDelayChanged {
		p.ExitDelayChanged = false
		switch {
		case p.ExitDelay:
			changes = append(changes, Change{Subject: SubjectExitDelay, Number: n, Value: true})
		case !p.Armed && !armedEmitted:
			// Exit delay ended without the partition arming. Exit-delay
			// completion is not evidence of arming, so the partition is
			// reported disarmed. Skipped when the armed fact already
			// emitted this pass (a resync carries both flags).
			changes = append(changes, Change{Subject: SubjectArmed, Number: n, Value: false})
		}
		// Exit delay ending because the partition armed produces no
		// event of its own; the armed flag carries that transition.
	}

	if p.AlarmChanged {
		p.AlarmChanged = false
		changes = append(changes, Change{Subject: SubjectAlarm, Number: n, Value: p.Alarm})
	}

	if p.FireChanged {
		p.FireChanged = false
		changes = append(changes, Change{Subject: SubjectFire, Number: n, Value: p.Fire})
	}

	return changes
}

// scanZones consumes one changed bitfield against its state bitfield,
// zones 1..64 in order.
func scanZones(state, changed *panel.Bitfield, subject Subject, changes []Change) []Change {
	if !changed.Any() {
		return changes
	}
	for zone := 1; zone <= panel.MaxZones; zone++ {
		if !changed.Get(zone) {
			continue
		}
		changed.Clear(zone)
		changes = append(changes, Change{
			Subject: subject,
			Number:  zone,
			Value:   state.Get(zone),
		})
	}
	return changes
}
