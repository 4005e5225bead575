package panel

// State is the complete observable panel state produced by the panel-bus
// decoder. The decoder owns it and mutates the value fields; the core
// reads values and clears changed flags, never the reverse. It persists
// for the process lifetime.
type State struct {
	// Partitions holds per-partition status, indexed 0..7 for
	// partitions 1..8.
	Partitions [MaxPartitions]PartitionStatus

	// OpenZones tracks open (1) vs closed (0) per zone, with a parallel
	// changed bitfield consumed exactly once per transition.
	OpenZones        Bitfield
	OpenZonesChanged Bitfield

	// AlarmZones tracks alarming (1) vs restored (0) per zone.
	AlarmZones        Bitfield
	AlarmZonesChanged Bitfield

	// PowerTrouble is true while the panel reports an AC power trouble
	// condition.
	PowerTrouble bool
	PowerChanged bool

	// KeybusConnected reflects the panel bus link status.
	KeybusConnected bool
	KeybusChanged   bool

	// Keypad alarm buttons are one-shot: the decoder sets them when the
	// key sequence is pressed and the tracker clears them on consumption.
	KeypadFireAlarm  bool
	KeypadAuxAlarm   bool
	KeypadPanicAlarm bool

	// BufferOverflow is set when the decoder fell behind and dropped
	// panel data. Advisory: the data is already lost upstream.
	BufferOverflow bool
}

// MarkAllChanged sets every changed flag so the next tracker pass
// republishes complete current state. Called by the connection supervisor
// on every successful (re)connection: the bus retains only the last value
// per topic, so anything missed during an outage is unrecoverable except
// through a full resync.
//
// Disabled partitions and the one-shot keypad buttons are not marked:
// disabled partitions are excluded from processing, and the keypad buttons
// are events, not state.
func (s *State) MarkAllChanged() {
	for i := range s.Partitions {
		if s.Partitions[i].Disabled {
			continue
		}
		s.Partitions[i].ArmedChanged = true
		s.Partitions[i].ExitDelayChanged = true
		s.Partitions[i].AlarmChanged = true
		s.Partitions[i].FireChanged = true
	}
	s.OpenZonesChanged.SetAll()
	s.AlarmZonesChanged.SetAll()
	s.PowerChanged = true
	s.KeybusChanged = true
}

// Partition returns the status for a 1-based partition number, or nil if
// the number is out of range.
func (s *State) Partition(n int) *PartitionStatus {
	if n < 1 || n > MaxPartitions {
		return nil
	}
	return &s.Partitions[n-1]
}
