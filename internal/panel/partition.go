package panel

// MaxPartitions is the highest partition number the panel reports.
const MaxPartitions = 8

// ArmMode identifies how a partition was armed.
type ArmMode byte

const (
	// ArmNone means the partition is not armed.
	ArmNone ArmMode = iota

	// ArmAway means the partition is armed with interior zones active.
	ArmAway

	// ArmStay means the partition is armed with interior zones bypassed.
	ArmStay
)

func (m ArmMode) String() string {
	switch m {
	case ArmAway:
		return "away"
	case ArmStay:
		return "stay"
	default:
		return "none"
	}
}

// PartitionStatus holds the observable state of one partition.
//
// Each value field has a paired changed flag. The panel-bus decoder sets a
// changed flag exactly when the value differs from the last value the core
// observed; the change tracker clears it on consumption. The core never
// mutates the value fields.
type PartitionStatus struct {
	// Armed is true when the partition is armed (away or stay).
	Armed        bool
	ArmedMode    ArmMode
	ArmedChanged bool

	// ExitDelay is true while the exit delay is counting down.
	ExitDelay        bool
	ExitDelayChanged bool

	// Alarm is true while the partition is in alarm.
	Alarm        bool
	AlarmChanged bool

	// Fire is true while a fire condition is active on the partition.
	Fire        bool
	FireChanged bool

	// Disabled marks a partition that is not in service. Disabled
	// partitions are excluded from processing entirely.
	Disabled bool
}
