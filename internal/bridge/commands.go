package bridge

import (
	"bytes"
	"fmt"

	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

// Panel key writes for arming. Disarm writes the configured access code.
const (
	keyArmStay = "s"
	keyArmAway = "w"
)

// Action is an inbound bus command verb.
type Action byte

const (
	ActionArmStay Action = 'S'
	ActionArmAway Action = 'A'
	ActionDisarm  Action = 'D'
)

func (a Action) String() string {
	switch a {
	case ActionArmStay:
		return "arm_stay"
	case ActionArmAway:
		return "arm_away"
	case ActionDisarm:
		return "disarm"
	default:
		return "unknown"
	}
}

// Command is one parsed arm/disarm request from the command topic.
type Command struct {
	// Partition is the 1-based target partition.
	Partition int
	Action    Action
}

// ParseCommand parses a command payload of the form "<N><action>".
//
// The partition digit is optional and defaults to partition 1, so both
// "1D" and "D" disarm partition 1. Only the panel's partition range 1..8
// parses; whether the partition is actually in service is checked at
// apply time against configuration.
func ParseCommand(payload []byte) (Command, error) {
	p := bytes.TrimSpace(payload)
	if len(p) == 0 {
		return Command{}, fmt.Errorf("%w: empty payload", ErrInvalidCommand)
	}

	cmd := Command{Partition: 1}
	if p[0] >= '1' && p[0] <= '0'+panel.MaxPartitions {
		cmd.Partition = int(p[0] - '0')
		p = p[1:]
		if len(p) == 0 {
			return Command{}, fmt.Errorf("%w: missing action", ErrInvalidCommand)
		}
	}

	switch Action(p[0]) {
	case ActionArmStay, ActionArmAway, ActionDisarm:
		cmd.Action = Action(p[0])
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, p[0])
	}

	if len(p) > 1 {
		return Command{}, fmt.Errorf("%w: trailing data %q", ErrInvalidCommand, p[1:])
	}

	return cmd, nil
}

// Commands applies parsed commands against the panel through key writes.
//
// Commands are applied synchronously against the state snapshot at the
// time of application, with no queuing of pending transitions: an arm is
// accepted only while the partition is neither armed nor in exit delay,
// a disarm only while it is one of the two. A command that does not fit
// the snapshot is ignored: the panel is the authority on state, and
// redelivery of the same command within one loop pass cannot double-write
// because the snapshot is re-checked on each application.
type Commands struct {
	source     panel.Source
	partitions int
	accessCode string
	logger     Logger
}

// NewCommands creates a command applier for partitions 1..partitions.
func NewCommands(source panel.Source, partitions int, accessCode string, logger Logger) *Commands {
	return &Commands{
		source:     source,
		partitions: partitions,
		accessCode: accessCode,
		logger:     logger,
	}
}

// Apply executes one command against the current panel state.
//
// A partition number above the configured count is a no-op and returns
// ErrPartitionOutOfRange. Commands that do not fit the current state
// snapshot are silently ignored (nil error): the requested state is
// either already reached or unreachable, and the panel reports the
// authoritative outcome on the status topics.
func (c *Commands) Apply(cmd Command) error {
	if cmd.Partition < 1 || cmd.Partition > c.partitions {
		return fmt.Errorf("%w: partition %d, %d configured", ErrPartitionOutOfRange, cmd.Partition, c.partitions)
	}

	p := c.source.State().Partition(cmd.Partition)
	if p == nil || p.Disabled {
		return fmt.Errorf("%w: partition %d not in service", ErrPartitionOutOfRange, cmd.Partition)
	}

	switch cmd.Action {
	case ActionArmStay, ActionArmAway:
		if p.Armed || p.ExitDelay {
			c.debug("arm ignored, partition already armed or arming", cmd)
			return nil
		}
		key := keyArmAway
		if cmd.Action == ActionArmStay {
			key = keyArmStay
		}
		c.source.WriteKey(cmd.Partition, key)

	case ActionDisarm:
		if !p.Armed && !p.ExitDelay {
			c.debug("disarm ignored, partition not armed", cmd)
			return nil
		}
		c.source.WriteKey(cmd.Partition, c.accessCode)

	default:
		return fmt.Errorf("%w: action %q", ErrInvalidCommand, byte(cmd.Action))
	}

	if c.logger != nil {
		c.logger.Info("command applied",
			"partition", cmd.Partition,
			"action", cmd.Action.String(),
		)
	}
	return nil
}

func (c *Commands) debug(msg string, cmd Command) {
	if c.logger != nil {
		c.logger.Debug(msg, "partition", cmd.Partition, "action", cmd.Action.String())
	}
}
