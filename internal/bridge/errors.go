package bridge

import "errors"

// Bridge errors. These are sentinel errors that can be checked with errors.Is().
var (
	// ErrBufferOverflow indicates the panel-bus decoder fell behind and
	// dropped data. Advisory: the data is already lost upstream, so it is
	// logged and processing continues.
	ErrBufferOverflow = errors.New("panel buffer overflow")

	// ErrInvalidCommand indicates an inbound command payload that does
	// not parse as "<partition><action>".
	ErrInvalidCommand = errors.New("invalid command payload")

	// ErrPartitionOutOfRange indicates a command addressed a partition
	// number above the configured partition count. The command is a
	// no-op.
	ErrPartitionOutOfRange = errors.New("partition out of range")

	// ErrCommandQueueFull indicates the inbound command queue is full
	// and the command was dropped.
	ErrCommandQueueFull = errors.New("command queue full")
)
