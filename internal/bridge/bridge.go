package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/mqtt"
	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

const (
	// loopInterval is the run-loop cadence. The panel source buffers bus
	// data between cycles, so this only has to stay well under the
	// decoder's buffer horizon.
	loopInterval = 10 * time.Millisecond

	// commandQueueSize bounds inbound commands pending between cycles.
	// Commands arrive on the transport's handler goroutine and are
	// consumed by the run loop; the queue is small because commands are
	// human-initiated.
	commandQueueSize = 8
)

// Publisher is the bus transport surface the bridge dispatches on.
// Satisfied by the mqtt client.
type Publisher interface {
	PublishString(topic, payload string, qos byte, retained bool) error
	EnsureSubscribed(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Telemetry is the optional event-telemetry sink. Satisfied by the
// influxdb client.
type Telemetry interface {
	WritePanelEvent(subject string, number int, value bool)
}

// Options wires the bridge's collaborators. Source, Publisher and
// Connector are required; Notifier, Journal and Telemetry are optional.
type Options struct {
	Source    panel.Source
	Publisher Publisher
	Connector Connector
	Notifier  Notifier
	Journal   *Journal
	Telemetry Telemetry

	Topics        mqtt.Topics
	QoS           byte
	Partitions    int
	AccessCode    string
	NotifyPrefix  string
	RetryInterval time.Duration

	Logger Logger
}

// Bridge is the single-threaded run loop tying the panel source to the
// outbound transports.
//
// One cycle runs, in fixed order: service the panel source, advance the
// connection supervisor, ensure the command subscription, apply queued
// commands against the current state snapshot, then scan for changes and
// dispatch each one completely (bus publish, notification, journal,
// telemetry) before the next. All panel state is touched only from this
// loop; the transport's handler goroutine crosses over solely through
// the buffered command queue.
type Bridge struct {
	source        panel.Source
	tracker       *Tracker
	encoder       Encoder
	supervisor    *Supervisor
	publisher     Publisher
	commands      *Commands
	notifications *Notifications
	journal       *Journal
	telemetry     Telemetry

	topics mqtt.Topics
	qos    byte

	commandCh chan Command

	logger Logger
}

// New assembles a bridge from its collaborators.
func New(opts Options) *Bridge {
	b := &Bridge{
		source:        opts.Source,
		tracker:       NewTracker(opts.Partitions),
		encoder:       NewEncoder(opts.Topics),
		publisher:     opts.Publisher,
		commands:      NewCommands(opts.Source, opts.Partitions, opts.AccessCode, opts.Logger),
		notifications: NewNotifications(opts.Notifier, opts.NotifyPrefix, opts.Logger),
		journal:       opts.Journal,
		telemetry:     opts.Telemetry,
		topics:        opts.Topics,
		qos:           opts.QoS,
		commandCh:     make(chan Command, commandQueueSize),
		logger:        opts.Logger,
	}

	b.supervisor = NewSupervisor(opts.Connector, opts.RetryInterval, func() {
		// Resync: mark every tracked fact changed so the next scan
		// republishes complete current state.
		opts.Source.State().MarkAllChanged()
	}, opts.Logger)

	return b
}

// Run drives the loop until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Cycle()
		}
	}
}

// Cycle runs one pass of the loop. Exported so tests can drive the loop
// deterministically.
func (b *Bridge) Cycle() {
	b.source.Service()

	connected := b.supervisor.Tick()
	if connected {
		err := b.publisher.EnsureSubscribed(b.topics.Command(), b.qos, b.handleCommandMessage)
		if err != nil && !errors.Is(err, mqtt.ErrNotConnected) && b.logger != nil {
			b.logger.Warn("command subscription failed", "error", err)
		}
	}

	b.applyQueuedCommands()

	changes, overflow := b.tracker.Scan(b.source.State())
	if overflow && b.logger != nil {
		// Advisory: the dropped data is already lost upstream and is
		// not retried.
		b.logger.Warn("panel decoder dropped data", "error", ErrBufferOverflow)
	}

	for _, c := range changes {
		b.dispatch(c)
	}
}

// dispatch delivers one change everywhere it goes. The changed flag was
// already cleared by the tracker; delivery failures here are absorbed and
// the reconnect resync is the recovery path for lost bus messages.
func (b *Bridge) dispatch(c Change) {
	if msg, ok := b.encoder.Encode(c); ok {
		if err := b.publisher.PublishString(msg.Topic, msg.Payload, b.qos, true); err != nil {
			if b.logger != nil {
				b.logger.Debug("bus publish dropped",
					"topic", msg.Topic,
					"payload", msg.Payload,
					"error", err,
				)
			}
		}
	}

	b.notifications.Dispatch(c)

	if b.journal != nil {
		if err := b.journal.Record(c); err != nil && b.logger != nil {
			b.logger.Warn("journal write failed", "error", err)
		}
	}

	if b.telemetry != nil {
		b.telemetry.WritePanelEvent(c.Subject.String(), c.Number, c.Value)
	}
}

// handleCommandMessage runs on the transport's handler goroutine: parse
// and enqueue only, so panel state stays owned by the run loop.
func (b *Bridge) handleCommandMessage(_ string, payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}

	select {
	case b.commandCh <- cmd:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// applyQueuedCommands applies every pending command against the current
// state snapshot. Redelivery of the same command within one pass is
// applied once: the panel cannot have acted on the first write yet, so
// the snapshot re-check alone would not catch the duplicate.
func (b *Bridge) applyQueuedCommands() {
	var applied map[Command]struct{}
	for {
		select {
		case cmd := <-b.commandCh:
			if _, dup := applied[cmd]; dup {
				continue
			}
			if applied == nil {
				applied = make(map[Command]struct{})
			}
			applied[cmd] = struct{}{}

			if err := b.commands.Apply(cmd); err != nil && b.logger != nil {
				b.logger.Warn("command rejected", "error", err)
			}
		default:
			return
		}
	}
}
