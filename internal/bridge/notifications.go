package bridge

import (
	"strconv"

	"github.com/ColinNg/dscKeybusInterface/internal/notify"
)

// Notifier is the push/SMS transport surface. Satisfied by notify.Client.
type Notifier interface {
	Send(prefix, message string) (notify.Result, error)
}

// Notifications maps alarm-grade changes to one-shot push/SMS messages.
//
// Only life-safety facts notify: partition alarms, fire conditions, the
// keypad alarm buttons and AC power trouble. Routine arming, zone and
// bus-link traffic stays on the bus. Sends are transient: a failed
// delivery is logged and not retried, because by the time a retry could
// land the condition has usually moved on and the bus topics carry the
// current truth.
type Notifications struct {
	client Notifier
	prefix string
	logger Logger
}

// NewNotifications creates a notification dispatcher. A nil client
// disables notifications entirely.
func NewNotifications(client Notifier, prefix string, logger Logger) *Notifications {
	return &Notifications{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Dispatch sends the notification for a change, if the change warrants
// one. Failures are logged and absorbed.
func (n *Notifications) Dispatch(c Change) {
	if n.client == nil {
		return
	}

	message, ok := messageFor(c)
	if !ok {
		return
	}

	result, err := n.client.Send(n.prefix, message)
	if n.logger == nil {
		return
	}
	if err != nil {
		n.logger.Warn("notification not delivered",
			"message", message,
			"result", result.String(),
			"error", err,
		)
		return
	}
	n.logger.Info("notification delivered", "message", message)
}

// messageFor returns the notification text for a change, or ok=false for
// changes that do not notify.
func messageFor(c Change) (string, bool) {
	switch c.Subject {
	case SubjectAlarm:
		if c.Value {
			return "Partition " + strconv.Itoa(c.Number) + " in alarm", true
		}
		return "Partition " + strconv.Itoa(c.Number) + " OK", true

	case SubjectFire:
		if c.Value {
			return "Fire alarm: Partition " + strconv.Itoa(c.Number), true
		}
		return "Fire alarm restored: Partition " + strconv.Itoa(c.Number), true

	case SubjectKeypadFire:
		return "Keypad fire alarm", true

	case SubjectKeypadAux:
		return "Keypad auxiliary alarm", true

	case SubjectKeypadPanic:
		return "Keypad panic alarm", true

	case SubjectPower:
		if c.Value {
			return "Panel AC power trouble", true
		}
		return "Panel AC power restored", true

	default:
		return "", false
	}
}
