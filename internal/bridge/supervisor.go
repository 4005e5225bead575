package bridge

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnState is the supervisor's view of the bus link.
type ConnState int

const (
	// Disconnected means the link is down and a retry is pending.
	Disconnected ConnState = iota

	// Connecting means a connection attempt is in flight.
	Connecting

	// Connected means the link is up and dispatch may proceed.
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Connector is the transport surface the supervisor drives. Satisfied by
// the mqtt client.
type Connector interface {
	// IsConnected reports current link health.
	IsConnected() bool

	// Reconnect attempts to re-establish the link. Blocking, bounded by
	// the transport's own connect timeout.
	Reconnect() error
}

// Supervisor tracks bus-link health and owns the reconnection policy.
//
// The transport's own auto-reconnect is disabled so that every successful
// transition into Connected (the first connection included) is paired
// with a full state resync: the callback marks every tracked fact
// changed, and the next tracker pass republishes complete current state.
// The bus retains only the last value per topic, so this is the sole
// recovery path for anything missed during an outage.
//
// The retry gate never blocks: Tick compares against a monotonic clock
// and attempts a reconnect only after the policy interval has elapsed.
// The default policy is a fixed interval; a deployment may raise it in
// configuration but the contract only requires that attempts are spaced,
// not that they grow.
type Supervisor struct {
	conn        Connector
	state       ConnState
	policy      backoff.BackOff
	nextAttempt time.Time

	// onConnected runs on every transition into Connected.
	onConnected func()

	// now is swappable for tests.
	now func() time.Time

	logger Logger
}

// Logger is the subset of the logging package the bridge components use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewSupervisor creates a supervisor over conn retrying at the fixed
// interval. onConnected is invoked on every transition into Connected
// and must trigger the state resync.
func NewSupervisor(conn Connector, retryInterval time.Duration, onConnected func(), logger Logger) *Supervisor {
	return &Supervisor{
		conn:        conn,
		state:       Disconnected,
		policy:      backoff.NewConstantBackOff(retryInterval),
		onConnected: onConnected,
		now:         time.Now,
		logger:      logger,
	}
}

// State returns the current link state.
func (s *Supervisor) State() ConnState {
	return s.state
}

// Tick advances the supervisor one run-loop cycle and reports whether
// dispatch may proceed this cycle.
//
// While the transport reports healthy, Tick does no polling of its own.
// On observed link loss it transitions to Disconnected and arms the
// retry gate; while down it attempts one reconnect per elapsed policy
// interval, never blocking between attempts.
func (s *Supervisor) Tick() bool {
	if s.conn.IsConnected() {
		if s.state != Connected {
			s.becomeConnected()
		}
		return true
	}

	if s.state == Connected {
		s.state = Disconnected
		s.policy.Reset()
		s.nextAttempt = s.now().Add(s.policy.NextBackOff())
		if s.logger != nil {
			s.logger.Warn("bus link lost, retrying", "next_attempt", s.nextAttempt)
		}
		return false
	}

	if s.now().Before(s.nextAttempt) {
		return false
	}

	s.state = Connecting
	if err := s.conn.Reconnect(); err != nil {
		s.state = Disconnected
		s.nextAttempt = s.now().Add(s.policy.NextBackOff())
		if s.logger != nil {
			s.logger.Debug("bus reconnect failed", "error", err)
		}
		return false
	}

	s.becomeConnected()
	return true
}

func (s *Supervisor) becomeConnected() {
	s.state = Connected
	s.policy.Reset()
	if s.logger != nil {
		s.logger.Info("bus link established, resyncing state")
	}
	if s.onConnected != nil {
		s.onConnected()
	}
}
