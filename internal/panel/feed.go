package panel

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

// Timeouts and buffer sizes for the interface-module feed.
const (
	// feedDialTimeout bounds a connection attempt to the module.
	feedDialTimeout = 5 * time.Second

	// feedPollDeadline is the per-Service read deadline. Service must
	// not block the run loop, so each pass drains only the data already
	// buffered on the connection.
	feedPollDeadline = time.Millisecond

	// feedWriteTimeout bounds key writes to the module.
	feedWriteTimeout = 5 * time.Second

	// feedReadChunk is the per-read buffer size.
	feedReadChunk = 512

	// maxRecordLen caps the pending-record accumulator. A record this
	// long means the stream is corrupt or the bridge fell behind; the
	// accumulator is dropped and the overflow advisory raised.
	maxRecordLen = 4096

	defaultReconnectInterval = 5 * time.Second
)

// Logger is the subset of the logging package the feed uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// FeedConfig holds interface-module connection settings.
type FeedConfig struct {
	// Address is the module's host:port.
	Address string

	// ReconnectInterval is the delay between connection attempts.
	// Default: 5s.
	ReconnectInterval time.Duration
}

// Feed is a Source fed by the Keybus interface module's status stream.
//
// The module sits on the panel bus and does the decoding (timing,
// framing, checksums); the feed consumes its observable contract: a
// stream of newline-terminated ASCII status records, one fact per line.
//
//	P<n>=<s>   partition status, s one of
//	           A armed away, S armed stay, D disarmed,
//	           P exit delay, T alarm, t alarm restored,
//	           F fire, f fire restored, X out of service
//	Z<z>=0|1   zone closed/open
//	A<z>=0|1   zone alarm restored/active
//	AC=0|1     panel AC power lost/ok
//	KB=0|1     panel bus link down/up
//	KP=F|A|P   keypad fire/auxiliary/panic button (one-shot)
//
// Key writes go the other way as "W<n>=<keys>" lines.
//
// Applying a record updates the state value and sets the paired changed
// flag exactly when the value differs from what was last delivered,
// which is the changed-flag invariant the tracker consumes. Service is
// non-blocking: each pass drains the data already buffered on the
// connection and reconnects, rate-limited, after a feed loss.
//
// Not safe for concurrent use; the run loop is the only caller.
type Feed struct {
	cfg   FeedConfig
	state State

	conn     net.Conn
	pending  []byte
	nextDial time.Time

	// dial and now are swappable for tests.
	dial func(address string) (net.Conn, error)
	now  func() time.Time

	logger Logger
}

// Ensure Feed implements Source.
var _ Source = (*Feed)(nil)

// NewFeed creates a feed for the module at cfg.Address. The connection
// is established lazily by Service.
func NewFeed(cfg FeedConfig) *Feed {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	return &Feed{
		cfg: cfg,
		dial: func(address string) (net.Conn, error) {
			return net.DialTimeout("tcp", address, feedDialTimeout)
		},
		now: time.Now,
	}
}

// SetLogger sets the logger for this feed.
func (f *Feed) SetLogger(logger Logger) {
	f.logger = logger
}

// State returns the feed-owned panel state.
func (f *Feed) State() *State {
	return &f.state
}

// Service pumps the feed: it drains buffered status records and applies
// them to the state. Returns true when at least one record was applied.
func (f *Feed) Service() bool {
	if f.conn == nil && !f.connect() {
		return false
	}

	fresh := false
	buf := make([]byte, feedReadChunk)
	for {
		if err := f.conn.SetReadDeadline(f.now().Add(feedPollDeadline)); err != nil {
			f.dropConn(err)
			return fresh
		}

		n, err := f.conn.Read(buf)
		if n > 0 && f.ingest(buf[:n]) {
			fresh = true
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// No more data buffered this pass.
			return fresh
		}
		f.dropConn(err)
		return fresh
	}
}

// WriteKey writes a key press to the panel on behalf of a partition.
// Dropped with a warning while the feed is down; the panel state topics
// will show the command had no effect.
func (f *Feed) WriteKey(partition int, keys string) {
	if f.conn == nil {
		if f.logger != nil {
			f.logger.Warn("key write dropped, feed disconnected", "partition", partition)
		}
		return
	}

	record := fmt.Sprintf("W%d=%s\n", partition, keys)
	if err := f.conn.SetWriteDeadline(f.now().Add(feedWriteTimeout)); err != nil {
		f.dropConn(err)
		return
	}
	if _, err := f.conn.Write([]byte(record)); err != nil {
		f.dropConn(err)
	}
}

// Close tears down the module connection.
func (f *Feed) Close() error {
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

// connect attempts a rate-limited connection to the module.
func (f *Feed) connect() bool {
	if f.now().Before(f.nextDial) {
		return false
	}

	conn, err := f.dial(f.cfg.Address)
	if err != nil {
		f.nextDial = f.now().Add(f.cfg.ReconnectInterval)
		if f.logger != nil {
			f.logger.Warn("panel feed connect failed", "address", f.cfg.Address, "error", err)
		}
		return false
	}

	f.conn = conn
	f.pending = f.pending[:0]
	if f.logger != nil {
		f.logger.Debug("panel feed connected", "address", f.cfg.Address)
	}
	return true
}

// dropConn closes the connection after a feed error and arms the
// reconnect gate.
func (f *Feed) dropConn(err error) {
	if f.logger != nil {
		f.logger.Warn("panel feed lost", "error", err)
	}
	f.conn.Close()
	f.conn = nil
	f.nextDial = f.now().Add(f.cfg.ReconnectInterval)
}

// ingest appends raw feed bytes and applies every complete record.
// Returns true when at least one record was applied.
func (f *Feed) ingest(data []byte) bool {
	f.pending = append(f.pending, data...)

	fresh := false
	for {
		i := bytes.IndexByte(f.pending, '\n')
		if i < 0 {
			break
		}
		record := bytes.TrimSpace(f.pending[:i])
		f.pending = f.pending[i+1:]
		if len(record) == 0 {
			continue
		}
		if f.apply(record) {
			fresh = true
		}
	}

	if len(f.pending) > maxRecordLen {
		// Corrupt stream or the bridge fell behind; whatever was in
		// flight is unrecoverable.
		f.pending = f.pending[:0]
		f.state.BufferOverflow = true
	}
	return fresh
}

// apply parses one record and updates the state. Unknown records are
// logged and skipped; the module may be newer than the bridge.
func (f *Feed) apply(record []byte) bool {
	key, value, found := bytes.Cut(record, []byte{'='})
	if !found || len(key) < 2 || len(value) != 1 {
		f.skip(record)
		return false
	}

	switch {
	case key[0] == 'P' && isDigits(key[1:]):
		return f.applyPartition(parseNumber(key[1:]), value[0])
	case key[0] == 'Z' && isDigits(key[1:]):
		return applyZone(&f.state.OpenZones, &f.state.OpenZonesChanged, parseNumber(key[1:]), value[0])
	case bytes.Equal(key, []byte("AC")):
		return f.applyPower(value[0])
	case key[0] == 'A' && isDigits(key[1:]):
		return applyZone(&f.state.AlarmZones, &f.state.AlarmZonesChanged, parseNumber(key[1:]), value[0])
	case bytes.Equal(key, []byte("KB")):
		return f.applyKeybus(value[0])
	case bytes.Equal(key, []byte("KP")):
		return f.applyKeypad(value[0])
	default:
		f.skip(record)
		return false
	}
}

func (f *Feed) applyPartition(n int, status byte) bool {
	p := f.state.Partition(n)
	if p == nil {
		return false
	}

	switch status {
	case 'A', 'S':
		mode := ArmAway
		if status == 'S' {
			mode = ArmStay
		}
		if !p.Armed || p.ArmedMode != mode {
			p.Armed = true
			p.ArmedMode = mode
			p.ArmedChanged = true
		}
		f.endExitDelay(p)
		p.Disabled = false

	case 'D':
		if p.Armed {
			p.Armed = false
			p.ArmedMode = ArmNone
			p.ArmedChanged = true
		}
		f.endExitDelay(p)
		p.Disabled = false

	case 'P':
		if !p.ExitDelay {
			p.ExitDelay = true
			p.ExitDelayChanged = true
		}
		p.Disabled = false

	case 'T':
		if !p.Alarm {
			p.Alarm = true
			p.AlarmChanged = true
		}

	case 't':
		if p.Alarm {
			p.Alarm = false
			p.AlarmChanged = true
		}

	case 'F':
		if !p.Fire {
			p.Fire = true
			p.FireChanged = true
		}

	case 'f':
		if p.Fire {
			p.Fire = false
			p.FireChanged = true
		}

	case 'X':
		p.Disabled = true

	default:
		return false
	}
	return true
}

func (f *Feed) endExitDelay(p *PartitionStatus) {
	if p.ExitDelay {
		p.ExitDelay = false
		p.ExitDelayChanged = true
	}
}

func applyZone(state, changed *Bitfield, zone int, value byte) bool {
	if zone < 1 || zone > MaxZones || (value != '0' && value != '1') {
		return false
	}
	open := value == '1'
	if state.Get(zone) == open {
		return false
	}
	if open {
		state.Set(zone)
	} else {
		state.Clear(zone)
	}
	changed.Set(zone)
	return true
}

func (f *Feed) applyPower(value byte) bool {
	if value != '0' && value != '1' {
		return false
	}
	// The feed reports AC presence; PowerTrouble is the inverse.
	trouble := value == '0'
	if f.state.PowerTrouble != trouble {
		f.state.PowerTrouble = trouble
		f.state.PowerChanged = true
	}
	return true
}

func (f *Feed) applyKeybus(value byte) bool {
	if value != '0' && value != '1' {
		return false
	}
	up := value == '1'
	if f.state.KeybusConnected != up {
		f.state.KeybusConnected = up
		f.state.KeybusChanged = true
	}
	return true
}

func (f *Feed) applyKeypad(value byte) bool {
	switch value {
	case 'F':
		f.state.KeypadFireAlarm = true
	case 'A':
		f.state.KeypadAuxAlarm = true
	case 'P':
		f.state.KeypadPanicAlarm = true
	default:
		return false
	}
	return true
}

func (f *Feed) skip(record []byte) {
	if f.logger != nil {
		f.logger.Debug("unrecognised feed record", "record", string(record))
	}
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseNumber(b []byte) int {
	n := 0
	for _, c := range b {
		n = n*10 + int(c-'0')
	}
	return n
}
