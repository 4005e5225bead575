package bridge

import (
	"errors"
	"testing"
	"time"
)

type mockConnector struct {
	connected    bool
	reconnectErr error
	attempts     int
}

func (m *mockConnector) IsConnected() bool {
	return m.connected
}

func (m *mockConnector) Reconnect() error {
	m.attempts++
	if m.reconnectErr != nil {
		return m.reconnectErr
	}
	m.connected = true
	return nil
}

// fakeClock drives Supervisor.now in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSupervisor(conn *mockConnector, resyncs *int) (*Supervisor, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s := NewSupervisor(conn, 5*time.Second, func() { *resyncs++ }, nil)
	s.now = clock.now
	return s, clock
}

func TestSupervisorFirstConnectionTriggersResync(t *testing.T) {
	resyncs := 0
	conn := &mockConnector{connected: true}
	s, _ := newTestSupervisor(conn, &resyncs)

	if !s.Tick() {
		t.Fatal("Tick() = false with healthy connection")
	}
	if s.State() != Connected {
		t.Errorf("State() = %v, want Connected", s.State())
	}
	if resyncs != 1 {
		t.Errorf("resyncs = %d, want 1 (first connection included)", resyncs)
	}

	// Staying connected does not resync again.
	s.Tick()
	s.Tick()
	if resyncs != 1 {
		t.Errorf("resyncs = %d after steady ticks, want 1", resyncs)
	}
}

func TestSupervisorRetryInterval(t *testing.T) {
	resyncs := 0
	conn := &mockConnector{connected: false, reconnectErr: errors.New("broker down")}
	s, clock := newTestSupervisor(conn, &resyncs)

	// First tick attempts immediately (nothing tried yet).
	if s.Tick() {
		t.Fatal("Tick() = true while broker is down")
	}
	if conn.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", conn.attempts)
	}

	// Within the interval: no further attempts, never blocking.
	clock.advance(2 * time.Second)
	s.Tick()
	s.Tick()
	if conn.attempts != 1 {
		t.Errorf("attempts = %d before interval elapsed, want 1", conn.attempts)
	}

	// Past the interval: exactly one more attempt.
	clock.advance(4 * time.Second)
	s.Tick()
	if conn.attempts != 2 {
		t.Errorf("attempts = %d after interval elapsed, want 2", conn.attempts)
	}

	if resyncs != 0 {
		t.Errorf("resyncs = %d with no successful connection, want 0", resyncs)
	}
}

func TestSupervisorReconnectResyncExactlyOnce(t *testing.T) {
	resyncs := 0
	conn := &mockConnector{connected: true}
	s, clock := newTestSupervisor(conn, &resyncs)

	s.Tick()
	if resyncs != 1 {
		t.Fatalf("resyncs = %d after initial connection, want 1", resyncs)
	}

	// Link drops: one tick observes the loss, later ticks retry.
	conn.connected = false
	if s.Tick() {
		t.Fatal("Tick() = true after link loss")
	}
	if s.State() != Disconnected {
		t.Errorf("State() = %v after link loss, want Disconnected", s.State())
	}

	clock.advance(6 * time.Second)
	if !s.Tick() {
		t.Fatal("Tick() = false after successful reconnect")
	}
	if resyncs != 2 {
		t.Errorf("resyncs = %d after reconnect, want exactly 2", resyncs)
	}

	// Steady state again: no further resyncs.
	s.Tick()
	if resyncs != 2 {
		t.Errorf("resyncs = %d in steady state, want 2", resyncs)
	}
}

func TestSupervisorLossArmsRetryGate(t *testing.T) {
	resyncs := 0
	conn := &mockConnector{connected: true}
	s, clock := newTestSupervisor(conn, &resyncs)
	s.Tick()

	conn.connected = false
	conn.reconnectErr = errors.New("broker down")
	s.Tick() // observes loss, no attempt yet

	// Immediately after loss the gate holds.
	s.Tick()
	if conn.attempts != 0 {
		t.Errorf("attempts = %d immediately after loss, want 0", conn.attempts)
	}

	clock.advance(6 * time.Second)
	s.Tick()
	if conn.attempts != 1 {
		t.Errorf("attempts = %d after interval, want 1", conn.attempts)
	}
}
