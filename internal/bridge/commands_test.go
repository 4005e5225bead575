package bridge

import (
	"errors"
	"testing"

	"github.com/ColinNg/dscKeybusInterface/internal/panel"
)

type keyWrite struct {
	partition int
	keys      string
}

// mockSource is a scriptable panel-bus decoder.
type mockSource struct {
	state        panel.State
	writes       []keyWrite
	serviceCalls int
}

func (m *mockSource) Service() bool {
	m.serviceCalls++
	return true
}

func (m *mockSource) State() *panel.State {
	return &m.state
}

func (m *mockSource) WriteKey(partition int, keys string) {
	m.writes = append(m.writes, keyWrite{partition: partition, keys: keys})
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantErr bool
	}{
		{name: "arm away partition 1", payload: "1A", want: Command{Partition: 1, Action: ActionArmAway}},
		{name: "arm stay partition 2", payload: "2S", want: Command{Partition: 2, Action: ActionArmStay}},
		{name: "disarm partition 8", payload: "8D", want: Command{Partition: 8, Action: ActionDisarm}},
		{name: "partition digit optional", payload: "D", want: Command{Partition: 1, Action: ActionDisarm}},
		{name: "bare arm away", payload: "A", want: Command{Partition: 1, Action: ActionArmAway}},
		{name: "surrounding whitespace", payload: " 1A\n", want: Command{Partition: 1, Action: ActionArmAway}},
		{name: "empty", payload: "", wantErr: true},
		{name: "digit only", payload: "3", wantErr: true},
		{name: "unknown action", payload: "1X", wantErr: true},
		{name: "partition zero", payload: "0A", wantErr: true},
		{name: "trailing data", payload: "1AD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.payload))

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCommand) {
					t.Errorf("ParseCommand(%q) error = %v, want ErrInvalidCommand", tt.payload, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q) error = %v", tt.payload, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestApplyArm(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		wantKeys string
	}{
		{name: "arm stay writes s", action: ActionArmStay, wantKeys: "s"},
		{name: "arm away writes w", action: ActionArmAway, wantKeys: "w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{}
			cmds := NewCommands(src, 8, "1234", nil)

			if err := cmds.Apply(Command{Partition: 2, Action: tt.action}); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			if len(src.writes) != 1 {
				t.Fatalf("writes = %d, want 1", len(src.writes))
			}
			if src.writes[0] != (keyWrite{partition: 2, keys: tt.wantKeys}) {
				t.Errorf("write = %+v, want partition 2 keys %q", src.writes[0], tt.wantKeys)
			}
		})
	}
}

func TestApplyArmRejectedBySnapshot(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *panel.PartitionStatus)
	}{
		{name: "already armed", setup: func(p *panel.PartitionStatus) { p.Armed = true }},
		{name: "already in exit delay", setup: func(p *panel.PartitionStatus) { p.ExitDelay = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{}
			tt.setup(&src.state.Partitions[0])
			cmds := NewCommands(src, 8, "1234", nil)

			if err := cmds.Apply(Command{Partition: 1, Action: ActionArmAway}); err != nil {
				t.Fatalf("Apply() error = %v, want nil (silent no-op)", err)
			}
			if len(src.writes) != 0 {
				t.Errorf("writes = %v, want none", src.writes)
			}
		})
	}
}

func TestApplyDisarmWritesAccessCode(t *testing.T) {
	src := &mockSource{}
	src.state.Partitions[0].Armed = true
	cmds := NewCommands(src, 8, "1234", nil)

	if err := cmds.Apply(Command{Partition: 1, Action: ActionDisarm}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(src.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(src.writes))
	}
	if src.writes[0] != (keyWrite{partition: 1, keys: "1234"}) {
		t.Errorf("write = %+v, want the access code on partition 1", src.writes[0])
	}
}

func TestApplyDisarmDuringExitDelay(t *testing.T) {
	src := &mockSource{}
	src.state.Partitions[0].ExitDelay = true
	cmds := NewCommands(src, 8, "1234", nil)

	if err := cmds.Apply(Command{Partition: 1, Action: ActionDisarm}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(src.writes) != 1 || src.writes[0].keys != "1234" {
		t.Errorf("writes = %v, want one access-code write", src.writes)
	}
}

func TestApplyDisarmIgnoredWhenDisarmed(t *testing.T) {
	src := &mockSource{}
	cmds := NewCommands(src, 8, "1234", nil)

	if err := cmds.Apply(Command{Partition: 1, Action: ActionDisarm}); err != nil {
		t.Fatalf("Apply() error = %v, want nil (silent no-op)", err)
	}
	if len(src.writes) != 0 {
		t.Errorf("writes = %v, want none", src.writes)
	}
}

func TestApplyPartitionOutOfRange(t *testing.T) {
	src := &mockSource{}
	src.state.Partitions[4].Armed = true
	cmds := NewCommands(src, 2, "1234", nil)

	err := cmds.Apply(Command{Partition: 5, Action: ActionDisarm})

	if !errors.Is(err, ErrPartitionOutOfRange) {
		t.Errorf("Apply() error = %v, want ErrPartitionOutOfRange", err)
	}
	if len(src.writes) != 0 {
		t.Errorf("writes = %v, want none (no-op)", src.writes)
	}
}

func TestApplyDisabledPartition(t *testing.T) {
	src := &mockSource{}
	src.state.Partitions[1].Disabled = true
	cmds := NewCommands(src, 8, "1234", nil)

	err := cmds.Apply(Command{Partition: 2, Action: ActionArmAway})

	if !errors.Is(err, ErrPartitionOutOfRange) {
		t.Errorf("Apply() error = %v, want ErrPartitionOutOfRange", err)
	}
	if len(src.writes) != 0 {
		t.Errorf("writes = %v, want none", src.writes)
	}
}
