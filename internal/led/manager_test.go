package led

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/ledring/internal/events"
)

type setCall struct {
	name    string
	enabled bool
	pattern string
}

// mockIndicator records status LED changes.
type mockIndicator struct {
	mu    sync.Mutex
	calls []setCall
}

func (m *mockIndicator) Set(name string, enabled bool, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, setCall{name, enabled, pattern})
	return nil
}

func (m *mockIndicator) Available() []string { return []string{"system"} }

func (m *mockIndicator) Patterns() []string { return []string{"solid", "blink"} }

func (m *mockIndicator) last() (setCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return setCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

func startManager(t *testing.T, d *mockDispatcher, restore bool) (*Manager, *mockIndicator, *events.Bus) {
	t.Helper()
	bus := events.New()
	ind := &mockIndicator{}
	mgr := NewManager(d, ind, bus, restore, testLogger())
	mgr.Start()
	t.Cleanup(mgr.Stop)
	return mgr, ind, bus
}

func connection(state string) events.ConnectionStateChangedEvent {
	return events.ConnectionStateChangedEvent{
		Port:      "/dev/ttyACM0",
		State:     state,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func TestManagerMirrorsLinkState(t *testing.T) {
	tests := []struct {
		state string
		want  setCall
	}{
		{"connected", setCall{"system", true, "solid"}},
		{"connecting", setCall{"system", true, "blink"}},
		{"disconnected", setCall{"system", false, "solid"}},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			_, ind, bus := startManager(t, &mockDispatcher{}, false)

			bus.Publish(connection(tt.state))
			time.Sleep(50 * time.Millisecond)

			got, ok := ind.last()
			if !ok {
				t.Fatal("No LED control calls made")
			}
			if got != tt.want {
				t.Errorf("last call = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// reconnect drives the link through a full drop and recovery.
func reconnect(bus *events.Bus) {
	bus.Publish(connection("connected"))
	bus.Publish(connection("connecting"))
	bus.Publish(connection("connected"))
	time.Sleep(50 * time.Millisecond)
}

func TestManagerRestoresLastEffect(t *testing.T) {
	d := &mockDispatcher{}
	mgr, _, bus := startManager(t, d, true)

	bus.Publish(events.CommandSentEvent{Command: "rgb:1,2,3", Result: "sent"})
	bus.Publish(events.CommandSentEvent{Command: "pulse:1,1,1,1", Result: "sent"})
	bus.Publish(events.CommandSentEvent{Command: "chase:4,5,6", Result: "failed"})
	time.Sleep(50 * time.Millisecond)

	if got := mgr.LastEffect(); got != "rgb:1,2,3" {
		t.Fatalf("LastEffect() = %q, want rgb:1,2,3", got)
	}

	reconnect(bus)

	if got := d.dispatchedCommands(); !slices.Equal(got, []string{"rgb:1,2,3"}) {
		t.Errorf("dispatched = %q, want the restored effect once", got)
	}
}

func TestManagerNeverReplaysDroppedCommand(t *testing.T) {
	d := &mockDispatcher{}
	mgr, _, bus := startManager(t, d, true)

	bus.Publish(events.CommandSentEvent{Command: "4", Result: "dropped"})
	time.Sleep(50 * time.Millisecond)

	if got := mgr.LastEffect(); got != "" {
		t.Errorf("LastEffect() = %q, want nothing remembered", got)
	}

	reconnect(bus)

	if got := d.dispatchedCommands(); len(got) != 0 {
		t.Errorf("dispatched = %q, a dropped command must not be sent", got)
	}
}

func TestManagerDroppedCommandKeepsPreviousEffect(t *testing.T) {
	d := &mockDispatcher{}
	mgr, _, bus := startManager(t, d, true)

	bus.Publish(connection("connected"))
	bus.Publish(events.CommandSentEvent{Command: "2", Result: "sent"})
	time.Sleep(50 * time.Millisecond)
	bus.Publish(connection("disconnected"))
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.CommandSentEvent{Command: "4", Result: "dropped"})
	time.Sleep(50 * time.Millisecond)
	bus.Publish(connection("connected"))
	time.Sleep(50 * time.Millisecond)

	if got := mgr.LastEffect(); got != "2" {
		t.Errorf("LastEffect() = %q, want 2", got)
	}
	if got := d.dispatchedCommands(); !slices.Equal(got, []string{"2"}) {
		t.Errorf("dispatched = %q, want [2]", got)
	}
}

func TestManagerSkipsRestore(t *testing.T) {
	tests := []struct {
		name    string
		restore bool
		active  bool
		states  []string
	}{
		{"restore disabled", false, false, []string{"connected", "disconnected", "connected"}},
		{"pulse running", true, true, []string{"connected", "disconnected", "connected"}},
		{"not connected", true, false, []string{"connected", "connecting"}},
		{"first connect", true, false, []string{"connected"}},
		{"first connect after retries", true, false, []string{"connecting", "disconnected", "connecting", "connected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{active: tt.active}
			_, _, bus := startManager(t, d, tt.restore)

			bus.Publish(events.CommandSentEvent{Command: "1", Result: "sent"})
			time.Sleep(50 * time.Millisecond)
			for _, state := range tt.states {
				bus.Publish(connection(state))
			}
			time.Sleep(50 * time.Millisecond)

			if got := d.dispatchedCommands(); len(got) != 0 {
				t.Errorf("dispatched = %q, want nothing", got)
			}
		})
	}
}

func TestManagerNilIndicator(t *testing.T) {
	bus := events.New()
	mgr := NewManager(&mockDispatcher{}, nil, bus, false, testLogger())
	mgr.Start()
	defer mgr.Stop()

	bus.Publish(connection("connected"))
	time.Sleep(50 * time.Millisecond)
}
