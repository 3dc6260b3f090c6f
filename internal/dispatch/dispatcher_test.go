package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/ledring/internal/clock"
	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sent struct {
	cmd string
	at  time.Time
}

// mockSender records every command with the fake time it was sent at.
type mockSender struct {
	mu    sync.Mutex
	clock *clock.Fake
	sends []sent
}

func (s *mockSender) SendCommand(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, sent{cmd: cmd, at: s.clock.Now()})
}

func (s *mockSender) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sends))
	for i, x := range s.sends {
		out[i] = x.cmd
	}
	return out
}

func (s *mockSender) count(cmd string) int {
	n := 0
	for _, c := range s.commands() {
		if c == cmd {
			n++
		}
	}
	return n
}

type recorder struct {
	mu  sync.Mutex
	evs []events.PulseStateChangedEvent
}

func (r *recorder) Publish(ev events.Event) {
	if p, ok := ev.(events.PulseStateChangedEvent); ok {
		r.mu.Lock()
		r.evs = append(r.evs, p)
		r.mu.Unlock()
	}
}

func setup(t *testing.T) (*Dispatcher, *mockSender, *clock.Fake, *recorder) {
	t.Helper()
	fc := clock.NewFake(time.Unix(0, 0))
	sender := &mockSender{clock: fc}
	rec := &recorder{}
	d := New(sender, Options{Clock: fc, EventBus: rec, Logger: testLogger()})
	t.Cleanup(d.Close)
	return d, sender, fc, rec
}

func TestDispatchNonPulse(t *testing.T) {
	for _, cmd := range []string{command.Rainbow, command.ColorWipe, command.Sparkle, "rgb:255,0,0", "chase:0,0,255", command.Stop} {
		t.Run(cmd, func(t *testing.T) {
			d, sender, fc, _ := setup(t)

			if err := d.Dispatch(cmd); err != nil {
				t.Fatalf("Dispatch(%q) error: %v", cmd, err)
			}
			fc.Advance(time.Minute)

			got := sender.commands()
			if len(got) != 1 || got[0] != cmd {
				t.Errorf("sends = %q, want exactly [%q]", got, cmd)
			}
			if fc.Pending() != 0 {
				t.Errorf("Pending() = %d, want 0", fc.Pending())
			}
			if d.Status().Active {
				t.Error("non-pulse dispatch should leave the dispatcher idle")
			}
		})
	}
}

func TestPulseThenStop(t *testing.T) {
	d, sender, fc, _ := setup(t)
	const pulse = "pulse:10,20,30,2"

	if err := d.Dispatch(pulse); err != nil {
		t.Fatalf("Dispatch(pulse) error: %v", err)
	}
	if got := sender.count(pulse); got != 1 {
		t.Fatalf("pulse should be sent immediately, got %d sends", got)
	}

	if err := d.Dispatch(command.Stop); err != nil {
		t.Fatalf("Dispatch(stop) error: %v", err)
	}
	fc.Advance(time.Minute)

	if got := sender.count(pulse); got != 1 {
		t.Errorf("pulse sends = %d after stop, want 1", got)
	}
	if got := sender.count(command.Stop); got != 1 {
		t.Errorf("stop sends = %d, want 1", got)
	}
	if d.Status().Active {
		t.Error("pulse still active after stop")
	}
}

func TestPulseReplacesPulse(t *testing.T) {
	d, sender, fc, _ := setup(t)
	const a, b = "pulse:255,0,0,1", "pulse:0,0,255,1"

	_ = d.Dispatch(a)
	fc.Advance(500 * time.Millisecond)
	_ = d.Dispatch(b)
	fc.Advance(20 * time.Second)

	if got := sender.count(a); got != 1 {
		t.Errorf("A sends = %d, want only the initial one", got)
	}
	// B: initial send plus one per 2s period over 20s.
	if got := sender.count(b); got != 11 {
		t.Errorf("B sends = %d, want 11", got)
	}
	if fc.Pending() != 1 {
		t.Errorf("Pending() = %d, want exactly one live chain", fc.Pending())
	}
	if st := d.Status(); st.Session.Command != b {
		t.Errorf("active session = %q, want %q", st.Session.Command, b)
	}
}

func TestPulseCadence(t *testing.T) {
	d, sender, fc, _ := setup(t)

	if err := d.StartPulse("pulse:1,2,3,2", 2, 500*time.Millisecond); err != nil {
		t.Fatalf("StartPulse() error: %v", err)
	}
	fc.Advance(10 * time.Second)

	sender.mu.Lock()
	sends := append([]sent(nil), sender.sends...)
	sender.mu.Unlock()

	if len(sends) != 5 {
		t.Fatalf("sends = %d over 10s, want 5", len(sends))
	}
	for i := 1; i < len(sends); i++ {
		if gap := sends[i].at.Sub(sends[i-1].at); gap < 2500*time.Millisecond {
			t.Errorf("gap %d = %v, want >= 2.5s", i, gap)
		}
	}

	st := d.Status()
	if st.Session.Period != 2500*time.Millisecond || st.Session.Sends != 5 {
		t.Errorf("session = %+v", st.Session)
	}
}

func TestDispatchPulseUsesDefaultDelay(t *testing.T) {
	d, _, _, _ := setup(t)

	_ = d.Dispatch("pulse:1,2,3,3")
	st := d.Status()
	if st.Session.Delay != command.PulseDefaultDelay || st.Session.Period != 4*time.Second {
		t.Errorf("session = %+v, want 1s delay and 4s period", st.Session)
	}
}

func TestStaleTickDoesNothing(t *testing.T) {
	d, sender, _, _ := setup(t)

	_ = d.Dispatch("pulse:9,9,9,1")
	stale := d.Status().Session.Generation
	d.Cancel()

	// A tick that was already running when Cancel happened.
	d.tick(stale)

	if got := len(sender.commands()); got != 1 {
		t.Errorf("sends = %d, want only the initial pulse", got)
	}
}

func TestCancelIdempotent(t *testing.T) {
	d, _, fc, rec := setup(t)

	d.Cancel()
	_ = d.Dispatch("pulse:1,1,1,1")
	d.Cancel()
	d.Cancel()

	if fc.Pending() != 0 {
		t.Errorf("Pending() = %d after cancel", fc.Pending())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.evs) != 2 || !rec.evs[0].Active || rec.evs[1].Active {
		t.Errorf("pulse events = %+v, want one start and one stop", rec.evs)
	}
}

func TestGenerationAdvances(t *testing.T) {
	d, _, _, _ := setup(t)

	_ = d.Dispatch("pulse:1,1,1,1")
	g1 := d.Status().Session.Generation
	_ = d.Dispatch("pulse:2,2,2,1")
	g2 := d.Status().Session.Generation

	if g2 <= g1 {
		t.Errorf("generation %d did not advance past %d", g2, g1)
	}
}

func TestInvalidPulseRejected(t *testing.T) {
	d, sender, fc, _ := setup(t)

	_ = d.Dispatch("pulse:1,1,1,1")
	err := d.Dispatch("pulse:1,1,1")
	if !errors.Is(err, command.ErrInvalidPulse) {
		t.Fatalf("Dispatch(bad pulse) = %v, want ErrInvalidPulse", err)
	}
	fc.Advance(10 * time.Second)

	if got := sender.commands(); len(got) != 1 {
		t.Errorf("sends = %q, want the first pulse only", got)
	}
	if d.Status().Active {
		t.Error("rejected pulse must still cancel the previous one")
	}
}

func TestStartPulseValidation(t *testing.T) {
	d, _, _, _ := setup(t)

	tests := []struct {
		name  string
		cmd   string
		speed int
		delay time.Duration
	}{
		{"zero speed", "pulse:1,1,1,0", 0, 0},
		{"negative delay", "pulse:1,1,1,1", 1, -time.Millisecond},
		{"not a pulse", "rgb:1,1,1", 1, 0},
	}
	for _, tt := range tests {
		if err := d.StartPulse(tt.cmd, tt.speed, tt.delay); !errors.Is(err, command.ErrInvalidPulse) {
			t.Errorf("%s: StartPulse() = %v, want ErrInvalidPulse", tt.name, err)
		}
	}
}

func TestDispatchIfIdle(t *testing.T) {
	d, sender, _, _ := setup(t)

	ok, err := d.DispatchIfIdle("rgb:1,2,3")
	if err != nil || !ok {
		t.Fatalf("DispatchIfIdle() while idle = %v, %v, want true", ok, err)
	}

	_ = d.Dispatch("pulse:1,1,1,1")
	ok, err = d.DispatchIfIdle("rgb:4,5,6")
	if err != nil || ok {
		t.Fatalf("DispatchIfIdle() during pulse = %v, %v, want false", ok, err)
	}
	if !d.Status().Active {
		t.Error("DispatchIfIdle must leave the running pulse alone")
	}
	if got := sender.count("rgb:4,5,6"); got != 0 {
		t.Errorf("rgb:4,5,6 sent %d times during pulse", got)
	}

	if _, err := d.DispatchIfIdle("pulse:2,2,2,1"); !errors.Is(err, command.ErrInvalidPulse) {
		t.Errorf("DispatchIfIdle(pulse) = %v, want ErrInvalidPulse", err)
	}
	if got := sender.commands(); len(got) != 2 || got[0] != "rgb:1,2,3" {
		t.Errorf("sends = %q, want rgb:1,2,3 then the pulse", got)
	}
}

// overlapSender fails the test if two sends are ever in flight together.
type overlapSender struct {
	t        *testing.T
	inflight atomic.Int32
	total    atomic.Int32
}

func (s *overlapSender) SendCommand(string) {
	if s.inflight.Add(1) > 1 {
		s.t.Error("overlapping sends")
	}
	time.Sleep(50 * time.Microsecond)
	s.total.Add(1)
	s.inflight.Add(-1)
}

func TestSendsNeverOverlap(t *testing.T) {
	sender := &overlapSender{t: t}
	d := New(sender, Options{Logger: testLogger(), DefaultDelay: -1})
	defer d.Close()

	var wg sync.WaitGroup
	cmds := []string{"1", "pulse:1,2,3,1", "stop", "rgb:1,2,3", "pulse:3,2,1,1"}
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = d.Dispatch(cmds[i%len(cmds)])
		}(i)
	}
	wg.Wait()

	if sender.total.Load() != 20 {
		t.Errorf("total sends = %d, want 20", sender.total.Load())
	}
}
