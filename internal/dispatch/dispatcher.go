// Package dispatch turns effect commands into sends on the serial link and
// keeps a pulse effect alive by retransmitting it on a fixed period.
package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/smazurov/ledring/internal/clock"
	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/internal/metrics"
)

// Sender delivers command text. *serial.Manager satisfies it.
type Sender interface {
	SendCommand(cmd string)
}

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Options configures a Dispatcher.
type Options struct {
	// DefaultDelay is the gap between pulses started through Dispatch.
	// Zero means command.PulseDefaultDelay; negative means no gap.
	DefaultDelay time.Duration
	Clock        clock.Clock
	EventBus     EventPublisher
	Logger       logging.Logger
}

// Session describes the active pulse.
type Session struct {
	Command    string
	Speed      int
	Delay      time.Duration
	Period     time.Duration
	Generation uint64
	StartedAt  time.Time
	Sends      int
}

// Status is a snapshot of the dispatcher.
type Status struct {
	Active     bool
	Generation uint64
	Session    Session // zero unless Active
}

// Dispatcher serializes every command it forwards. Starting any command
// ends the current pulse first; a pulse tick only sends while the
// generation it was scheduled under is still current.
type Dispatcher struct {
	sender       Sender
	clock        clock.Clock
	bus          EventPublisher
	logger       logging.Logger
	defaultDelay time.Duration

	mu         sync.Mutex
	generation uint64
	session    *Session
	timer      clock.Timer
}

// New creates an idle Dispatcher sending through sender.
func New(sender Sender, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	switch {
	case opts.DefaultDelay == 0:
		opts.DefaultDelay = command.PulseDefaultDelay
	case opts.DefaultDelay < 0:
		opts.DefaultDelay = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("dispatch")
	}

	return &Dispatcher{
		sender:       sender,
		clock:        opts.Clock,
		bus:          opts.EventBus,
		logger:       logger,
		defaultDelay: opts.DefaultDelay,
	}
}

// Dispatch cancels any running pulse, then either starts a new pulse (for
// "pulse:" commands, with the default gap) or forwards cmd unchanged.
// A pulse command whose parameters cannot be parsed is rejected after the
// cancel and nothing is sent.
func (d *Dispatcher) Dispatch(cmd string) error {
	d.mu.Lock()
	ended := d.cancelLocked()

	if !command.IsPulse(cmd) {
		d.sender.SendCommand(cmd)
		d.mu.Unlock()
		d.publishEnded(ended)
		return nil
	}

	_, speed, err := command.ParsePulse(cmd)
	if err != nil {
		d.mu.Unlock()
		d.publishEnded(ended)
		d.logger.Warn("Rejected pulse command", "command", cmd, "error", err)
		return err
	}

	started := d.startLocked(cmd, speed, d.defaultDelay)
	d.mu.Unlock()
	d.publishEnded(ended)
	d.publish(started)
	return nil
}

// StartPulse cancels any running pulse and starts cmd with an explicit
// speed (seconds, at least 1) and extra gap between pulses.
func (d *Dispatcher) StartPulse(cmd string, speed int, delay time.Duration) error {
	if speed < command.PulseMinSpeed {
		return fmt.Errorf("%w: speed %d below %d", command.ErrInvalidPulse, speed, command.PulseMinSpeed)
	}
	if delay < 0 {
		return fmt.Errorf("%w: negative delay %v", command.ErrInvalidPulse, delay)
	}
	if !command.IsPulse(cmd) {
		return fmt.Errorf("%w: %q", command.ErrInvalidPulse, cmd)
	}

	d.mu.Lock()
	ended := d.cancelLocked()
	started := d.startLocked(cmd, speed, delay)
	d.mu.Unlock()

	d.publishEnded(ended)
	d.publish(started)
	return nil
}

// DispatchIfIdle forwards a non-pulse cmd unless a pulse is running. The
// check and the send happen under one lock, so a pulse started concurrently
// is never overwritten. It reports whether cmd was sent.
func (d *Dispatcher) DispatchIfIdle(cmd string) (bool, error) {
	if command.IsPulse(cmd) {
		return false, fmt.Errorf("%w: %q is a pulse", command.ErrInvalidPulse, cmd)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		return false, nil
	}
	d.sender.SendCommand(cmd)
	return true, nil
}

// Cancel ends the running pulse, if any. Safe to call repeatedly.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	ended := d.cancelLocked()
	d.mu.Unlock()
	d.publishEnded(ended)
}

// Close cancels the running pulse.
func (d *Dispatcher) Close() {
	d.Cancel()
}

// Status returns a snapshot of the pulse state.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{Generation: d.generation}
	if d.session != nil {
		st.Active = true
		st.Session = *d.session
	}
	return st
}

// startLocked begins a new session, sends the first pulse and schedules the
// next. Callers hold d.mu and have already cancelled the previous session.
func (d *Dispatcher) startLocked(cmd string, speed int, delay time.Duration) events.PulseStateChangedEvent {
	d.generation++
	gen := d.generation

	s := &Session{
		Command:    cmd,
		Speed:      speed,
		Delay:      delay,
		Period:     command.PulsePeriod(speed, delay),
		Generation: gen,
		StartedAt:  d.clock.Now(),
	}
	d.session = s

	d.logger.Info("Pulse started", "command", cmd, "period", s.Period, "generation", gen)
	metrics.SetPulseActive(true)

	d.sendPulseLocked(s)
	d.timer = d.clock.AfterFunc(s.Period, func() { d.tick(gen) })

	return events.PulseStateChangedEvent{
		Active:     true,
		Command:    cmd,
		PeriodMs:   s.Period.Milliseconds(),
		Generation: gen,
		Timestamp:  s.StartedAt.Format(time.RFC3339),
	}
}

// tick retransmits the pulse scheduled under gen and schedules the next
// one. A stale generation does nothing.
func (d *Dispatcher) tick(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil || s.Generation != gen {
		return
	}

	d.sendPulseLocked(s)
	d.timer = d.clock.AfterFunc(s.Period, func() { d.tick(gen) })
}

func (d *Dispatcher) sendPulseLocked(s *Session) {
	d.sender.SendCommand(s.Command)
	s.Sends++
	metrics.IncPulseTicks()
}

// cancelLocked ends the current session and invalidates every tick
// scheduled under it. It returns the ended session, or nil.
func (d *Dispatcher) cancelLocked() *Session {
	if d.session == nil {
		return nil
	}

	ended := d.session
	d.generation++
	d.session = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	metrics.SetPulseActive(false)
	d.logger.Info("Pulse stopped", "command", ended.Command, "sends", ended.Sends)
	return ended
}

func (d *Dispatcher) publishEnded(s *Session) {
	if s == nil {
		return
	}
	d.publish(events.PulseStateChangedEvent{
		Active:     false,
		Command:    s.Command,
		Generation: s.Generation,
		Timestamp:  d.clock.Now().Format(time.RFC3339),
	})
}

func (d *Dispatcher) publish(ev events.Event) {
	if d.bus != nil {
		d.bus.Publish(ev)
	}
}
