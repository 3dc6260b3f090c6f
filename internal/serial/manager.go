// Package serial owns the link to the LED ring controller: it opens the port
// (retrying while the device is absent), serializes outbound commands and
// drains inbound lines for diagnostics.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/smazurov/ledring/internal/clock"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/internal/metrics"
)

// Connection defaults.
const (
	DefaultPort        = "COM5"
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 1 * time.Second
	DefaultRetryDelay  = 5 * time.Second
	DefaultSettleDelay = 2 * time.Second
)

const readChunkSize = 256

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Options configures a Manager. Zero values take the defaults above; a
// negative SettleDelay skips the settle wait.
type Options struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	RetryDelay  time.Duration
	SettleDelay time.Duration
	Opener      Opener
	Clock       clock.Clock
	EventBus    EventPublisher
	Logger      logging.Logger
}

// Status is a snapshot of the connection.
type Status struct {
	Port           string
	BaudRate       int
	State          State
	Attempts       int
	LastError      string
	ConnectedSince time.Time
}

// Manager is the Connection Manager. It owns the port handle; callers only
// send text through it.
type Manager struct {
	opts   Options
	logger logging.Logger
	clock  clock.Clock
	bus    EventPublisher

	mu             sync.Mutex
	state          State
	port           Port
	ready          chan struct{} // closed while connected, replaced on demotion
	attempts       int
	lastErr        error
	connectedSince time.Time
	closed         bool
	done           chan struct{}

	connectMu sync.Mutex // one Connect at a time
	writeMu   sync.Mutex // one write at a time
	wake      chan struct{}
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(opts Options) *Manager {
	if opts.Port == "" {
		opts.Port = DefaultPort
	}
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	switch {
	case opts.SettleDelay == 0:
		opts.SettleDelay = DefaultSettleDelay
	case opts.SettleDelay < 0:
		opts.SettleDelay = 0
	}
	if opts.Opener == nil {
		opts.Opener = openBugst
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("serial")
	}

	m := &Manager{
		opts:   opts,
		logger: logger,
		clock:  opts.Clock,
		bus:    opts.EventBus,
		state:  StateDisconnected,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	metrics.SetSerialState(m.state.gauge())
	return m
}

// PortName returns the configured port.
func (m *Manager) PortName() string { return m.opts.Port }

// BaudRate returns the configured baud rate.
func (m *Manager) BaudRate() int { return m.opts.BaudRate }

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the connection.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Port:           m.opts.Port,
		BaudRate:       m.opts.BaudRate,
		State:          m.state,
		Attempts:       m.attempts,
		ConnectedSince: m.connectedSince,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// Connect opens the port, retrying after RetryDelay on every failure, and
// waits SettleDelay once it opens so the device can reset. It returns nil
// once Connected, ctx.Err() when cancelled and ErrClosed after Close.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case m.state == StateConnected:
		m.mu.Unlock()
		return nil
	}
	m.attempts = 0
	ev := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	m.publish(ev)

	cfg := PortConfig{BaudRate: m.opts.BaudRate, ReadTimeout: m.opts.ReadTimeout}

	for {
		if err := ctx.Err(); err != nil {
			m.abandonConnect()
			return err
		}

		port, err := m.opts.Opener(m.opts.Port, cfg)
		metrics.ObserveConnectAttempt(err == nil)

		if err != nil {
			m.mu.Lock()
			m.attempts++
			m.lastErr = err
			attempt := m.attempts
			ev := m.setStateLocked(StateConnecting)
			m.mu.Unlock()
			m.publish(ev)

			m.logger.Warn("Serial port not available, retrying",
				"port", m.opts.Port, "attempt", attempt, "retry_in", m.opts.RetryDelay, "error", err)

			if werr := m.wait(ctx, m.opts.RetryDelay, true); werr != nil {
				m.abandonConnect()
				return werr
			}
			continue
		}

		m.logger.Info("Serial port opened, waiting for device to settle",
			"port", m.opts.Port, "baud", m.opts.BaudRate, "settle", m.opts.SettleDelay)

		if werr := m.wait(ctx, m.opts.SettleDelay, false); werr != nil {
			_ = port.Close()
			m.abandonConnect()
			return werr
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			_ = port.Close()
			return ErrClosed
		}
		m.port = port
		m.lastErr = nil
		m.connectedSince = m.clock.Now()
		ev := m.setStateLocked(StateConnected)
		close(m.ready)
		m.mu.Unlock()
		m.publish(ev)

		m.logger.Info("Connected to serial port", "port", m.opts.Port, "baud", m.opts.BaudRate)
		return nil
	}
}

// abandonConnect reverts a cancelled Connect to Disconnected.
func (m *Manager) abandonConnect() {
	m.mu.Lock()
	if m.closed || m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	ev := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
	m.publish(ev)
}

// wait blocks for d on the manager's clock. A retry wait (wakeable) is cut
// short by Wake.
func (m *Manager) wait(ctx context.Context, d time.Duration, wakeable bool) error {
	if d <= 0 {
		return ctx.Err()
	}

	fired := make(chan struct{})
	timer := m.clock.AfterFunc(d, func() { close(fired) })
	defer timer.Stop()

	var wake <-chan struct{}
	if wakeable {
		wake = m.wake
	}

	select {
	case <-fired:
		return nil
	case <-wake:
		m.logger.Debug("Retry delay cut short by wake-up", "port", m.opts.Port)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// Wake cuts a pending retry delay short, for example when a matching device
// was just plugged in. It never blocks.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// WaitConnected blocks until the manager is Connected.
func (m *Manager) WaitConnected(ctx context.Context) error {
	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// Send writes cmd as raw bytes. When not connected nothing is written and
// ResultDropped is returned with ErrNotConnected. A write error that means
// the device went away demotes the manager to Connecting so Run reconnects.
func (m *Manager) Send(cmd string) (SendResult, error) {
	m.mu.Lock()
	port, state := m.port, m.state
	m.mu.Unlock()

	if state != StateConnected || port == nil {
		m.logger.Debug("Dropping command, not connected", "command", cmd, "state", state)
		m.recordCommand(cmd, ResultDropped, nil)
		return ResultDropped, ErrNotConnected
	}

	m.writeMu.Lock()
	_, err := port.Write([]byte(cmd))
	m.writeMu.Unlock()

	if err != nil {
		m.logger.Error("Failed to write command", "command", cmd, "error", err)
		m.recordCommand(cmd, ResultFailed, err)
		if IsDisconnection(err) {
			m.connectionLost(port, err)
		}
		return ResultFailed, fmt.Errorf("write %q: %w", cmd, err)
	}

	m.logger.Info("Sent command", "command", cmd)
	m.recordCommand(cmd, ResultSent, nil)
	return ResultSent, nil
}

// SendCommand is the fire-and-forget form of Send.
func (m *Manager) SendCommand(cmd string) {
	_, _ = m.Send(cmd)
}

func (m *Manager) recordCommand(cmd string, result SendResult, err error) {
	metrics.ObserveCommand(string(result))
	ev := events.CommandSentEvent{
		Command:   cmd,
		Result:    string(result),
		Timestamp: m.clock.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	m.publish(ev)
}

// ReadLoop drains the current port until it is closed, replaced or fails.
// Lines are logged and published; they are never interpreted. Cancellation
// is noticed within one read timeout.
func (m *Manager) ReadLoop(ctx context.Context) error {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()

	if port == nil {
		return ErrNotConnected
	}

	var lines lineBuffer
	buf := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.isCurrent(port) {
			return nil
		}

		n, err := port.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				m.handleLine(line)
			}
		}
		if err == nil {
			continue
		}

		if !m.isCurrent(port) {
			return nil
		}
		if IsDisconnection(err) || errors.Is(err, io.EOF) {
			m.connectionLost(port, err)
			return fmt.Errorf("read: %w", err)
		}

		m.logger.Warn("Serial read error", "port", m.opts.Port, "error", err)
		if werr := m.wait(ctx, m.opts.ReadTimeout, false); werr != nil {
			if errors.Is(werr, ErrClosed) {
				return nil
			}
			return werr
		}
	}
}

func (m *Manager) handleLine(line string) {
	m.logger.Info("Device", "line", line)
	metrics.IncSerialLines()
	m.publish(events.DeviceLineEvent{
		Port:      m.opts.Port,
		Line:      line,
		Timestamp: m.clock.Now().Format(time.RFC3339),
	})
}

func (m *Manager) isCurrent(port Port) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port == port && !m.closed
}

// connectionLost releases port and demotes Connected to Connecting. It is a
// no-op when port is no longer the current handle.
func (m *Manager) connectionLost(port Port, cause error) {
	m.mu.Lock()
	if m.port != port || m.closed {
		m.mu.Unlock()
		return
	}
	m.port = nil
	m.lastErr = cause
	m.ready = make(chan struct{})
	m.connectedSince = time.Time{}
	ev := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	_ = port.Close()
	m.logger.Warn("Serial connection lost", "port", m.opts.Port, "error", cause)
	m.publish(ev)
}

// Run keeps the manager connected: it connects, drains the port until the
// link drops, and reconnects with the same retry policy. It returns when ctx
// is cancelled or the manager is closed.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := m.Connect(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}

		err := m.ReadLoop(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil
		}
		if err != nil {
			m.logger.Debug("Reader stopped, reconnecting", "error", err)
		}
	}
}

// Close releases the port. Pending Connect and WaitConnected calls return
// ErrClosed. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.done)
	port := m.port
	m.port = nil
	ev := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	m.publish(ev)

	if port == nil {
		return nil
	}
	m.logger.Info("Closing serial port", "port", m.opts.Port)
	return port.Close()
}

// setStateLocked records the transition and returns the event to publish
// once the lock is released.
func (m *Manager) setStateLocked(next State) events.ConnectionStateChangedEvent {
	prev := m.state
	m.state = next
	metrics.SetSerialState(next.gauge())

	ev := events.ConnectionStateChangedEvent{
		Port:      m.opts.Port,
		State:     string(next),
		Previous:  string(prev),
		Attempt:   m.attempts,
		Timestamp: m.clock.Now().Format(time.RFC3339),
	}
	if m.lastErr != nil {
		ev.Error = m.lastErr.Error()
	}
	return ev
}

func (m *Manager) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
