package led

import (
	"sync"

	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/logging"
)

// statusLED is the indicator LED that mirrors the serial link.
const statusLED = "system"

// Manager reacts to serial link events. It mirrors the link state on the
// board's status LED and, when Restore is set, replays the last effect
// the device accepted once it comes back after a drop. A running pulse
// resumes on its own and is never overwritten.
type Manager struct {
	dispatcher  Dispatcher
	indicator   Indicator
	eventBus    *events.Bus
	restore     bool
	logger      logging.Logger
	unsubscribe []func()

	mu         sync.Mutex
	lastEffect string
	connected  bool // a connection has been seen since Start
}

// NewManager creates a manager. indicator may be nil.
func NewManager(d Dispatcher, indicator Indicator, eventBus *events.Bus, restore bool, logger logging.Logger) *Manager {
	if indicator == nil {
		indicator = noopIndicator{logger: logger}
	}
	return &Manager{
		dispatcher: d,
		indicator:  indicator,
		eventBus:   eventBus,
		restore:    restore,
		logger:     logger,
	}
}

// Start begins listening for serial events.
func (m *Manager) Start() {
	m.unsubscribe = append(m.unsubscribe,
		m.eventBus.Subscribe(func(e events.ConnectionStateChangedEvent) {
			m.handleConnection(e)
		}),
		m.eventBus.Subscribe(func(e events.CommandSentEvent) {
			m.handleCommand(e)
		}),
	)
	m.logger.Info("LED manager started", "restore", m.restore)
}

// Stop unsubscribes from events.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
	m.logger.Info("LED manager stopped")
}

// LastEffect returns the last non-pulse command written to the device.
func (m *Manager) LastEffect() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEffect
}

func (m *Manager) handleCommand(e events.CommandSentEvent) {
	// Dropped and failed commands never reached the ring; pulses are kept
	// alive by the dispatcher.
	if e.Result != "sent" || command.IsPulse(e.Command) {
		return
	}
	m.mu.Lock()
	m.lastEffect = e.Command
	m.mu.Unlock()
}

func (m *Manager) handleConnection(e events.ConnectionStateChangedEvent) {
	m.logger.Debug("Serial link state changed", "state", e.State, "previous", e.Previous)
	m.updateIndicator(e.State)

	if e.State != "connected" {
		return
	}

	// The first connection finds the device in whatever state it booted
	// with; only a reconnect has lost an effect worth replaying.
	m.mu.Lock()
	reconnect := m.connected
	m.connected = true
	last := m.lastEffect
	m.mu.Unlock()

	if !reconnect || !m.restore || last == "" {
		return
	}

	sent, err := m.dispatcher.DispatchIfIdle(last)
	switch {
	case err != nil:
		m.logger.Warn("Failed to restore effect", "command", last, "error", err)
	case !sent:
		m.logger.Debug("Pulse running, not restoring effect", "command", last)
	default:
		m.logger.Info("Restored effect after reconnect", "command", last)
	}
}

// updateIndicator shows connected as solid, connecting as blinking and
// anything else as off.
func (m *Manager) updateIndicator(state string) {
	var err error
	switch state {
	case "connected":
		err = m.indicator.Set(statusLED, true, "solid")
	case "connecting":
		err = m.indicator.Set(statusLED, true, "blink")
	default:
		err = m.indicator.Set(statusLED, false, "solid")
	}
	if err != nil {
		m.logger.Warn("Failed to update status LED", "state", state, "error", err)
	}
}
