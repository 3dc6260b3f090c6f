package nats

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/led"
	"github.com/smazurov/ledring/internal/logging"
)

// Bridge connects the daemon to NATS: commands received on SubjectCommands
// go to the LED controller and device events from the bus are published.
type Bridge struct {
	url        string
	eventBus   *events.Bus
	controller led.Controller
	conn       *nats.Conn
	subs       []*nats.Subscription
	unsubs     []func()
	logger     logging.Logger
	mu         sync.Mutex
}

// NewBridge creates a new NATS bridge.
func NewBridge(url string, eventBus *events.Bus, controller led.Controller, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.GetLogger("nats")
	}

	return &Bridge{
		url:        url,
		eventBus:   eventBus,
		controller: controller,
		logger:     logger,
	}
}

// Start connects to NATS, subscribes to commands and begins forwarding
// device events.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("ledring-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url)

	sub, err := conn.Subscribe(SubjectCommands, b.handleCommand)
	if err != nil {
		b.cleanup()
		return err
	}
	b.subs = append(b.subs, sub)

	if b.eventBus != nil {
		b.unsubs = append(b.unsubs,
			b.eventBus.Subscribe(b.handleDeviceLine),
			b.eventBus.Subscribe(b.handleConnectionState),
		)
	}

	b.logger.Info("NATS bridge subscribed", "subject", SubjectCommands)
	return nil
}

// handleCommand applies a command and answers when the sender asked for a reply.
func (b *Bridge) handleCommand(msg *nats.Msg) {
	reply := ReplyMessage{OK: true}

	m, err := UnmarshalCommand(msg.Data)
	if err == nil {
		b.logger.Debug("Received NATS command", "command", m.Command)
		err = b.controller.Set(led.Request{Effect: led.EffectRaw, Command: m.Command})
	}
	if err != nil {
		b.logger.Warn("Rejected NATS command", "error", err, "payload", string(msg.Data))
		reply = ReplyMessage{Error: err.Error()}
	}

	if msg.Reply == "" {
		return
	}
	data, err := reply.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Warn("Failed to send reply", "error", err)
	}
}

func (b *Bridge) handleDeviceLine(e events.DeviceLineEvent) {
	b.publish(SubjectDeviceLines, LineMessage{
		Port:      e.Port,
		Line:      e.Line,
		Timestamp: e.Timestamp,
	})
}

func (b *Bridge) handleConnectionState(e events.ConnectionStateChangedEvent) {
	b.publish(SubjectDeviceState, StateMessage{
		Port:      e.Port,
		State:     e.State,
		Previous:  e.Previous,
		Error:     e.Error,
		Timestamp: e.Timestamp,
	})
}

// publish sends m on subject. No-op if not connected.
func (b *Bridge) publish(subject string, m interface{ Marshal() ([]byte, error) }) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil || !conn.IsConnected() {
		return
	}

	data, err := m.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal message", "subject", subject, "error", err)
		return
	}
	if err := conn.Publish(subject, data); err != nil {
		b.logger.Warn("Failed to publish message", "subject", subject, "error", err)
	}
}

// cleanup unsubscribes and closes connection.
func (b *Bridge) cleanup() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil

	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop closes the bridge connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
