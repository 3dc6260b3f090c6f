// Package systemd reports daemon readiness and status to the service manager.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/logging"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	logger      logging.Logger
	unsubscribe func()
}

// NewNotifier creates a Notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.GetLogger("systemd")
	}
	return &Notifier{logger: logger}
}

// Ready tells systemd the daemon is serving.
func (n *Notifier) Ready() {
	n.notify(daemon.SdNotifyReady)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.notify("STATUS=" + status)
}

// Stopping tells systemd the daemon is shutting down.
func (n *Notifier) Stopping() {
	n.notify(daemon.SdNotifyStopping)
}

// Watch keeps the status line in step with the serial connection.
func (n *Notifier) Watch(bus *events.Bus) {
	n.unsubscribe = bus.Subscribe(func(e events.ConnectionStateChangedEvent) {
		n.Status(connectionStatus(e))
	})
}

// Close stops watching the bus.
func (n *Notifier) Close() {
	if n.unsubscribe != nil {
		n.unsubscribe()
		n.unsubscribe = nil
	}
}

// RunWatchdog pings the watchdog at half the interval systemd asked for,
// until ctx is done. Returns immediately when no watchdog is configured.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.logger.Info("Systemd watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("Notified systemd", "state", state)
	}
}

func connectionStatus(e events.ConnectionStateChangedEvent) string {
	status := fmt.Sprintf("serial %s: %s", e.Port, e.State)
	if e.Error != "" && e.State != "connected" {
		status += " (" + e.Error + ")"
	}
	return status
}
