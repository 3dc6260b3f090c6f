package serial

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/pkg/hotplug"
)

// Waker is the part of Manager the hotplug watcher needs.
type Waker interface {
	PortName() string
	Wake()
}

// WatchHotplug wakes w whenever a tty device matching its port appears, so a
// reconnect does not wait out the full retry delay. It blocks until ctx is
// cancelled. On platforms without uevents it logs once and returns nil.
func WatchHotplug(ctx context.Context, w Waker, logger logging.Logger) error {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		if errors.Is(err, hotplug.ErrUnsupported) {
			logger.Info("Hotplug monitoring unavailable on this platform")
			return nil
		}
		return err
	}
	defer func() { _ = mon.Close() }()

	mon.AddSubsystemFilter(hotplug.SubsystemTTY)

	ch := make(chan hotplug.Event, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- mon.Run(ctx, ch) }()

	logger.Info("Watching for serial device hotplug", "port", w.PortName())

	for ev := range ch {
		if MatchesPort(ev, w.PortName()) {
			logger.Info("Serial device appeared", "device", ev.DevNode())
			w.Wake()
		}
	}

	err = <-errCh
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// MatchesPort reports whether ev is an added tty that could be port. A port
// that is not an absolute device path (such as "COM5") matches any tty.
func MatchesPort(ev hotplug.Event, port string) bool {
	if ev.Action != hotplug.ActionAdd || ev.Subsystem != hotplug.SubsystemTTY {
		return false
	}
	if !filepath.IsAbs(port) {
		return true
	}

	node := ev.DevNode()
	if node == port {
		return true
	}

	// Stable symlinks such as /dev/serial/by-id/... resolve to the node.
	resolved, err := filepath.EvalSymlinks(port)
	return err == nil && resolved == node
}
