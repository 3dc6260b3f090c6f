// Package hotplug watches kernel device events so callers can react to a
// serial adapter being plugged in.
//
// On Linux the monitor listens to kobject uevents over netlink without cgo.
// Other platforms get a stub whose NewMonitor returns ErrUnsupported.
package hotplug

import (
	"bytes"
	"errors"
	"path"
	"strings"
)

// ErrUnsupported is returned by NewMonitor on platforms without uevents.
var ErrUnsupported = errors.New("hotplug monitoring not supported on this platform")

// Action constants for device events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystems relevant to serial adapters.
const (
	SubsystemTTY = "tty"
	SubsystemUSB = "usb"
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/pci0000:00/...
	Subsystem string            // "tty", "usb", ...
	DevType   string            // Device type if available
	DevName   string            // Device node name relative to /dev (e.g. "ttyACM0")
	DevPath   string            // sysfs path from DEVPATH
	Env       map[string]string // All environment variables from the event
}

// DevNode returns the absolute device node path, or "" when the event has
// no DEVNAME.
func (e Event) DevNode() string {
	if e.DevName == "" {
		return ""
	}
	if strings.HasPrefix(e.DevName, "/") {
		return e.DevName
	}
	return path.Join("/dev", e.DevName)
}

// ParseUEvent parses a kernel uevent message.
// Format: "ACTION@KOBJ\0KEY=VALUE\0KEY=VALUE\0..."
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	// libudev rebroadcasts carry a binary header ahead of the uevent.
	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] == 0 {
				rest := data[i+1:]
				if idx := bytes.IndexByte(rest, '@'); idx > 0 && idx < 20 {
					data = rest
					break
				}
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	atIdx := strings.Index(header, "@")
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}

// filterSet is the subsystem allow-list shared by the monitor implementations.
// An empty set passes every event.
type filterSet map[string]struct{}

func (f filterSet) allows(subsystem string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[subsystem]
	return ok
}
