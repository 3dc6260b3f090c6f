package serial

import (
	"testing"

	"github.com/smazurov/ledring/pkg/hotplug"
)

func TestMatchesPort(t *testing.T) {
	added := hotplug.Event{Action: hotplug.ActionAdd, Subsystem: hotplug.SubsystemTTY, DevName: "ttyACM0"}

	tests := []struct {
		name string
		ev   hotplug.Event
		port string
		want bool
	}{
		{"exact node", added, "/dev/ttyACM0", true},
		{"other node", added, "/dev/ttyUSB0", false},
		{"windows style name matches any tty", added, "COM5", true},
		{"removal ignored", hotplug.Event{Action: hotplug.ActionRemove, Subsystem: hotplug.SubsystemTTY, DevName: "ttyACM0"}, "/dev/ttyACM0", false},
		{"non tty ignored", hotplug.Event{Action: hotplug.ActionAdd, Subsystem: hotplug.SubsystemUSB}, "COM5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesPort(tt.ev, tt.port); got != tt.want {
				t.Errorf("MatchesPort() = %v, want %v", got, tt.want)
			}
		})
	}
}
