package serial

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestIsDisconnection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"io error", errors.New("read /dev/ttyACM0: input/output error"), true},
		{"no such device", errors.New("no such device"), true},
		{"broken pipe wrapped", fmt.Errorf("write: %w", errors.New("broken pipe")), true},
		{"closed file", os.ErrClosed, true},
		{"macOS unplug", errors.New("device not configured"), true},
		{"permission denied", errors.New("open /dev/ttyACM0: permission denied"), false},
		{"busy", errors.New("Serial port busy"), false},
		{"timeout", errors.New("write timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDisconnection(tt.err); got != tt.want {
				t.Errorf("IsDisconnection(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOpenerFor(t *testing.T) {
	for _, driver := range []string{"", DriverBugst, DriverTarm} {
		if op, err := OpenerFor(driver); err != nil || op == nil {
			t.Errorf("OpenerFor(%q) = %v, %v", driver, op, err)
		}
	}

	if _, err := OpenerFor("ftdi"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("OpenerFor(ftdi) error = %v, want ErrUnknownDriver", err)
	}
}

func TestStateGauge(t *testing.T) {
	tests := map[State]float64{
		StateDisconnected: 0,
		StateConnecting:   1,
		StateConnected:    2,
	}
	for s, want := range tests {
		if got := s.gauge(); got != want {
			t.Errorf("%s.gauge() = %v, want %v", s, got, want)
		}
	}
}
