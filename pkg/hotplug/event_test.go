package hotplug

import (
	"strings"
	"testing"
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected *Event
	}{
		{"empty input", []byte{}, nil},
		{"nil input", nil, nil},
		{"no @ separator", []byte("invalid"), nil},
		{"missing action", []byte("@/devices/foo"), nil},
		{"only null bytes", []byte{0, 0, 0, 0}, nil},
		{
			name:  "usb serial adapter added",
			input: []byte("add@/devices/pci0000:00/usb1/1-1/1-1:1.0/tty/ttyACM0\x00ACTION=add\x00DEVPATH=/devices/pci0000:00/usb1/1-1/1-1:1.0/tty/ttyACM0\x00SUBSYSTEM=tty\x00MAJOR=166\x00MINOR=0\x00DEVNAME=ttyACM0\x00"),
			expected: &Event{
				Action:    "add",
				KObj:      "/devices/pci0000:00/usb1/1-1/1-1:1.0/tty/ttyACM0",
				Subsystem: "tty",
				DevName:   "ttyACM0",
				DevPath:   "/devices/pci0000:00/usb1/1-1/1-1:1.0/tty/ttyACM0",
				Env: map[string]string{
					"ACTION":    "add",
					"DEVPATH":   "/devices/pci0000:00/usb1/1-1/1-1:1.0/tty/ttyACM0",
					"SUBSYSTEM": "tty",
					"MAJOR":     "166",
					"MINOR":     "0",
					"DEVNAME":   "ttyACM0",
				},
			},
		},
		{
			name:  "usb device removed",
			input: []byte("remove@/devices/usb/1-1\x00SUBSYSTEM=usb\x00DEVTYPE=usb_device\x00DEVPATH=/devices/usb/1-1\x00PRODUCT=2341/43/1\x00"),
			expected: &Event{
				Action:    "remove",
				KObj:      "/devices/usb/1-1",
				Subsystem: "usb",
				DevType:   "usb_device",
				DevPath:   "/devices/usb/1-1",
				Env: map[string]string{
					"SUBSYSTEM": "usb",
					"DEVTYPE":   "usb_device",
					"DEVPATH":   "/devices/usb/1-1",
					"PRODUCT":   "2341/43/1",
				},
			},
		},
		{
			name:  "empty values and trailing nulls",
			input: []byte("bind@/devices/test\x00KEY1=value1\x00KEY2=\x00\x00\x00"),
			expected: &Event{
				Action: "bind",
				KObj:   "/devices/test",
				Env:    map[string]string{"KEY1": "value1", "KEY2": ""},
			},
		},
		{
			name:  "equals in value",
			input: []byte("add@/dev/foo\x00KEY=val=ue\x00"),
			expected: &Event{
				Action: "add",
				KObj:   "/dev/foo",
				Env:    map[string]string{"KEY": "val=ue"},
			},
		},
		{
			name:  "very long path",
			input: []byte("add@/devices/" + strings.Repeat("a", 500) + "\x00"),
			expected: &Event{
				Action: "add",
				KObj:   "/devices/" + strings.Repeat("a", 500),
				Env:    map[string]string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseUEvent(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %+v", result)
				}
				return
			}
			if result == nil {
				t.Fatalf("expected %+v, got nil", tt.expected)
			}

			if result.Action != tt.expected.Action {
				t.Errorf("Action: expected %q, got %q", tt.expected.Action, result.Action)
			}
			if result.KObj != tt.expected.KObj {
				t.Errorf("KObj: expected %q, got %q", tt.expected.KObj, result.KObj)
			}
			if result.Subsystem != tt.expected.Subsystem {
				t.Errorf("Subsystem: expected %q, got %q", tt.expected.Subsystem, result.Subsystem)
			}
			if result.DevType != tt.expected.DevType {
				t.Errorf("DevType: expected %q, got %q", tt.expected.DevType, result.DevType)
			}
			if result.DevName != tt.expected.DevName {
				t.Errorf("DevName: expected %q, got %q", tt.expected.DevName, result.DevName)
			}
			if result.DevPath != tt.expected.DevPath {
				t.Errorf("DevPath: expected %q, got %q", tt.expected.DevPath, result.DevPath)
			}
			if len(result.Env) != len(tt.expected.Env) {
				t.Errorf("Env length: expected %d, got %d", len(tt.expected.Env), len(result.Env))
			}
			for k, v := range tt.expected.Env {
				if result.Env[k] != v {
					t.Errorf("Env[%q]: expected %q, got %q", k, v, result.Env[k])
				}
			}
		})
	}
}

func TestEventDevNode(t *testing.T) {
	tests := []struct {
		devName string
		want    string
	}{
		{"ttyACM0", "/dev/ttyACM0"},
		{"/dev/ttyUSB1", "/dev/ttyUSB1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := (Event{DevName: tt.devName}).DevNode(); got != tt.want {
			t.Errorf("DevNode(%q) = %q, want %q", tt.devName, got, tt.want)
		}
	}
}

func TestFilterSet(t *testing.T) {
	var empty filterSet
	if !empty.allows(SubsystemUSB) {
		t.Error("empty filter should pass everything")
	}

	f := filterSet{SubsystemTTY: {}}
	if !f.allows(SubsystemTTY) {
		t.Error("tty should pass")
	}
	if f.allows(SubsystemUSB) {
		t.Error("usb should be filtered")
	}
}
