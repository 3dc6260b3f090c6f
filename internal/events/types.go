package events

// Event type constants for kelindar/event.
const (
	TypeConnectionStateChanged uint32 = iota + 1
	TypeCommandSent
	TypeDeviceLine
	TypePulseStateChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ConnectionStateChangedEvent is published on every serial state transition.
type ConnectionStateChangedEvent struct {
	Port      string `json:"port" example:"/dev/ttyACM0" doc:"Serial port name"`
	State     string `json:"state" example:"connected" doc:"New connection state"`
	Previous  string `json:"previous" example:"connecting" doc:"Previous connection state"`
	Attempt   int    `json:"attempt,omitempty" example:"3" doc:"Open attempts since the last connection"`
	Error     string `json:"error,omitempty" doc:"Last open or transport error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectionStateChangedEvent.
func (e ConnectionStateChangedEvent) Type() uint32 { return TypeConnectionStateChanged }

// CommandSentEvent reports the outcome of one outbound command.
type CommandSentEvent struct {
	Command   string `json:"command" example:"rgb:255,0,0" doc:"Command text"`
	Result    string `json:"result" example:"sent" doc:"sent, dropped or failed"`
	Error     string `json:"error,omitempty" doc:"Transport error when the write failed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandSentEvent.
func (e CommandSentEvent) Type() uint32 { return TypeCommandSent }

// DeviceLineEvent carries one decoded line read from the device.
type DeviceLineEvent struct {
	Port      string `json:"port" example:"/dev/ttyACM0" doc:"Serial port name"`
	Line      string `json:"line" example:"ready" doc:"Trimmed line text"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceLineEvent.
func (e DeviceLineEvent) Type() uint32 { return TypeDeviceLine }

// PulseStateChangedEvent is published when a pulse session starts or ends.
type PulseStateChangedEvent struct {
	Active     bool   `json:"active" example:"true" doc:"Whether a pulse is running"`
	Command    string `json:"command,omitempty" example:"pulse:255,0,0,2" doc:"Pulse command text"`
	PeriodMs   int64  `json:"period_ms,omitempty" example:"3000" doc:"Retransmission period"`
	Generation uint64 `json:"generation" example:"4" doc:"Session generation"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PulseStateChangedEvent.
func (e PulseStateChangedEvent) Type() uint32 { return TypePulseStateChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"serial" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
