package nats

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Subjects used by the daemon.
const (
	SubjectCommands     = "ledring.commands"
	SubjectDevicePrefix = "ledring.device"
	SubjectDeviceLines  = SubjectDevicePrefix + ".lines"
	SubjectDeviceState  = SubjectDevicePrefix + ".state"
)

// ErrEmptyCommand is returned for a command message with no command text.
var ErrEmptyCommand = errors.New("empty command")

// CommandMessage asks the daemon to send a wire command to the ring.
type CommandMessage struct {
	Command string `json:"command"`
}

// Marshal serializes the message to JSON.
func (m CommandMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ReplyMessage answers a command request.
type ReplyMessage struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Marshal serializes the message to JSON.
func (m ReplyMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// LineMessage carries one line read from the device.
type LineMessage struct {
	Port      string `json:"port"`
	Line      string `json:"line"`
	Timestamp string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m LineMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// StateMessage reports a serial connection state change.
type StateMessage struct {
	Port      string `json:"port"`
	State     string `json:"state"` // disconnected, connecting, connected
	Previous  string `json:"previous"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalCommand decodes a command payload. A payload that is not a JSON
// object is taken as the command text itself.
func UnmarshalCommand(data []byte) (CommandMessage, error) {
	var m CommandMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return CommandMessage{}, err
		}
	} else {
		m.Command = string(trimmed)
	}

	m.Command = strings.TrimSpace(m.Command)
	if m.Command == "" {
		return CommandMessage{}, ErrEmptyCommand
	}
	return m, nil
}

// UnmarshalReply deserializes a ReplyMessage from JSON.
func UnmarshalReply(data []byte) (ReplyMessage, error) {
	var m ReplyMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalLine deserializes a LineMessage from JSON.
func UnmarshalLine(data []byte) (LineMessage, error) {
	var m LineMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalState deserializes a StateMessage from JSON.
func UnmarshalState(data []byte) (StateMessage, error) {
	var m StateMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
