package serial

import (
	"errors"
	"strings"

	bugst "go.bug.st/serial"
)

var (
	// ErrNotConnected is returned by Send when the port is not connected.
	ErrNotConnected = errors.New("serial port not connected")
	// ErrUnknownDriver is returned for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown serial driver")
	// ErrClosed is returned by Connect and Run after Close.
	ErrClosed = errors.New("serial manager closed")
)

// IsDisconnection reports whether err means the device went away, as
// opposed to a configuration or permission problem.
func IsDisconnection(err error) bool {
	if err == nil {
		return false
	}

	if code, ok := portErrorCode(err); ok {
		switch code {
		case bugst.PortNotFound, bugst.PortClosed, bugst.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	// OS-level errors that the drivers return unwrapped.
	msg := strings.ToLower(err.Error())
	for _, s := range disconnectionMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var disconnectionMessages = []string{
	"device not configured",
	"input/output error",
	"no such device",
	"device not found",
	"broken pipe",
	"device disconnected",
	"file already closed",
	"bad file descriptor",
	"the device does not recognize the command",
}

// portErrorCode extracts the go.bug.st/serial error code. The library
// returns *PortError from Open and PortError values elsewhere.
func portErrorCode(err error) (bugst.PortErrorCode, bool) {
	var ptr *bugst.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val bugst.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
