package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Port is an open serial link.
type Port io.ReadWriteCloser

// PortConfig carries the line settings used when opening a port.
type PortConfig struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// Opener opens the named port. It is the seam tests use to inject fake ports.
type Opener func(name string, cfg PortConfig) (Port, error)

// Driver names accepted by OpenerFor.
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// OpenerFor returns the opener for a driver name. An empty name selects the
// default go.bug.st/serial driver.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "", DriverBugst:
		return openBugst, nil
	case DriverTarm:
		return openTarm, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// openBugst opens the port 8N1 with go.bug.st/serial. A read that times out
// returns (0, nil).
func openBugst(name string, cfg PortConfig) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	p, err := bugst.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return p, nil
}

// openTarm opens the port with github.com/tarm/serial.
func openTarm(name string, cfg PortConfig) (Port, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        name,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return tarmPort{p}, nil
}

// tarmPort adapts tarm's timeout behavior, which surfaces an expired read
// timeout as io.EOF, to the (0, nil) contract of the other driver.
type tarmPort struct {
	*tarm.Port
}

func (p tarmPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return ports, nil
}
