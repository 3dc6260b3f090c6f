// Package cmd holds the one-shot subcommands of the ledring binary.
package cmd

import (
	"time"

	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/serial"
)

// SerialSettings is the part of the daemon configuration the one-shot
// commands need to reach the ring.
type SerialSettings struct {
	Port        string
	BaudRate    int
	Driver      string
	SettleDelay time.Duration
	PulseDelay  time.Duration
}

var settings = SerialSettings{
	Port:        serial.DefaultPort,
	BaudRate:    serial.DefaultBaudRate,
	Driver:      serial.DriverBugst,
	SettleDelay: serial.DefaultSettleDelay,
	PulseDelay:  command.PulseDefaultDelay,
}

// SetSerialSettings sets the link configuration after flags, env and the
// config file have been applied.
func SetSerialSettings(s SerialSettings) {
	settings = s
}
