// Package command defines the ASCII command vocabulary understood by the LED
// ring firmware and helpers to build and validate command strings.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fixed commands.
const (
	Rainbow   = "1"
	ColorWipe = "3"
	Sparkle   = "4"
	Stop      = "stop"
)

// Prefixes of parameterized commands.
const (
	PulsePrefix = "pulse:"
	ChasePrefix = "chase:"
	SolidPrefix = "rgb:"
)

// Pulse parameter bounds.
const (
	PulseMinSpeed     = 1
	PulseDefaultSpeed = 1
	PulseMinDelay     = 0
	PulseDefaultDelay = 1000 * time.Millisecond
)

var (
	// ErrInvalidColor is returned for malformed hex colors or RGB triplets.
	ErrInvalidColor = errors.New("invalid color")
	// ErrUnknownCommand is returned for text outside the command vocabulary.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidPulse is returned for malformed pulse commands.
	ErrInvalidPulse = errors.New("invalid pulse command")
)

// Solid returns the command that sets the whole ring to c.
func Solid(c RGB) string {
	return SolidPrefix + c.String()
}

// Chase returns the color chase command for c.
func Chase(c RGB) string {
	return ChasePrefix + c.String()
}

// Pulse returns the pulse command for c breathing over speed seconds.
func Pulse(c RGB, speed int) string {
	return fmt.Sprintf("%s%s,%d", PulsePrefix, c.String(), speed)
}

// IsPulse reports whether cmd starts a pulse effect.
func IsPulse(cmd string) bool {
	return strings.HasPrefix(cmd, PulsePrefix)
}

// ParsePulse extracts the color and speed of a pulse command.
func ParsePulse(cmd string) (RGB, int, error) {
	if !IsPulse(cmd) {
		return RGB{}, 0, fmt.Errorf("%w: %q", ErrInvalidPulse, cmd)
	}
	fields := strings.Split(strings.TrimPrefix(cmd, PulsePrefix), ",")
	if len(fields) != 4 {
		return RGB{}, 0, fmt.Errorf("%w: %q: want R,G,B,speed", ErrInvalidPulse, cmd)
	}
	c, err := parseTriplet(fields[:3])
	if err != nil {
		return RGB{}, 0, fmt.Errorf("%w: %w", ErrInvalidPulse, err)
	}
	speed, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil || speed < PulseMinSpeed {
		return RGB{}, 0, fmt.Errorf("%w: speed %q", ErrInvalidPulse, fields[3])
	}
	return c, speed, nil
}

// PulsePeriod returns the retransmission period of a pulse: the speed in
// whole seconds plus the extra gap between pulses.
func PulsePeriod(speed int, delay time.Duration) time.Duration {
	return time.Duration(speed)*time.Second + delay
}

// Validate checks cmd against the command vocabulary.
func Validate(cmd string) error {
	switch cmd {
	case Rainbow, ColorWipe, Sparkle, Stop:
		return nil
	}

	switch {
	case IsPulse(cmd):
		_, _, err := ParsePulse(cmd)
		return err
	case strings.HasPrefix(cmd, ChasePrefix):
		_, err := parseTriplet(strings.Split(strings.TrimPrefix(cmd, ChasePrefix), ","))
		return err
	case strings.HasPrefix(cmd, SolidPrefix):
		_, err := parseTriplet(strings.Split(strings.TrimPrefix(cmd, SolidPrefix), ","))
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}
