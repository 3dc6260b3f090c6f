package led

import "github.com/smazurov/ledring/internal/logging"

// Indicator drives an on-board status LED of the host (not the ring).
// The Manager uses it to show the serial link state.
type Indicator interface {
	// Set controls an LED's state and optional pattern
	// Parameters:
	//   name:    board-specific LED identifier (e.g., "user", "system", "act")
	//   enabled: whether the LED should be on or off
	//   pattern: optional pattern ("solid", "blink", "heartbeat");
	//            empty string means no pattern change
	Set(name string, enabled bool, pattern string) error

	// Available returns the LED names supported on this board
	Available() []string

	// Patterns returns the patterns supported on this board
	Patterns() []string
}

// noopIndicator is used on boards without a controllable LED.
type noopIndicator struct {
	logger logging.Logger
}

func (n noopIndicator) Set(name string, enabled bool, pattern string) error {
	n.logger.Debug("Status LED not available (no-op)",
		"led", name,
		"enabled", enabled,
		"pattern", pattern)
	return nil
}

func (noopIndicator) Available() []string { return []string{} }

func (noopIndicator) Patterns() []string { return []string{} }
