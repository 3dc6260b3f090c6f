package led

import (
	"os"
	"strings"
	"time"

	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Options selects and configures the controller.
type Options struct {
	// DryRun validates and logs requests without sending anything.
	DryRun bool
	// DefaultDelay is the pulse gap when a request sets none. Zero means
	// command.PulseDefaultDelay; negative means no gap.
	DefaultDelay time.Duration
}

// New returns the ring controller driving d, or a logging no-op controller
// for dry runs or when there is no dispatcher.
func New(d Dispatcher, opts Options, logger logging.Logger) Controller {
	switch {
	case opts.DefaultDelay == 0:
		opts.DefaultDelay = command.PulseDefaultDelay
	case opts.DefaultDelay < 0:
		opts.DefaultDelay = 0
	}

	if opts.DryRun || d == nil {
		logger.Info("LED ring in dry-run mode, commands are logged only")
		return newNoop(opts.DefaultDelay, logger)
	}
	return newRing(d, opts.DefaultDelay, logger)
}

// NewIndicator detects the board and returns an Indicator for its status
// LED. Falls back to a no-op indicator when none is known.
func NewIndicator(logger logging.Logger) Indicator {
	boardModel := detectBoard()
	logger.Debug("Detecting board for status LED", "board_model", boardModel)

	var leds map[string]string
	switch {
	case strings.Contains(boardModel, "NanoPC-T6"):
		leds = map[string]string{"user": "usr_led", "system": "sys_led"}
	case strings.Contains(boardModel, "Orange Pi"):
		leds = map[string]string{"system": "green_led", "blue": "blue_led"}
	case strings.Contains(boardModel, "Raspberry Pi"):
		leds = map[string]string{"system": "ACT"}
	default:
		logger.Debug("No status LED support detected, using no-op indicator", "board_model", boardModel)
		return noopIndicator{logger: logger}
	}

	logger.Info("Using sysfs status LED", "board_model", boardModel)
	return newSysfs(leds)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
