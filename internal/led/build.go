package led

import (
	"fmt"
	"strings"
	"time"

	"github.com/smazurov/ledring/internal/command"
)

// Plan is the wire form of a Request.
type Plan struct {
	Command string
	Pulse   bool
	Speed   int
	Delay   time.Duration
}

// Build validates req and translates it to a wire command. defaultDelay is
// the pulse gap used when the request does not set one.
func Build(req Request, defaultDelay time.Duration) (Plan, error) {
	switch strings.ToLower(strings.TrimSpace(req.Effect)) {
	case EffectRainbow:
		return Plan{Command: command.Rainbow}, nil
	case EffectColorWipe:
		return Plan{Command: command.ColorWipe}, nil
	case EffectSparkle:
		return Plan{Command: command.Sparkle}, nil
	case EffectStop:
		return Plan{Command: command.Stop}, nil

	case EffectSolid:
		c, err := parseColor(req.Color)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Command: command.Solid(c)}, nil

	case EffectChase:
		c, err := parseColor(req.Color)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Command: command.Chase(c)}, nil

	case EffectPulse:
		c, err := parseColor(req.Color)
		if err != nil {
			return Plan{}, err
		}
		speed := req.Speed
		if speed == 0 {
			speed = command.PulseDefaultSpeed
		}
		if speed < command.PulseMinSpeed {
			return Plan{}, fmt.Errorf("%w: speed %d below %d", ErrInvalidRequest, speed, command.PulseMinSpeed)
		}
		delay := defaultDelay
		if req.DelayMs != nil {
			if *req.DelayMs < command.PulseMinDelay {
				return Plan{}, fmt.Errorf("%w: delay_ms %d below %d", ErrInvalidRequest, *req.DelayMs, command.PulseMinDelay)
			}
			delay = time.Duration(*req.DelayMs) * time.Millisecond
		}
		return Plan{Command: command.Pulse(c, speed), Pulse: true, Speed: speed, Delay: delay}, nil

	case EffectRaw:
		cmd := strings.TrimSpace(req.Command)
		if err := command.Validate(cmd); err != nil {
			return Plan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		plan := Plan{Command: cmd}
		if command.IsPulse(cmd) {
			_, speed, _ := command.ParsePulse(cmd)
			plan.Pulse, plan.Speed, plan.Delay = true, speed, defaultDelay
		}
		return plan, nil

	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnsupportedEffect, req.Effect)
	}
}

func parseColor(hex string) (command.RGB, error) {
	if strings.TrimSpace(hex) == "" {
		return command.RGB{}, fmt.Errorf("%w: color is required", ErrInvalidRequest)
	}
	c, err := command.HexToRGB(hex)
	if err != nil {
		return command.RGB{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return c, nil
}
