package led

import "errors"

// Effect names accepted in a Request.
const (
	EffectRainbow   = "rainbow"
	EffectPulse     = "pulse"
	EffectColorWipe = "color-wipe"
	EffectSparkle   = "sparkle"
	EffectChase     = "chase"
	EffectSolid     = "solid"
	EffectStop      = "stop"
	EffectRaw       = "raw"
)

var (
	// ErrUnsupportedEffect is returned for an unknown effect name.
	ErrUnsupportedEffect = errors.New("unsupported effect")
	// ErrInvalidRequest is returned when an effect's parameters are invalid.
	ErrInvalidRequest = errors.New("invalid effect request")
)

// Request selects an effect on the ring.
type Request struct {
	Effect  string `json:"effect" example:"pulse" doc:"Effect name"`
	Color   string `json:"color,omitempty" example:"#FF5733" doc:"Hex color for solid, chase and pulse"`
	Speed   int    `json:"speed,omitempty" example:"2" doc:"Pulse duration in whole seconds (min 1, default 1)"`
	DelayMs *int   `json:"delay_ms,omitempty" example:"1000" doc:"Extra gap between pulses in ms (min 0, default 1000)"`
	Command string `json:"command,omitempty" example:"rgb:255,0,0" doc:"Raw wire command for the raw effect"`
}

// Controller is the effect-level facade every front end drives.
type Controller interface {
	// Set applies the requested effect, replacing whatever runs now.
	Set(req Request) error

	// Available returns every effect name Set accepts.
	Available() []string

	// Patterns returns the built-in animations that need no parameters.
	Patterns() []string
}

var (
	effects  = []string{EffectRainbow, EffectPulse, EffectColorWipe, EffectSparkle, EffectChase, EffectSolid, EffectStop, EffectRaw}
	patterns = []string{EffectRainbow, EffectColorWipe, EffectSparkle}
)

// Effects returns every supported effect name.
func Effects() []string {
	return append([]string(nil), effects...)
}

// BuiltinPatterns returns the parameterless animations.
func BuiltinPatterns() []string {
	return append([]string(nil), patterns...)
}
