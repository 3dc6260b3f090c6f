package led

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestBuild(t *testing.T) {
	const def = time.Second

	tests := []struct {
		name    string
		req     Request
		want    Plan
		wantErr error
	}{
		{"rainbow", Request{Effect: EffectRainbow}, Plan{Command: "1"}, nil},
		{"color wipe", Request{Effect: EffectColorWipe}, Plan{Command: "3"}, nil},
		{"sparkle", Request{Effect: EffectSparkle}, Plan{Command: "4"}, nil},
		{"stop", Request{Effect: EffectStop}, Plan{Command: "stop"}, nil},
		{"case and space", Request{Effect: " Rainbow "}, Plan{Command: "1"}, nil},
		{"solid", Request{Effect: EffectSolid, Color: "#FF5733"}, Plan{Command: "rgb:255,87,51"}, nil},
		{"solid without hash", Request{Effect: EffectSolid, Color: "00ff00"}, Plan{Command: "rgb:0,255,0"}, nil},
		{"chase", Request{Effect: EffectChase, Color: "#0000FF"}, Plan{Command: "chase:0,0,255"}, nil},
		{
			"pulse defaults",
			Request{Effect: EffectPulse, Color: "#FF0000"},
			Plan{Command: "pulse:255,0,0,1", Pulse: true, Speed: 1, Delay: def},
			nil,
		},
		{
			"pulse explicit",
			Request{Effect: EffectPulse, Color: "#010203", Speed: 3, DelayMs: intPtr(250)},
			Plan{Command: "pulse:1,2,3,3", Pulse: true, Speed: 3, Delay: 250 * time.Millisecond},
			nil,
		},
		{
			"pulse zero delay",
			Request{Effect: EffectPulse, Color: "#010203", DelayMs: intPtr(0)},
			Plan{Command: "pulse:1,2,3,1", Pulse: true, Speed: 1},
			nil,
		},
		{
			"raw pulse uses default delay",
			Request{Effect: EffectRaw, Command: "pulse:9,8,7,2"},
			Plan{Command: "pulse:9,8,7,2", Pulse: true, Speed: 2, Delay: def},
			nil,
		},
		{"raw solid", Request{Effect: EffectRaw, Command: " rgb:1,2,3 "}, Plan{Command: "rgb:1,2,3"}, nil},
		{"solid missing color", Request{Effect: EffectSolid}, Plan{}, ErrInvalidRequest},
		{"solid bad color", Request{Effect: EffectSolid, Color: "#GG0000"}, Plan{}, ErrInvalidRequest},
		{"pulse negative speed", Request{Effect: EffectPulse, Color: "#000000", Speed: -1}, Plan{}, ErrInvalidRequest},
		{"pulse negative delay", Request{Effect: EffectPulse, Color: "#000000", DelayMs: intPtr(-5)}, Plan{}, ErrInvalidRequest},
		{"raw unknown", Request{Effect: EffectRaw, Command: "blink"}, Plan{}, ErrInvalidRequest},
		{"unknown effect", Request{Effect: "strobe"}, Plan{}, ErrUnsupportedEffect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.req, def)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Build() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
