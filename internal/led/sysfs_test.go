package led

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func newTestSysfs(t *testing.T) (*sysfs, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ACT"), 0o755); err != nil {
		t.Fatal(err)
	}
	s := newSysfs(map[string]string{"system": "ACT", "user": "missing"})
	s.root = root
	return s, filepath.Join(root, "ACT")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestSysfsSet(t *testing.T) {
	tests := []struct {
		pattern     string
		enabled     bool
		wantTrigger string
		wantBright  string
	}{
		{"solid", true, "none", "1"},
		{"blink", true, "heartbeat", "1"},
		{"heartbeat", false, "heartbeat", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s, dir := newTestSysfs(t)
			if err := s.Set("system", tt.enabled, tt.pattern); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			if got := readFile(t, filepath.Join(dir, "trigger")); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if got := readFile(t, filepath.Join(dir, "brightness")); got != tt.wantBright {
				t.Errorf("brightness = %q, want %q", got, tt.wantBright)
			}
		})
	}
}

func TestSysfsSetWithoutPatternKeepsTrigger(t *testing.T) {
	s, dir := newTestSysfs(t)
	if err := s.Set("system", true, ""); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "trigger")); !os.IsNotExist(err) {
		t.Error("empty pattern should not write the trigger")
	}
}

func TestSysfsErrors(t *testing.T) {
	s, _ := newTestSysfs(t)

	if err := s.Set("bogus", true, "solid"); err == nil {
		t.Error("expected error for unsupported LED")
	}
	if err := s.Set("user", true, "solid"); err == nil {
		t.Error("expected error for LED missing from sysfs")
	}
}

func TestSysfsAvailable(t *testing.T) {
	s, _ := newTestSysfs(t)
	if got := s.Available(); !slices.Equal(got, []string{"system", "user"}) {
		t.Errorf("Available() = %v", got)
	}
	if got := s.Patterns(); len(got) != 3 {
		t.Errorf("Patterns() = %v", got)
	}
}
