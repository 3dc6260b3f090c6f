package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveConnectAttempt(t *testing.T) {
	before := testutil.ToFloat64(serialConnectAttempts.WithLabelValues("failure"))
	ObserveConnectAttempt(false)
	ObserveConnectAttempt(false)
	ObserveConnectAttempt(true)

	if got := testutil.ToFloat64(serialConnectAttempts.WithLabelValues("failure")) - before; got != 2 {
		t.Errorf("failure attempts = %v, want 2", got)
	}
}

func TestObserveCommand(t *testing.T) {
	tests := []string{"sent", "dropped", "failed"}
	for _, result := range tests {
		before := testutil.ToFloat64(serialCommands.WithLabelValues(result))
		ObserveCommand(result)
		if got := testutil.ToFloat64(serialCommands.WithLabelValues(result)) - before; got != 1 {
			t.Errorf("%s commands delta = %v, want 1", result, got)
		}
	}
}

func TestGauges(t *testing.T) {
	SetSerialState(StateConnected)
	if got := testutil.ToFloat64(serialState); got != StateConnected {
		t.Errorf("serial state = %v, want %v", got, StateConnected)
	}

	SetPulseActive(true)
	if got := testutil.ToFloat64(pulseActive); got != 1 {
		t.Errorf("pulse active = %v, want 1", got)
	}
	SetPulseActive(false)
	if got := testutil.ToFloat64(pulseActive); got != 0 {
		t.Errorf("pulse active = %v, want 0", got)
	}
}

func TestCounters(t *testing.T) {
	lines := testutil.ToFloat64(serialLines)
	ticks := testutil.ToFloat64(pulseTicks)

	IncSerialLines()
	IncPulseTicks()
	IncPulseTicks()

	if got := testutil.ToFloat64(serialLines) - lines; got != 1 {
		t.Errorf("lines delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pulseTicks) - ticks; got != 2 {
		t.Errorf("ticks delta = %v, want 2", got)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("get-status", "200"))
	ObserveHTTPRequest("get-status", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("get-status", "200")) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(httpDuration); n == 0 {
		t.Error("duration histogram has no series")
	}
}
