// Package metrics provides Prometheus metrics for the serial link and the
// pulse scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serialConnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledring",
		Subsystem: "serial",
		Name:      "connect_attempts_total",
		Help:      "Serial port open attempts by result",
	}, []string{"result"})

	serialState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledring",
		Subsystem: "serial",
		Name:      "state",
		Help:      "Connection state (0=disconnected, 1=connecting, 2=connected)",
	})

	serialCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledring",
		Subsystem: "serial",
		Name:      "commands_total",
		Help:      "Outbound commands by result (sent, dropped, failed)",
	}, []string{"result"})

	serialLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledring",
		Subsystem: "serial",
		Name:      "lines_total",
		Help:      "Non-empty lines read from the device",
	})
)

// State gauge values.
const (
	StateDisconnected = 0
	StateConnecting   = 1
	StateConnected    = 2
)

// ObserveConnectAttempt counts one open attempt.
func ObserveConnectAttempt(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	serialConnectAttempts.WithLabelValues(result).Inc()
}

// SetSerialState records the current connection state.
func SetSerialState(state float64) {
	serialState.Set(state)
}

// ObserveCommand counts one outbound command by result.
func ObserveCommand(result string) {
	serialCommands.WithLabelValues(result).Inc()
}

// IncSerialLines counts one inbound line.
func IncSerialLines() {
	serialLines.Inc()
}
