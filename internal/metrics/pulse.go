package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pulseTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledring",
		Subsystem: "pulse",
		Name:      "ticks_total",
		Help:      "Pulse retransmissions, including the initial send",
	})

	pulseActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledring",
		Subsystem: "pulse",
		Name:      "active",
		Help:      "1 while a pulse session is scheduling retransmissions",
	})
)

// IncPulseTicks counts one pulse transmission.
func IncPulseTicks() {
	pulseTicks.Inc()
}

// SetPulseActive records whether a pulse session is running.
func SetPulseActive(active bool) {
	if active {
		pulseActive.Set(1)
		return
	}
	pulseActive.Set(0)
}
