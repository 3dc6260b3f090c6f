package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/ledring/internal/logging"
)

// Handler serves every collector registered through promauto. A collector
// that fails to gather is reported in the log and skipped.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      promLogger{},
			ErrorHandling: promhttp.ContinueOnError,
		}),
	)
}

// promLogger routes promhttp errors to the metrics logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	logging.GetLogger("metrics").Warn("Metrics gathering error", "error", fmt.Sprint(v...))
}
