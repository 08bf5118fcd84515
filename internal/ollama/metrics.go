package ollama

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "imagesaid",
		Subsystem: "ollama",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests to the inference server in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

func observe(op string, start time.Time, err error) {
	requestDuration.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
}
