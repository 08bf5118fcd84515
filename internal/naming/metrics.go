package naming

import "github.com/prometheus/client_golang/prometheus"

var (
	compressionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagesaid",
			Name:      "compression_total",
			Help:      "Image compression outcomes (quality, resize, fallback)",
		},
		[]string{"outcome"},
	)
	namesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagesaid",
			Name:      "names_total",
			Help:      "Naming pipeline invocations by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(compressionTotal, namesTotal)
}
