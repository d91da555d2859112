package relations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relationCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_commands_total",
			Help: "Total number of relationship commands processed",
		},
		[]string{"action", "status"},
	)

	relationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_events_total",
			Help: "Total number of relationship change events published",
		},
		[]string{"kind"},
	)

	countsRecomputeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relation_counts_recompute_total",
			Help: "Total number of follow count recomputations",
		},
	)
)

func recordCommand(action string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	relationCommandsTotal.WithLabelValues(action, status).Inc()
}

func recordEvent(kind EventKind) {
	relationEventsTotal.WithLabelValues(string(kind)).Inc()
}
