package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutationTotal counts committed structural and content mutations.
	mutationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_mutations_total",
			Help: "Total number of committed board mutations",
		},
		[]string{"entity", "action"},
	)

	// mutationFailures counts rejected or rolled back mutations by fault kind.
	mutationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_mutation_failures_total",
			Help: "Total number of rejected or rolled back board mutations",
		},
		[]string{"entity", "reason"},
	)

	// renumberSpan observes how many siblings a single mutation shifted.
	renumberSpan = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "board_renumber_span",
			Help:    "Number of sibling rows shifted by one ordinal mutation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"entity"},
	)

	// historyEntries counts appended audit trail entries.
	historyEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "board_history_entries_total",
			Help: "Total number of appended task history entries",
		},
	)
)

// RecordMutation tracks one committed mutation.
func RecordMutation(entity, action string) {
	mutationTotal.WithLabelValues(entity, action).Inc()
}

// RecordFailure tracks one rejected or rolled back mutation.
func RecordFailure(entity, reason string) {
	mutationFailures.WithLabelValues(entity, reason).Inc()
}

// RecordRenumberSpan tracks the width of a sibling shift.
func RecordRenumberSpan(entity string, shifted int) {
	if shifted < 0 {
		shifted = 0
	}
	renumberSpan.WithLabelValues(entity).Observe(float64(shifted))
}

// RecordHistoryEntry tracks one appended history entry.
func RecordHistoryEntry() {
	historyEntries.Inc()
}
