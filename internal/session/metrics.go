package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Active quiz sessions started (fresh, retry, or resumed).",
	})
	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_completed_total",
		Help: "Quiz sessions graded, by submit or timer expiry.",
	})
	snapshotWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_snapshot_write_failures_total",
		Help: "Progress snapshot writes rejected by the slot store.",
	})
)
