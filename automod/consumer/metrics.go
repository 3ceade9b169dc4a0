package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_modlog_polls",
	Help: "Number of successful moderation-log polls",
})

var pollErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_modlog_poll_errors",
	Help: "Number of failed moderation-log polls",
})

var eventFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_modlog_event_failures",
	Help: "Number of mod-log entries the engine failed to process",
})

var cursorGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mmb_modlog_cursor",
	Help: "Created time (unix seconds) of the most recently handled mod-log entry",
})
