package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "mmb_event_duration_sec",
	Help: "Total duration of moderation-log event processing",
}, []string{"decision"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mmb_event_processed",
	Help: "Number of events processed, by decision",
}, []string{"decision"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mmb_event_errors",
	Help: "Number of events which failed processing",
}, []string{"decision"})

var actionStrikeCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_action_strikes",
	Help: "Number of strikes issued",
})

var actionBanCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_action_bans",
	Help: "Number of accounts banned for reaching the strike threshold",
})

var actionSpamBanCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_action_spam_bans",
	Help: "Number of spam-bot accounts banned",
})

var banFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_ban_failures",
	Help: "Number of bans which failed after all retries",
})

var modmailFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_modmail_failures",
	Help: "Number of ban notifications which could not be sent",
})

var malformedFlairCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mmb_malformed_flairs",
	Help: "Number of user flairs which could not be decoded as strikes",
})
