package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mildlymodbot/mmb/automod/cachestore"
	"github.com/mildlymodbot/mmb/automod/countstore"
	"github.com/mildlymodbot/mmb/automod/seenstore"
	"github.com/mildlymodbot/mmb/automod/setstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("automod/engine")

// runtime for classifying moderation-log events, tracking strikes, and issuing bans.
//
// Events must be processed one at a time: strike state is a read-modify-write of the user's flair, which the platform does not do atomically.
//
// NOTE: Platform and Seen must not be nil. Counters, Cache and Sets are optional.
type Engine struct {
	Logger   *slog.Logger
	Platform Platform
	Policy   Policy
	// posts which already had a strike or spam-ban decision applied
	Seen     seenstore.SeenStore
	Counters countstore.CountStore
	Cache    cachestore.CacheStore
	Sets     setstore.SetStore
	// optional; moderator-facing notifications of bans
	SlackWebhookURL string

	// ban retry behavior; defaults apply when zero
	BanAttempts   uint
	BanRetryDelay time.Duration
}

// Classifies and then acts on a single moderation-log event.
//
// Ignored events are not an error. An error means some side effect failed and the post was not recorded as processed, so a replay of the same event may try again.
func (eng *Engine) ProcessEvent(ctx context.Context, evt ModerationEvent) (err error) {
	ctx, span := tracer.Start(ctx, "ProcessEvent", trace.WithAttributes(
		attribute.String("event.id", evt.ID),
		attribute.String("event.action", evt.Action),
		attribute.String("event.target", evt.TargetID),
	))
	defer span.End()

	start := time.Now()
	kind := "unknown"

	// similar to an HTTP server, we want to recover any panics from event processing
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("mmb event execution exception", "err", r, "event", evt.ID, "target", evt.TargetID)
			err = fmt.Errorf("panic processing event %s: %v", evt.ID, r)
		}
		if err != nil {
			eventErrorCount.WithLabelValues(kind).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		eventProcessDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	dec, err := eng.Classify(ctx, evt)
	if err != nil {
		return fmt.Errorf("classifying event %s: %w", evt.ID, err)
	}
	kind = dec.Kind.String()
	span.SetAttributes(attribute.String("decision", kind))

	if err := eng.Apply(ctx, dec); err != nil {
		return fmt.Errorf("applying %s decision for event %s: %w", kind, evt.ID, err)
	}
	eventProcessCount.WithLabelValues(kind).Inc()
	eng.canonicalLogLine(dec)
	return nil
}

// One log line per processed event, with the decision and reason.
func (eng *Engine) canonicalLogLine(dec Decision) {
	args := []any{
		"event", dec.Event.ID,
		"target", dec.Event.TargetID,
		"decision", dec.Kind.String(),
	}
	if dec.Reason != "" {
		args = append(args, "reason", dec.Reason)
	}
	if dec.Author != "" {
		args = append(args, "author", dec.Author)
	}
	if dec.Kind == DecisionEscalate {
		args = append(args, "priorStrikes", dec.Prior.Count)
	}
	if dec.Kind == DecisionIgnore {
		eng.Logger.Debug("canonical-event-line", args...)
	} else {
		eng.Logger.Info("canonical-event-line", args...)
	}
}
