package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mildlymodbot/mmb/automod/engine"
	"github.com/mildlymodbot/mmb/reddit"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

var modlogCursorKey = "mmb/modlogTimestamp"

// number of recent mod-log entry IDs remembered, to skip entries which show up in more than one poll
const seenEntriesSize = 301

// Anything which can return recent moderation-log entries, newest first.
type ModLogSource interface {
	ModLog(ctx context.Context, action string, limit int) ([]engine.ModerationEvent, error)
}

type ModLogConsumer struct {
	Logger      *slog.Logger
	RedisClient *redis.Client
	Source      ModLogSource
	Engine      *engine.Engine

	// mod-log action type to poll for; defaults to editflair
	Action string
	// max entries per poll
	Limit int
	// poll interval backs off from MinPollPeriod up to MaxPollPeriod when idle
	MinPollPeriod time.Duration
	MaxPollPeriod time.Duration

	seen *lru.Cache[string, struct{}]
	// created time of the most recent entry handled. stores a time.Time; periodically persisted to redis
	lastCursor atomic.Value
}

func (mc *ModLogConsumer) init() error {
	if mc.Engine == nil {
		return fmt.Errorf("nil engine")
	}
	if mc.Source == nil {
		return fmt.Errorf("nil mod-log source")
	}
	if mc.Logger == nil {
		mc.Logger = slog.Default()
	}
	if mc.Action == "" {
		mc.Action = engine.ActionEditFlair
	}
	if mc.Limit <= 0 {
		mc.Limit = 100
	}
	if mc.MinPollPeriod <= 0 {
		mc.MinPollPeriod = time.Second
	}
	if mc.MaxPollPeriod < mc.MinPollPeriod {
		mc.MaxPollPeriod = 16 * time.Second
	}
	if mc.seen == nil {
		seen, err := lru.New[string, struct{}](seenEntriesSize)
		if err != nil {
			return err
		}
		mc.seen = seen
	}
	return nil
}

// Polls the moderation log until the context is cancelled, feeding new entries to the engine one at a time.
//
// Only returns early (with an error) if the account lacks moderator permissions.
func (mc *ModLogConsumer) Run(ctx context.Context) error {
	if err := mc.init(); err != nil {
		return err
	}

	since, err := mc.ReadLastCursor(ctx)
	if err != nil {
		return err
	}
	// with no stored cursor, start from now rather than replaying the whole page
	if since.IsZero() {
		since = time.Now()
	}
	mc.lastCursor.Store(since)

	mc.Logger.Info("polling moderation log", "action", mc.Action, "cursor", since)
	period := mc.MinPollPeriod
	for {
		n, err := mc.Poll(ctx)
		if errors.Is(err, reddit.ErrInsufficientPrivilege) {
			mc.Logger.Error("account lacks moderator permissions for the moderation log", "err", err)
			return err
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			pollErrorCount.Inc()
			mc.Logger.Warn("mod-log fetch failed; sleeping then will retry", "err", err, "period", mc.MaxPollPeriod.String())
			period = mc.MaxPollPeriod
		} else if n > 0 {
			period = mc.MinPollPeriod
		} else {
			mc.Logger.Debug("... mod-log poller sleeping", "period", period.String())
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(period):
		}
		if err == nil && n == 0 {
			period = min(period*2, mc.MaxPollPeriod)
		}
	}
}

// Fetches one page of the moderation log and processes new entries oldest-first. Returns the number of new entries.
func (mc *ModLogConsumer) Poll(ctx context.Context) (int, error) {
	if err := mc.init(); err != nil {
		return 0, err
	}
	entries, err := mc.Source.ModLog(ctx, mc.Action, mc.Limit)
	if err != nil {
		return 0, err
	}
	pollCount.Inc()

	var since time.Time
	if v := mc.lastCursor.Load(); v != nil {
		since = v.(time.Time)
	}

	handled := 0
	for i := len(entries) - 1; i >= 0; i-- {
		evt := entries[i]
		if mc.seen.Contains(evt.ID) {
			continue
		}
		// entries in the same second as the cursor may not have been handled yet; the seen store makes re-handling harmless
		if !since.IsZero() && evt.CreatedAt.Before(since) {
			continue
		}
		mc.seen.Add(evt.ID, struct{}{})
		handled++
		mc.HandleEvent(ctx, evt)
		if evt.CreatedAt.After(since) {
			since = evt.CreatedAt
			mc.lastCursor.Store(since)
			cursorGauge.Set(float64(since.Unix()))
		}
	}
	return handled, nil
}

func (mc *ModLogConsumer) HandleEvent(ctx context.Context, evt engine.ModerationEvent) {
	mc.Logger.Debug("received mod-log entry", "id", evt.ID, "action", evt.Action, "target", evt.TargetID, "createdAt", evt.CreatedAt)
	if err := mc.Engine.ProcessEvent(ctx, evt); err != nil {
		eventFailureCount.Inc()
		mc.Logger.Error("engine failed to process mod-log entry", "id", evt.ID, "target", evt.TargetID, "err", err)
	}
}

// Current cursor position; zero time until Run starts or an entry is handled.
func (mc *ModLogConsumer) Cursor() time.Time {
	if v := mc.lastCursor.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

func (mc *ModLogConsumer) ReadLastCursor(ctx context.Context) (time.Time, error) {
	// if redis isn't configured, just skip
	if mc.RedisClient == nil {
		mc.Logger.Info("redis not configured, skipping mod-log cursor read")
		return time.Time{}, nil
	}

	val, err := mc.RedisClient.Get(ctx, modlogCursorKey).Result()
	if err == redis.Nil || val == "" {
		mc.Logger.Info("no pre-existing mod-log cursor in redis")
		return time.Time{}, nil
	} else if err != nil {
		return time.Time{}, err
	}
	cur, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid mod-log cursor in redis: %w", err)
	}
	mc.Logger.Info("successfully found prior mod-log cursor in redis", "cursor", cur)
	return cur, nil
}

func (mc *ModLogConsumer) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if mc.RedisClient == nil {
		return nil
	}
	cur := mc.Cursor()
	if cur.IsZero() {
		return nil
	}
	return mc.RedisClient.Set(ctx, modlogCursorKey, cur.UTC().Format(time.RFC3339), 14*24*time.Hour).Err()
}

// this method runs in a loop, persisting the current cursor state every 5 seconds
func (mc *ModLogConsumer) RunPersistCursor(ctx context.Context) error {

	// if redis isn't configured, just skip
	if mc.RedisClient == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cur := mc.Cursor()
			if !cur.IsZero() {
				mc.Logger.Info("persisting final mod-log cursor", "cursor", cur)
				// parent context is already cancelled
				if err := mc.PersistCursor(context.Background()); err != nil {
					mc.Logger.Error("failed to persist mod-log cursor", "err", err, "cursor", cur)
				}
			}
			return nil
		case <-ticker.C:
			if err := mc.PersistCursor(ctx); err != nil {
				mc.Logger.Error("failed to persist mod-log cursor", "err", err, "cursor", mc.Cursor())
			}
		}
	}
}
