package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mildlymodbot/mmb/automod/countstore"
	"github.com/mildlymodbot/mmb/automod/strikes"

	"github.com/codeGROOVE-dev/retry"
)

var ErrBanFailed = errors.New("ban failed")

// Counter namespace (in the engine's CountStore) for moderation actions.
const actionCounterName = "mmb-action"

// cached record of recently-banned accounts
const bannedCacheName = "banned"

// Carries out a classification decision.
//
// The post is only recorded as processed after the side effects it depends on (removal, flair update, ban) succeeded. Failures to reply or send modmail are logged but don't fail the event.
func (eng *Engine) Apply(ctx context.Context, dec Decision) error {
	switch dec.Kind {
	case DecisionIgnore:
		return nil
	case DecisionSpamBan:
		return eng.applySpamBan(ctx, dec)
	case DecisionEscalate:
		return eng.applyEscalate(ctx, dec)
	default:
		return fmt.Errorf("unhandled decision kind: %d", dec.Kind)
	}
}

func (eng *Engine) applySpamBan(ctx context.Context, dec Decision) error {
	post := dec.Post
	logger := eng.Logger.With("post", post.ID, "author", dec.Author)

	if err := eng.ban(ctx, dec.Author, SpamBanReason); err != nil {
		return err
	}
	logger.Warn("banned spam account")

	if !post.Removed {
		if err := eng.Platform.RemovePost(ctx, post.ID); err != nil {
			return fmt.Errorf("removing spam post: %w", err)
		}
	}

	if err := eng.Platform.ReplyAndDistinguish(ctx, post.ID, SpamReplyText); err != nil {
		logger.Error("failed to reply to spam post", "err", err)
	}

	if err := eng.Seen.Record(ctx, post.ID); err != nil {
		return fmt.Errorf("recording processed post: %w", err)
	}

	actionSpamBanCount.Inc()
	eng.countAction(ctx, "spam-ban")
	eng.notifySlack(ctx, slackSpamBanBody(eng.Policy.Subreddit, dec.Author, post))
	return nil
}

func (eng *Engine) applyEscalate(ctx context.Context, dec Decision) error {
	post := dec.Post
	logger := eng.Logger.With("post", post.ID, "author", dec.Author)

	// enforce removal even if a human only flaired the post
	if !post.Removed {
		if err := eng.Platform.RemovePost(ctx, post.ID); err != nil {
			return fmt.Errorf("removing post: %w", err)
		}
	}

	next := strikes.Advance(dec.Prior, post.ID)
	if err := eng.Platform.SetUserFlair(ctx, dec.Author, next.String()); err != nil {
		return fmt.Errorf("updating strike flair: %w", err)
	}
	logger.Info("issued strike", "strikes", next.Count)
	actionStrikeCount.Inc()
	eng.countAction(ctx, "strike")

	banned := next.Banned(eng.Policy.banThreshold())
	if banned {
		if err := eng.ban(ctx, dec.Author, fmt.Sprintf("%d strikes", next.Count)); err != nil {
			return err
		}
		logger.Warn("banned account for strikes", "strikes", next.Count)
	}

	if err := eng.Seen.Record(ctx, post.ID); err != nil {
		return fmt.Errorf("recording processed post: %w", err)
	}

	if !banned {
		return nil
	}
	actionBanCount.Inc()
	eng.countAction(ctx, "ban")

	subject, body := ComposeBanMessage(eng.Policy.Subreddit, dec.Author, next)
	if err := eng.Platform.SendModmail(ctx, dec.Author, subject, body); err != nil {
		// the ban already happened; the message is a courtesy
		logger.Error("failed to send ban notification", "err", err)
		modmailFailureCount.Inc()
	}
	eng.notifySlack(ctx, slackStrikeBanBody(eng.Policy.Subreddit, dec.Author, next))
	return nil
}

// Bans the user, retrying on failure. Skips the API call if the account was banned recently.
func (eng *Engine) ban(ctx context.Context, user, reason string) error {
	key := strings.ToLower(user)
	if eng.Cache != nil {
		if _, ok, err := eng.Cache.Get(ctx, bannedCacheName, key); err != nil {
			eng.Logger.Warn("banned-account cache lookup failed", "user", user, "err", err)
		} else if ok {
			eng.Logger.Debug("skipping ban of recently banned account", "user", user)
			return nil
		}
	}

	attempts := eng.BanAttempts
	if attempts == 0 {
		attempts = 5
	}
	delay := eng.BanRetryDelay
	if delay == 0 {
		delay = 2 * time.Second
	}
	err := retry.Do(
		func() error {
			return eng.Platform.BanUser(ctx, user, reason)
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(time.Minute),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			eng.Logger.Warn("ban failed, will retry", "user", user, "attempt", n, "err", err)
		}),
	)
	if err != nil {
		banFailureCount.Inc()
		return fmt.Errorf("%w: %s: %w", ErrBanFailed, user, err)
	}

	if eng.Cache != nil {
		if err := eng.Cache.Set(ctx, bannedCacheName, key, reason); err != nil {
			eng.Logger.Warn("failed to cache banned account", "user", user, "err", err)
		}
	}
	return nil
}

// Bumps the action counter. Counters are informational, so failures are only logged.
func (eng *Engine) countAction(ctx context.Context, action string) {
	if eng.Counters == nil {
		return
	}
	if err := eng.Counters.Increment(ctx, actionCounterName, action); err != nil {
		eng.Logger.Warn("failed to increment action counter", "action", action, "err", err)
		return
	}
	if action != "ban" && action != "spam-ban" {
		return
	}
	total := 0
	for _, a := range []string{"ban", "spam-ban"} {
		c, err := eng.Counters.GetCount(ctx, actionCounterName, a, countstore.PeriodDay)
		if err != nil {
			eng.Logger.Warn("failed to read action counter", "action", a, "err", err)
			return
		}
		total += c
	}
	// alert exactly once, when crossing the quota
	if total == QuotaBansDay+1 {
		eng.Logger.Warn("daily ban quota exceeded", "bans", total, "quota", QuotaBansDay)
		eng.notifySlack(ctx, fmt.Sprintf("⚠️ mmb has banned more than %d accounts today in r/%s. Check that flairs are being applied correctly.\n", QuotaBansDay, eng.Policy.Subreddit))
	}
}
