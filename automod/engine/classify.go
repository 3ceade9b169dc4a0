package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mildlymodbot/mmb/automod/strikes"
)

// Name of the set (in the engine's SetStore) of lower-cased usernames which never receive strikes.
const ExemptUsersSet = "exempt-users"

// Decides what, if anything, to do about a single moderation-log event.
//
// Checks run in a fixed order: non-post events are ignored; posts already processed (per the seen store, or per the author's strike flair) are ignored; spam bots are banned; posts not flaired as removed are ignored; everything else escalates. Has no side effects.
func (eng *Engine) Classify(ctx context.Context, evt ModerationEvent) (Decision, error) {
	if evt.Action != ActionEditFlair {
		return ignore(evt, "action"), nil
	}
	if evt.TargetPermalink == "" {
		return ignore(evt, "not-post"), nil
	}
	postID := evt.PostID()
	if postID == "" {
		return ignore(evt, "not-post"), nil
	}

	seen, err := eng.Seen.Has(ctx, postID)
	if err != nil {
		return Decision{}, fmt.Errorf("checking seen store: %w", err)
	}
	if seen {
		return ignore(evt, "already-processed"), nil
	}

	post, err := eng.Platform.Post(ctx, postID)
	if err != nil {
		return Decision{}, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	if post == nil {
		return ignore(evt, "post-not-found"), nil
	}

	author := post.AuthorName
	if author == "" {
		author = evt.TargetAuthor
	}
	if author == "[deleted]" {
		author = ""
	}

	var prior strikes.FlairState
	if author != "" {
		prior, err = eng.fetchStrikes(ctx, author)
		if err != nil {
			return Decision{}, err
		}
		// covers replays after a restart with an empty seen store, and crashes between the flair write and recording the post
		if prior.Contains(post.ID) {
			dec := ignore(evt, "already-in-flair")
			dec.Post = post
			dec.Author = author
			return dec, nil
		}
	}

	if author != "" && eng.Policy.isSpamBot(post) {
		return Decision{
			Kind:   DecisionSpamBan,
			Event:  evt,
			Reason: "spam-bot",
			Post:   post,
			Author: author,
		}, nil
	}

	if !eng.Policy.isRemoval(post) {
		dec := ignore(evt, "not-removed")
		dec.Post = post
		return dec, nil
	}
	if author == "" {
		dec := ignore(evt, "no-author")
		dec.Post = post
		return dec, nil
	}

	exempt, err := eng.isExempt(ctx, author)
	if err != nil {
		return Decision{}, err
	}
	if exempt {
		dec := ignore(evt, "exempt")
		dec.Post = post
		dec.Author = author
		return dec, nil
	}

	return Decision{
		Kind:   DecisionEscalate,
		Event:  evt,
		Reason: "removed",
		Post:   post,
		Author: author,
		Prior:  prior,
	}, nil
}

// Fetches and decodes the user's current strike state. Malformed flair (eg, hand-edited by a moderator) counts as no strikes.
func (eng *Engine) fetchStrikes(ctx context.Context, user string) (strikes.FlairState, error) {
	raw, err := eng.Platform.UserFlair(ctx, user)
	if err != nil {
		return strikes.FlairState{}, fmt.Errorf("fetching flair for %s: %w", user, err)
	}
	state, err := strikes.Decode(raw)
	if errors.Is(err, strikes.ErrMalformedFlair) {
		eng.Logger.Warn("ignoring malformed strike flair", "user", user, "flair", raw)
		malformedFlairCount.Inc()
		return state, nil
	}
	if err != nil {
		return strikes.FlairState{}, err
	}
	return state, nil
}

// Exported for the admin API: current strike state for a user, straight from the platform.
func (eng *Engine) UserStrikes(ctx context.Context, user string) (strikes.FlairState, error) {
	return eng.fetchStrikes(ctx, user)
}

func (eng *Engine) isExempt(ctx context.Context, user string) (bool, error) {
	if eng.Sets == nil {
		return false, nil
	}
	ok, err := eng.Sets.InSet(ctx, ExemptUsersSet, strings.ToLower(user))
	if err != nil {
		return false, fmt.Errorf("checking exempt users: %w", err)
	}
	return ok, nil
}
