package engine

import (
	"context"
)

// Everything the engine needs from the platform API. Implementations are expected to handle auth, rate-limits, and retrying transient failures themselves.
type Platform interface {
	// Raw strike flair text for the user, or empty string if they have none.
	UserFlair(ctx context.Context, user string) (string, error)
	SetUserFlair(ctx context.Context, user, text string) error
	Post(ctx context.Context, postID string) (*Post, error)
	// Idempotent.
	RemovePost(ctx context.Context, postID string) error
	// Idempotent: banning an already-banned (or no longer existing) account must not return an error.
	BanUser(ctx context.Context, user, reason string) error
	// Replies to the post as a distinguished, stickied moderator comment.
	ReplyAndDistinguish(ctx context.Context, postID, text string) error
	// Sends a modmail message from the subreddit to the user.
	SendModmail(ctx context.Context, to, subject, body string) error
}
