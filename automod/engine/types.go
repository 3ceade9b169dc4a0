package engine

import (
	"strings"
	"time"

	"github.com/mildlymodbot/mmb/automod/strikes"
)

// The only moderation-log action type the engine acts on.
const ActionEditFlair = "editflair"

// One entry from the subreddit moderation log. Immutable.
type ModerationEvent struct {
	// Mod-log entry identifier (eg, "ModAction_...")
	ID        string
	Action    string
	CreatedAt time.Time
	Moderator string
	// Account that authored the target, if any
	TargetAuthor string
	// Fullname of the target, with type prefix (eg, "t3_abc123" for a post)
	TargetID string
	// Only set for post-level (and comment-level) actions
	TargetPermalink string
}

// Bare post identifier (without "t3_" prefix), or empty string if the target is not a post.
func (evt *ModerationEvent) PostID() string {
	kind, id, ok := strings.Cut(evt.TargetID, "_")
	if !ok {
		// some clients strip the type prefix already
		return evt.TargetID
	}
	if kind != "t3" {
		return ""
	}
	return id
}

// Post metadata, fetched fresh for every event.
type Post struct {
	// Bare identifier, no type prefix
	ID         string
	AuthorName string
	// Post flair, which moderators use to label removals ("Removed: spam")
	LinkFlairText string
	// Platform's reason for removal, if any (eg, "moderator", "reddit" for the platform spam filter)
	RemovalCategory string
	Removed         bool
	Permalink       string
}

type DecisionKind int

const (
	DecisionIgnore DecisionKind = iota
	DecisionSpamBan
	DecisionEscalate
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionIgnore:
		return "ignore"
	case DecisionSpamBan:
		return "spam-ban"
	case DecisionEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Outcome of classifying one event. Lives only for the processing of that event.
type Decision struct {
	Kind  DecisionKind
	Event ModerationEvent
	// Short machine-friendly explanation, mostly for ignored events
	Reason string
	// nil for some ignored events
	Post   *Post
	Author string
	// Author's strike state before this event (escalations only)
	Prior strikes.FlairState
}

func ignore(evt ModerationEvent, reason string) Decision {
	return Decision{
		Kind:   DecisionIgnore,
		Event:  evt,
		Reason: reason,
	}
}
