package reddit

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Query parameters for the subreddit moderation log.
type ModLogQuery struct {
	// mod action type, eg "editflair"; empty for all types
	Type   string `url:"type,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	Before string `url:"before,omitempty"`
	After  string `url:"after,omitempty"`
}

// One moderation log entry.
type ModAction struct {
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	CreatedUTC      float64 `json:"created_utc"`
	Mod             string  `json:"mod"`
	Details         string  `json:"details"`
	Description     string  `json:"description"`
	TargetAuthor    string  `json:"target_author"`
	TargetFullname  string  `json:"target_fullname"`
	TargetPermalink string  `json:"target_permalink"`
	TargetTitle     string  `json:"target_title"`
}

func (ma *ModAction) CreatedAt() time.Time {
	sec := int64(ma.CreatedUTC)
	nsec := int64((ma.CreatedUTC - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

type listing[T any] struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Before   string `json:"before"`
		Children []struct {
			Kind string `json:"kind"`
			Data T      `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (l *listing[T]) items() []T {
	out := make([]T, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		out = append(out, c.Data)
	}
	return out
}

// Fetches recent moderation log entries for the subreddit, newest first.
//
// Requires moderator access; returns an error matching ErrInsufficientPrivilege otherwise.
func (c *Client) ModLog(ctx context.Context, subreddit string, q ModLogQuery) ([]ModAction, error) {
	var out listing[ModAction]
	if err := c.Get(ctx, "/r/"+url.PathEscape(subreddit)+"/about/log", q, &out); err != nil {
		return nil, fmt.Errorf("fetching mod log for r/%s: %w", subreddit, err)
	}
	return out.items(), nil
}
