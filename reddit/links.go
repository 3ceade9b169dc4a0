package reddit

import (
	"context"
	"fmt"
	"strings"
)

// Subset of post ("link") fields.
type Link struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Author            string `json:"author"`
	Subreddit         string `json:"subreddit"`
	Title             string `json:"title"`
	Permalink         string `json:"permalink"`
	LinkFlairText     string `json:"link_flair_text"`
	RemovedByCategory string `json:"removed_by_category"`
	// only visible to moderators
	Removed bool    `json:"removed"`
	Spam    bool    `json:"spam"`
	Created float64 `json:"created_utc"`
}

// Whether the post has been removed, by anybody.
func (l *Link) IsRemoved() bool {
	return l.Removed || l.RemovedByCategory != "" || l.Spam
}

// Adds the "t3_" type prefix if it is missing.
func LinkFullname(id string) string {
	if strings.HasPrefix(id, "t3_") {
		return id
	}
	return "t3_" + id
}

type infoQuery struct {
	ID string `url:"id"`
}

// Fetches a single post, by fullname or bare ID. Returns nil (and no error) if the post does not exist.
func (c *Client) Link(ctx context.Context, id string) (*Link, error) {
	var out listing[Link]
	if err := c.Get(ctx, "/api/info", infoQuery{ID: LinkFullname(id)}, &out); err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", id, err)
	}
	links := out.items()
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}
