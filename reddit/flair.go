package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type flairListQuery struct {
	Name  string `url:"name"`
	Limit int    `url:"limit,omitempty"`
}

type flairListResponse struct {
	Users []struct {
		User          string `json:"user"`
		FlairText     string `json:"flair_text"`
		FlairCSSClass string `json:"flair_css_class"`
	} `json:"users"`
}

// Returns the user's flair text in the subreddit, or empty string if they have none.
func (c *Client) UserFlair(ctx context.Context, subreddit, user string) (string, error) {
	var out flairListResponse
	err := c.Get(ctx, "/r/"+url.PathEscape(subreddit)+"/api/flairlist", flairListQuery{Name: user, Limit: 1}, &out)
	if err != nil {
		return "", fmt.Errorf("fetching flair for u/%s: %w", user, err)
	}
	for _, u := range out.Users {
		if strings.EqualFold(u.User, user) {
			return u.FlairText, nil
		}
	}
	return "", nil
}

type setFlairRequest struct {
	APIType  string `url:"api_type"`
	Name     string `url:"name"`
	Text     string `url:"text"`
	CSSClass string `url:"css_class,omitempty"`
}

// Overwrites the user's flair text (and optionally CSS class) in the subreddit.
func (c *Client) SetUserFlair(ctx context.Context, subreddit, user, text, cssClass string) error {
	req := setFlairRequest{
		APIType:  "json",
		Name:     user,
		Text:     text,
		CSSClass: cssClass,
	}
	if err := c.PostForm(ctx, "/r/"+url.PathEscape(subreddit)+"/api/flair", req, nil); err != nil {
		return fmt.Errorf("setting flair for u/%s: %w", user, err)
	}
	return nil
}
