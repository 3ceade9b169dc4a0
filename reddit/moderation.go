package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

type removeRequest struct {
	ID   string `url:"id"`
	Spam bool   `url:"spam"`
}

// Removes a post or comment (by fullname). Removing an already-removed item is not an error.
func (c *Client) Remove(ctx context.Context, fullname string, spam bool) error {
	if err := c.PostForm(ctx, "/api/remove", removeRequest{ID: fullname, Spam: spam}, nil); err != nil {
		return fmt.Errorf("removing %s: %w", fullname, err)
	}
	return nil
}

type BanRequest struct {
	User string
	// private, moderator-visible reason (max 100 chars)
	Reason string
	// moderator note (max 300 chars)
	Note string
	// message sent to the user along with the ban; optional
	Message string
	// days; zero means permanent
	Duration int
}

type friendRequest struct {
	APIType    string `url:"api_type"`
	Type       string `url:"type"`
	Name       string `url:"name"`
	BanReason  string `url:"ban_reason,omitempty"`
	Note       string `url:"note,omitempty"`
	BanMessage string `url:"ban_message,omitempty"`
	Duration   int    `url:"duration,omitempty"`
}

// error names for bans which can never succeed
var banNoopErrors = map[string]bool{
	"USER_DOESNT_EXIST":       true,
	"CANT_RESTRICT_MODERATOR": true,
}

// Bans a user from the subreddit. Banning an already-banned user updates the existing ban.
//
// Returns an error matching ErrBanNoop if the ban could not take effect (eg, account was deleted).
func (c *Client) Ban(ctx context.Context, subreddit string, ban BanRequest) error {
	req := friendRequest{
		APIType:    "json",
		Type:       "banned",
		Name:       ban.User,
		BanReason:  truncate(ban.Reason, 100),
		Note:       truncate(ban.Note, 300),
		BanMessage: ban.Message,
		Duration:   ban.Duration,
	}
	err := c.PostForm(ctx, "/r/"+url.PathEscape(subreddit)+"/api/friend", req, nil)
	var ae *APIError
	if errors.As(err, &ae) && banNoopErrors[ae.Name] {
		return fmt.Errorf("banning u/%s: %w: %w", ban.User, ErrBanNoop, err)
	}
	if err != nil {
		return fmt.Errorf("banning u/%s: %w", ban.User, err)
	}
	return nil
}

type commentRequest struct {
	APIType string `url:"api_type"`
	ThingID string `url:"thing_id"`
	Text    string `url:"text"`
}

type commentResponse struct {
	JSON struct {
		Data struct {
			Things []struct {
				Kind string `json:"kind"`
				Data struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"data"`
			} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// Replies to a post or comment (by fullname). Returns the fullname of the new comment.
func (c *Client) Comment(ctx context.Context, parent, text string) (string, error) {
	var out commentResponse
	if err := c.PostForm(ctx, "/api/comment", commentRequest{APIType: "json", ThingID: parent, Text: text}, &out); err != nil {
		return "", fmt.Errorf("commenting on %s: %w", parent, err)
	}
	things := out.JSON.Data.Things
	if len(things) == 0 || things[0].Data.Name == "" {
		return "", fmt.Errorf("commenting on %s: no comment in response", parent)
	}
	return things[0].Data.Name, nil
}

type distinguishRequest struct {
	APIType string `url:"api_type"`
	ID      string `url:"id"`
	How     string `url:"how"`
	Sticky  bool   `url:"sticky,omitempty"`
}

// Marks a comment as an official moderator comment, optionally stickied to the top of the thread.
func (c *Client) Distinguish(ctx context.Context, fullname string, sticky bool) error {
	req := distinguishRequest{
		APIType: "json",
		ID:      fullname,
		How:     "yes",
		Sticky:  sticky,
	}
	if err := c.PostForm(ctx, "/api/distinguish", req, nil); err != nil {
		return fmt.Errorf("distinguishing %s: %w", fullname, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
