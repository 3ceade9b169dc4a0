package reddit

import (
	"context"
	"fmt"
)

type ModmailRequest struct {
	Subreddit string `url:"srName"`
	To        string `url:"to"`
	Subject   string `url:"subject"`
	Body      string `url:"body"`
	// send as the subreddit, not the moderator account
	AuthorHidden bool `url:"isAuthorHidden"`
}

type modmailResponse struct {
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
}

// Starts a new modmail conversation with a user. Returns the conversation ID.
func (c *Client) CreateModmail(ctx context.Context, msg ModmailRequest) (string, error) {
	var out modmailResponse
	if err := c.PostForm(ctx, "/api/mod/conversations", msg, &out); err != nil {
		return "", fmt.Errorf("sending modmail to u/%s: %w", msg.To, err)
	}
	return out.Conversation.ID, nil
}
