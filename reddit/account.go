package reddit

import (
	"context"
	"fmt"
)

type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Returns the account the client is authenticated as.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	if err := c.CheckReadWrite(); err != nil {
		return nil, err
	}
	var out Account
	if err := c.Get(ctx, "/api/v1/me", nil, &out); err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return &out, nil
}
