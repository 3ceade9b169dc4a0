package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
)

const DefaultAuthHost = "https://www.reddit.com"

// tokens are refreshed this long before they expire
const tokenRefreshMargin = time.Minute

// OAuth2 "password" grant, for Reddit script apps acting as a single account.
type PasswordAuth struct {
	// Host for the token endpoint (eg, "https://www.reddit.com")
	Host         string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string

	lk          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type tokenRequest struct {
	GrantType string `url:"grant_type"`
	Username  string `url:"username"`
	Password  string `url:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
}

// Returns a current access token, fetching a new one if needed.
func (a *PasswordAuth) Token(ctx context.Context, c *http.Client) (string, error) {
	a.lk.Lock()
	defer a.lk.Unlock()

	if a.accessToken != "" && time.Now().Add(tokenRefreshMargin).Before(a.expiresAt) {
		return a.accessToken, nil
	}

	vals, err := query.Values(tokenRequest{
		GrantType: "password",
		Username:  a.Username,
		Password:  a.Password,
	})
	if err != nil {
		return "", err
	}
	host := a.Host
	if host == "" {
		host = DefaultAuthHost
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(host, "/")+"/api/v1/access_token", strings.NewReader(vals.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.ClientID, a.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: bad client credentials (HTTP %d)", ErrAuthFailure, resp.StatusCode)
	}
	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		var eb ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return "", &APIError{StatusCode: resp.StatusCode}
		}
		return "", eb.APIError(resp.StatusCode)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding access token response: %w", err)
	}
	// a bad password gets an HTTP 200 with an error field
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrAuthFailure, out.Error)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailure)
	}

	a.accessToken = out.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

// Forgets the current token, eg after the API rejected it.
func (a *PasswordAuth) Invalidate(token string) {
	a.lk.Lock()
	defer a.lk.Unlock()
	// another request may have refreshed already
	if a.accessToken == token {
		a.accessToken = ""
	}
}
