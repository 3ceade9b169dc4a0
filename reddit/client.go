package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"
)

const DefaultHost = "https://oauth.reddit.com"

// Reddit allows 100 requests per minute per OAuth client
const DefaultRequestsPerMinute = 100

type Client struct {
	HTTPClient *http.Client
	// API host for authenticated requests (eg, "https://oauth.reddit.com")
	Host      string
	UserAgent string
	// nil for a read-only client
	Auth    *PasswordAuth
	Limiter *rate.Limiter
}

type Config struct {
	Host         string
	AuthHost     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	// zero means DefaultRequestsPerMinute
	RequestsPerMinute int
	// nil means http.DefaultClient
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	c := Client{
		HTTPClient: cfg.HTTPClient,
		Host:       cfg.Host,
		UserAgent:  cfg.UserAgent,
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	c.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 5)
	if cfg.Username != "" && cfg.Password != "" {
		c.Auth = &PasswordAuth{
			Host:         cfg.AuthHost,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			UserAgent:    cfg.UserAgent,
		}
	}
	return &c
}

// Returns ErrReadOnly if the client has no account credentials.
func (c *Client) CheckReadWrite() error {
	if c.Auth == nil {
		return ErrReadOnly
	}
	return nil
}

// Makes a GET request; params is a struct with `url` tags (or nil).
func (c *Client) Get(ctx context.Context, path string, params any, out any) error {
	vals, err := encodeValues(params)
	if err != nil {
		return err
	}
	return c.Do(ctx, http.MethodGet, path, vals, nil, out)
}

// Makes a form-encoded POST request; form is a struct with `url` tags.
func (c *Client) PostForm(ctx context.Context, path string, form any, out any) error {
	vals, err := encodeValues(form)
	if err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPost, path, nil, vals, out)
}

func encodeValues(v any) (url.Values, error) {
	if v == nil {
		return nil, nil
	}
	vals, err := query.Values(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request parameters: %w", err)
	}
	return vals, nil
}

// Full-power method for API requests. Applies rate-limiting and auth, and decodes the JSON response body in to 'out' (if not nil).
func (c *Client) Do(ctx context.Context, method, path string, params, form url.Values, out any) error {
	if c.Auth == nil && method != http.MethodGet {
		return ErrReadOnly
	}

	resp, err := c.doOnce(ctx, method, path, params, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		var eb ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return eb.APIError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	// in-band errors, for api_type=json endpoints
	var je jsonErrors
	if json.Unmarshal(body, &je) == nil {
		if ae := je.err(resp.StatusCode); ae != nil {
			return ae
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("expected JSON response body: %w", err)
	}
	return nil
}

// Sends the request, retrying once with a fresh token on HTTP 401.
func (c *Client) doOnce(ctx context.Context, method, path string, params, form url.Values) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := c.newRequest(ctx, method, path, params, form)
		if err != nil {
			return nil, err
		}
		var token string
		if c.Auth != nil {
			token, err = c.Auth.Token(ctx, c.HTTPClient)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized && c.Auth != nil && attempt == 0 {
			resp.Body.Close()
			c.Auth.Invalidate(token)
			continue
		}
		return resp, nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, params, form url.Values) (*http.Request, error) {
	u, err := url.Parse(c.Host)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("empty hostname in host URL")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	q := url.Values{"raw_json": []string{"1"}}
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}
