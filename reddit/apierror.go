package reddit

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Client has no account credentials, so can only make anonymous requests.
	ErrReadOnly = errors.New("reddit client is read-only (no username/password)")
	// The account is not a moderator of the subreddit, or lacks the needed permissions.
	ErrInsufficientPrivilege = errors.New("insufficient moderator privileges")
	// Token grant was rejected; bad client ID/secret or password.
	ErrAuthFailure = errors.New("reddit authentication failed")
	// Ban request had no effect (account deleted, or is a moderator), and should not be retried.
	ErrBanNoop = errors.New("ban had no effect")
)

type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (ae *APIError) Error() string {
	if ae.StatusCode > 0 {
		if ae.Name != "" && ae.Message != "" {
			return fmt.Sprintf("reddit API request failed (HTTP %d): %s: %s", ae.StatusCode, ae.Name, ae.Message)
		} else if ae.Name != "" {
			return fmt.Sprintf("reddit API request failed (HTTP %d): %s", ae.StatusCode, ae.Name)
		}
		return fmt.Sprintf("reddit API request failed (HTTP %d)", ae.StatusCode)
	}
	return "reddit API request failed"
}

// A 403 from any endpoint means the account is missing moderator permissions.
func (ae *APIError) Is(target error) bool {
	return target == ErrInsufficientPrivilege && ae.StatusCode == http.StatusForbidden
}

// Error body shape for most non-2xx responses (and the OAuth token endpoint).
type ErrorBody struct {
	Error       any    `json:"error"`
	Message     string `json:"message,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

func (eb *ErrorBody) APIError(statusCode int) *APIError {
	ae := APIError{StatusCode: statusCode, Message: eb.Message}
	switch v := eb.Error.(type) {
	case string:
		ae.Name = v
	case float64:
		if ae.Message == "" {
			ae.Message = http.StatusText(int(v))
		}
	}
	if eb.Reason != "" {
		ae.Name = eb.Reason
	}
	if eb.Explanation != "" {
		ae.Message = eb.Explanation
	}
	return &ae
}

// "api_type=json" responses report errors in-band, with HTTP 200, as a list of [name, message, field] triples.
type jsonErrors struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

func (je *jsonErrors) err(statusCode int) *APIError {
	if len(je.JSON.Errors) == 0 {
		return nil
	}
	first := je.JSON.Errors[0]
	ae := APIError{StatusCode: statusCode}
	if len(first) > 0 {
		ae.Name, _ = first[0].(string)
	}
	if len(first) > 1 {
		ae.Message, _ = first[1].(string)
	}
	return &ae
}
