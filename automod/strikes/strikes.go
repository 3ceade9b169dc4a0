// Encoding of per-user strike history, stored in the user's subreddit flair.
//
// The flair text looks like "2s abc123 def456": a strike count followed by the ids of the offending posts, oldest first. Flair can be edited by any moderator, so decoding is lenient and callers should treat malformed flair as no strikes.
package strikes

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Number of strikes at which an account gets banned.
const BanThreshold = 3

var ErrMalformedFlair = errors.New("malformed strike flair")

type FlairState struct {
	Count   int
	PostIDs []string
	// Original flair text this state was decoded from, if any. Not used for encoding.
	Raw string
}

// Parses a flair string. Empty (or whitespace-only) flair is the zero-strike state.
//
// Only the leading digits of the first token are used as the count, so "2s", "2" and "2strikes" all decode to two. If the flair doesn't start with a digit, returns ErrMalformedFlair along with the zero state.
func Decode(raw string) (FlairState, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return FlairState{Raw: raw}, nil
	}
	head := fields[0]
	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end == 0 {
		return FlairState{Raw: raw}, fmt.Errorf("%w: %q", ErrMalformedFlair, raw)
	}
	count, err := strconv.Atoi(head[:end])
	if err != nil {
		// overflow
		return FlairState{Raw: raw}, fmt.Errorf("%w: %q", ErrMalformedFlair, raw)
	}
	return FlairState{
		Count:   count,
		PostIDs: fields[1:],
		Raw:     raw,
	}, nil
}

// Returns the state after one more strike for the given post. Count and history always move together.
func Advance(s FlairState, postID string) FlairState {
	ids := make([]string, 0, len(s.PostIDs)+1)
	ids = append(ids, s.PostIDs...)
	ids = append(ids, postID)
	return FlairState{
		Count:   s.Count + 1,
		PostIDs: ids,
	}
}

// Flair text for the state after one more strike for the given post.
func Encode(s FlairState, postID string) string {
	return Advance(s, postID).String()
}

// Serialized flair text. The zero state serializes to "0s".
func (s FlairState) String() string {
	if len(s.PostIDs) == 0 {
		return fmt.Sprintf("%ds", s.Count)
	}
	return fmt.Sprintf("%ds %s", s.Count, strings.Join(s.PostIDs, " "))
}

// Whether the strike history already includes this post.
func (s FlairState) Contains(postID string) bool {
	return slices.Contains(s.PostIDs, postID)
}

// Whether the count has reached the ban threshold. A non-positive threshold means BanThreshold.
func (s FlairState) Banned(threshold int) bool {
	if threshold <= 0 {
		threshold = BanThreshold
	}
	return s.Count >= threshold
}
