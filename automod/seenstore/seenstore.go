package seenstore

import (
	"context"
)

type SeenStore interface {
	// Whether the post has been recorded.
	Has(ctx context.Context, postID string) (bool, error)
	// Marks the post as processed. Recording the same post again is a no-op.
	Record(ctx context.Context, postID string) error
}
