package git

import (
	"context"
	"errors"
	"time"
)

// Pattern: Strategy -- swap git platform without
// changing the commit metadata flow.

var (
	// ErrCredentialMissing is returned when a hosting API
	// fetcher is built without a token.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrRemoteCall is returned when the hosting API call
	// fails at the network or HTTP level.
	ErrRemoteCall = errors.New("remote call failed")
)

// DefaultRef is fetched when no ref is given.
const DefaultRef = "main"

// Commit is the platform-neutral commit record. Details
// carries the hosting platform's full response.
type Commit struct {
	SHA         string     `json:"sha"`
	Message     string     `json:"message"`
	AuthorName  string     `json:"author_name,omitempty"`
	AuthorEmail string     `json:"author_email,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	URL         string     `json:"url,omitempty"`
	Details     any        `json:"details,omitempty"`
}

// CommitFetcher retrieves commit metadata for a ref from a
// git hosting platform.
type CommitFetcher interface {
	FetchCommit(ctx context.Context, ref string) (*Commit, error)
}

// CommitFetcherFunc adapts a plain function to the
// CommitFetcher interface. An empty ref is replaced by
// DefaultRef.
type CommitFetcherFunc func(ctx context.Context, ref string) (*Commit, error)

// FetchCommit delegates to the wrapped function.
func (f CommitFetcherFunc) FetchCommit(
	ctx context.Context,
	ref string,
) (*Commit, error) {
	if ref == "" {
		ref = DefaultRef
	}

	return f(ctx, ref)
}
