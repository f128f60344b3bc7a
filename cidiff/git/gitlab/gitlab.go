package gitlab

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/ci_diff/cidiff/git"
)

// Config holds the settings needed to create a GitLab
// commit fetcher.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal, project or job token
	// used for authentication.
	AccessToken string
}

// Fetcher reads commits from GitLab.
//
// Pattern: Strategy -- implements git.CommitFetcher.
type Fetcher struct {
	client *gl.Client
	repo   string
}

var _ git.CommitFetcher = (*Fetcher)(nil)

// NewFetcher validates cfg and returns a Fetcher ready to
// read commits.
func NewFetcher(cfg Config) (*Fetcher, error) {
	const errCtx = "creating gitlab fetcher"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set: %w",
			errCtx, git.ErrCredentialMissing,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Fetcher{
		client: client,
		repo:   cfg.Repo,
	}, nil
}

// FetchCommit returns the commit ref points to.
func (f *Fetcher) FetchCommit(
	ctx context.Context,
	ref string,
) (*git.Commit, error) {
	const errCtx = "fetching gitlab commit"

	if ref == "" {
		ref = git.DefaultRef
	}

	gc, resp, err := f.client.Commits.GetCommit(
		f.repo, ref, nil, gl.WithContext(ctx),
	)
	if err != nil {
		// Log the response body for debugging.
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close() //nolint:errcheck

			rb, readErr := io.ReadAll(resp.Body)
			if readErr == nil && len(rb) > 0 {
				slog.Warn(
					"gitlab response",
					"body", string(rb),
				)
			}
		}

		return nil, fmt.Errorf(
			"%s %s@%s: %w: %w",
			errCtx, f.repo, ref, git.ErrRemoteCall, err,
		)
	}

	slog.Info(
		"fetched commit",
		"sha", gc.ID,
		"url", gc.WebURL,
	)

	return &git.Commit{
		SHA:         gc.ID,
		Message:     gc.Message,
		AuthorName:  gc.AuthorName,
		AuthorEmail: gc.AuthorEmail,
		Date:        gc.AuthoredDate,
		URL:         gc.WebURL,
		Details:     gc,
	}, nil
}
