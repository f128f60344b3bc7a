package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/ci_diff/cidiff/git"
)

// Config holds the settings needed to create a GitHub
// commit fetcher.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token sent as a bearer token.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// BaseURL overrides the API root entirely
	// (e.g. "http://127.0.0.1:8080/"). It takes
	// precedence over EnterpriseHost.
	BaseURL string
}

// Fetcher reads commits from GitHub.
//
// Pattern: Strategy -- implements git.CommitFetcher.
type Fetcher struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

var _ git.CommitFetcher = (*Fetcher)(nil)

// NewFetcher validates cfg and returns a Fetcher ready to
// read commits.
func NewFetcher(cfg Config) (*Fetcher, error) {
	const errCtx = "creating github fetcher"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set: %w",
			errCtx, git.ErrCredentialMissing,
		)
	}

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	baseURL, uploadURL := cfg.BaseURL, cfg.BaseURL
	if baseURL == "" && cfg.EnterpriseHost != "" {
		baseURL = "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL = "https://" +
			cfg.EnterpriseHost + "/api/uploads/"
	}

	if baseURL != "" {
		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Fetcher{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// FetchCommit returns the commit ref points to. ref may be a
// branch name, tag or SHA.
func (f *Fetcher) FetchCommit(
	ctx context.Context,
	ref string,
) (*git.Commit, error) {
	const errCtx = "fetching github commit"

	if ref == "" {
		ref = git.DefaultRef
	}

	rc, resp, err := f.client.Repositories.GetCommit(
		ctx, f.repoOwner, f.repo, ref, nil,
	)
	if err != nil {
		// Log the response body for debugging.
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close() //nolint:errcheck

			rb, readErr := io.ReadAll(resp.Body)
			if readErr == nil && len(rb) > 0 {
				slog.Warn(
					"github response",
					"body", string(rb),
				)
			}
		}

		return nil, fmt.Errorf(
			"%s %s/%s@%s: %w: %w",
			errCtx, f.repoOwner, f.repo, ref,
			git.ErrRemoteCall, err,
		)
	}

	slog.Info(
		"fetched commit",
		"sha", rc.GetSHA(),
		"url", rc.GetHTMLURL(),
	)

	author := rc.GetCommit().GetAuthor()

	c := &git.Commit{
		SHA:         rc.GetSHA(),
		Message:     rc.GetCommit().GetMessage(),
		AuthorName:  author.GetName(),
		AuthorEmail: author.GetEmail(),
		URL:         rc.GetHTMLURL(),
		Details:     rc,
	}

	if ts := author.GetDate(); !ts.IsZero() {
		d := ts.Time
		c.Date = &d
	}

	return c, nil
}
