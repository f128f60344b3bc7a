package bitbucket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/ci_diff/cidiff/git"
)

// Config holds the settings needed to create a
// Bitbucket commit fetcher.
type Config struct {
	// APIEndpoint is the Bitbucket Server REST API URL
	// of the repository (e.g.
	// "https://bb.example.com/rest/api/1.0/
	// projects/PROJ/repos/repo").
	APIEndpoint string
	// User is the Bitbucket API username.
	User string
	// Password is the Bitbucket API password (or
	// personal access token).
	Password string
	// HTTPClient is used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Fetcher reads commits from Bitbucket Server.
//
// Pattern: Strategy -- implements git.CommitFetcher.
type Fetcher struct {
	endpoint string
	user     string
	password string
	client   *http.Client
}

var _ git.CommitFetcher = (*Fetcher)(nil)

type person struct {
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
}

type commit struct {
	ID              string `json:"id"`
	DisplayID       string `json:"displayId"`
	Message         string `json:"message"`
	Author          person `json:"author"`
	AuthorTimestamp int64  `json:"authorTimestamp"`
	Committer       person `json:"committer"`
	Parents         []struct {
		ID string `json:"id"`
	} `json:"parents"`
}

// NewFetcher validates cfg and returns a Fetcher ready to
// read commits.
func NewFetcher(cfg Config) (*Fetcher, error) {
	const errCtx = "creating bitbucket fetcher"

	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf(
			"%s: api endpoint must be set",
			errCtx,
		)
	}

	if cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf(
			"%s: user and password must be set: %w",
			errCtx, git.ErrCredentialMissing,
		)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Fetcher{
		endpoint: strings.TrimSuffix(cfg.APIEndpoint, "/"),
		user:     cfg.User,
		password: cfg.Password,
		client:   client,
	}, nil
}

// FetchCommit returns the commit ref points to.
func (f *Fetcher) FetchCommit(
	ctx context.Context,
	ref string,
) (*git.Commit, error) {
	const errCtx = "fetching bitbucket commit"

	if ref == "" {
		ref = git.DefaultRef
	}

	u := f.endpoint + "/commits/" + url.PathEscape(ref)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, u, nil,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(f.user, f.password)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: send request: %w: %w",
			errCtx, git.ErrRemoteCall, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: read response: %w: %w",
			errCtx, git.ErrRemoteCall, err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn(
			"bitbucket response",
			"status", resp.Status,
			"body", string(rb),
		)

		return nil, fmt.Errorf(
			"%s: %w: unexpected status %d",
			errCtx, git.ErrRemoteCall, resp.StatusCode,
		)
	}

	var bc commit
	if err := json.Unmarshal(rb, &bc); err != nil {
		return nil, fmt.Errorf(
			"%s: decode response: %w", errCtx, err,
		)
	}

	slog.Info("fetched commit", "sha", bc.ID)

	c := &git.Commit{
		SHA:         bc.ID,
		Message:     bc.Message,
		AuthorName:  bc.Author.Name,
		AuthorEmail: bc.Author.EmailAddress,
		Details:     bc,
	}

	if bc.AuthorTimestamp > 0 {
		d := time.UnixMilli(bc.AuthorTimestamp).UTC()
		c.Date = &d
	}

	return c, nil
}
