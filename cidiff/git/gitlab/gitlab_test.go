package gitlab_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/ci_diff/cidiff/git"
	glprov "github.com/byte4ever/ci_diff/cidiff/git/gitlab"
)

func TestNewFetcher_valid(t *testing.T) {
	t.Parallel()

	fe, err := glprov.NewFetcher(glprov.Config{
		Repo:        "org/project",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, fe)
}

func TestNewFetcher_custom_host(t *testing.T) {
	t.Parallel()

	fe, err := glprov.NewFetcher(glprov.Config{
		Host:        "https://gitlab.example.com",
		Repo:        "org/project",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, fe)
}

func TestNewFetcher_missing_token(t *testing.T) {
	t.Parallel()

	fe, err := glprov.NewFetcher(glprov.Config{
		Repo: "org/project",
	})

	assert.Nil(t, fe)
	assert.ErrorIs(t, err, git.ErrCredentialMissing)
}

func TestNewFetcher_missing_repo(t *testing.T) {
	t.Parallel()

	fe, err := glprov.NewFetcher(glprov.Config{
		AccessToken: "tok",
	})

	assert.Nil(t, fe)
	assert.ErrorContains(t, err, "repo must be set")
}

func TestFetcher_FetchCommit(t *testing.T) {
	t.Parallel()

	var (
		gotPath  string
		gotToken string
	)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotToken = r.Header.Get("PRIVATE-TOKEN")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
  "id": "6104942438c14ec7bd21c6cd5bd995272b3faff6",
  "title": "Sanitize for network graph",
  "message": "Sanitize for network graph\n",
  "author_name": "randx",
  "author_email": "user@example.com",
  "authored_date": "2021-09-20T09:06:12.000+03:00",
  "web_url": "https://gitlab.example.com/org/project/-/commit/6104942"
}`))
		},
	))
	t.Cleanup(srv.Close)

	fe, err := glprov.NewFetcher(glprov.Config{
		Host:        srv.URL,
		Repo:        "org/project",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	got, err := fe.FetchCommit(context.Background(), "main")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gotPath, "/repository/commits/main"), gotPath)
	assert.Contains(t, gotPath, "org%2Fproject")
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "6104942438c14ec7bd21c6cd5bd995272b3faff6", got.SHA)
	assert.Equal(t, "randx", got.AuthorName)
	assert.Equal(t, "user@example.com", got.AuthorEmail)
	require.NotNil(t, got.Date)
	assert.Equal(t, 2021, got.Date.Year())
	assert.NotNil(t, got.Details)
}

func TestFetcher_FetchCommit_not_found(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"404 Commit Not Found"}`))
		},
	))
	t.Cleanup(srv.Close)

	fe, err := glprov.NewFetcher(glprov.Config{
		Host:        srv.URL,
		Repo:        "org/project",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	got, err := fe.FetchCommit(context.Background(), "nope")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, git.ErrRemoteCall)
}
