package bitbucket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/ci_diff/cidiff/git"
	bb "github.com/byte4ever/ci_diff/cidiff/git/bitbucket"
)

func TestNewFetcher_valid(t *testing.T) {
	t.Parallel()

	fe, err := bb.NewFetcher(bb.Config{
		APIEndpoint: "https://bb.example.com/rest",
		User:        "admin",
		Password:    "secret",
	})

	require.NoError(t, err)
	assert.NotNil(t, fe)
}

func TestNewFetcher_missing_endpoint(t *testing.T) {
	t.Parallel()

	fe, err := bb.NewFetcher(bb.Config{
		User:     "admin",
		Password: "secret",
	})

	assert.Nil(t, fe)
	assert.ErrorContains(t, err, "api endpoint")
}

func TestNewFetcher_missing_credentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  bb.Config
	}{
		{
			name: "missing user",
			cfg: bb.Config{
				APIEndpoint: "https://bb.example.com/rest",
				Password:    "secret",
			},
		},
		{
			name: "missing password",
			cfg: bb.Config{
				APIEndpoint: "https://bb.example.com/rest",
				User:        "admin",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fe, err := bb.NewFetcher(tt.cfg)

			assert.Nil(t, fe)
			assert.ErrorIs(t, err, git.ErrCredentialMissing)
		})
	}
}

func TestFetcher_FetchCommit(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotUser string
		gotPass string
	)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotUser, gotPass, _ = r.BasicAuth()

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
  "id": "def0123456789abcdef0123456789abcdef01234",
  "displayId": "def0123",
  "message": "More work on feature 1",
  "author": {"name": "charlie", "emailAddress": "charlie@example.com"},
  "authorTimestamp": 1548720847608,
  "parents": [{"id": "abcdef0123abcdef4567abcdef8987abcdef6543"}]
}`))
		},
	))
	t.Cleanup(srv.Close)

	fe, err := bb.NewFetcher(bb.Config{
		APIEndpoint: srv.URL + "/rest/api/1.0/projects/PRJ/repos/repo/",
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	got, err := fe.FetchCommit(context.Background(), "main")

	require.NoError(t, err)
	assert.Equal(t, "/rest/api/1.0/projects/PRJ/repos/repo/commits/main", gotPath)
	assert.Equal(t, "admin", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "def0123456789abcdef0123456789abcdef01234", got.SHA)
	assert.Equal(t, "More work on feature 1", got.Message)
	assert.Equal(t, "charlie", got.AuthorName)
	require.NotNil(t, got.Date)
	assert.Equal(t, 2019, got.Date.Year())
}

func TestFetcher_FetchCommit_unexpected_status(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	))
	t.Cleanup(srv.Close)

	fe, err := bb.NewFetcher(bb.Config{
		APIEndpoint: srv.URL,
		User:        "admin",
		Password:    "wrong",
	})
	require.NoError(t, err)

	got, err := fe.FetchCommit(context.Background(), "main")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, git.ErrRemoteCall)
	assert.ErrorContains(t, err, "401")
}

func TestFetcher_FetchCommit_unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	fe, err := bb.NewFetcher(bb.Config{
		APIEndpoint: endpoint,
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	_, err = fe.FetchCommit(context.Background(), "main")

	assert.ErrorIs(t, err, git.ErrRemoteCall)
}
