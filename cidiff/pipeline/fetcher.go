package pipeline

import (
	"fmt"

	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/config"
	"github.com/byte4ever/ci_diff/cidiff/git"
	"github.com/byte4ever/ci_diff/cidiff/git/bitbucket"
	"github.com/byte4ever/ci_diff/cidiff/git/github"
	"github.com/byte4ever/ci_diff/cidiff/git/gitlab"
)

// NewFetcher creates a git.CommitFetcher for the configured
// platform. Pattern: Factory -- selects platform
// implementation at runtime.
func NewFetcher(
	settings config.Commit,
	remote cienv.Remote,
) (git.CommitFetcher, error) {
	const errCtx = "creating commit fetcher"

	switch settings.Platform {
	case "", config.PlatformGitHub:
		f, err := github.NewFetcher(github.Config{
			RepoOwner:      remote.Owner,
			Repo:           remote.Repo,
			AccessToken:    remote.Token,
			EnterpriseHost: settings.EnterpriseHost,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return f, nil

	case config.PlatformGitLab:
		host := settings.GitLabHost
		if host == "" {
			host = remote.GitLabURL
		}

		project := remote.GitLabProject
		if project == "" && remote.Owner != "" && remote.Repo != "" {
			project = remote.Owner + "/" + remote.Repo
		}

		f, err := gitlab.NewFetcher(gitlab.Config{
			Host:        host,
			Repo:        project,
			AccessToken: remote.GitLabToken,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return f, nil

	case config.PlatformBitbucket:
		f, err := bitbucket.NewFetcher(bitbucket.Config{
			APIEndpoint: settings.BitbucketEndpoint,
			User:        remote.BitbucketUser,
			Password:    remote.BitbucketPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return f, nil

	default:
		return nil, fmt.Errorf("%s: unknown platform %q", errCtx, settings.Platform)
	}
}
