// Package git provides the version-control backend used to
// acquire diffs and a strategy interface for fetching
// commit metadata from git hosting platforms.
//
// Repo wraps a local working tree and exposes the four
// capabilities the diff acquisition engine relies on: list
// recent commits, diff two revisions, show a single
// revision and deepen a shallow checkout. Every call runs
// under the repository's timeout.
//
// The CommitFetcher interface abstracts the hosting API.
// Implementations exist for GitHub, GitLab, and Bitbucket
// Server in sub-packages. CommitFetcherFunc lets plain
// functions satisfy the interface.
package git
