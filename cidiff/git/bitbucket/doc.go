// Package bitbucket implements a git.CommitFetcher for
// Bitbucket Server using its REST API directly.
package bitbucket
