// Package gitlab implements a git.CommitFetcher backed by the
// GitLab commits API.
package gitlab
