// Package github implements a git.CommitFetcher that reads
// commit metadata from GitHub (cloud or enterprise).
// Configure with a Config containing the repository owner,
// name, and access token. Set EnterpriseHost for GitHub
// Enterprise installations.
package github
