package cienv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Provider identifies the CI service running the
// process.
type Provider int

// Known providers. ProviderGenericCI means CI=true was
// set without a provider-specific indicator.
const (
	ProviderNone Provider = iota
	ProviderGenericCI
	ProviderGitHubActions
	ProviderGitLabCI
	ProviderTravis
	ProviderCircleCI
)

func (p Provider) String() string {
	switch p {
	case ProviderGenericCI:
		return "ci"
	case ProviderGitHubActions:
		return "github-actions"
	case ProviderGitLabCI:
		return "gitlab-ci"
	case ProviderTravis:
		return "travis"
	case ProviderCircleCI:
		return "circleci"
	default:
		return "none"
	}
}

// EventKind is the kind of event that triggered a CI
// run.
type EventKind int

// Event kinds.
const (
	EventUnknown EventKind = iota
	EventPullRequest
	EventPush
)

func (k EventKind) String() string {
	switch k {
	case EventPullRequest:
		return "pull_request"
	case EventPush:
		return "push"
	default:
		return "unknown"
	}
}

const (
	truthy = "true"

	envCI            = "CI"
	envGitHubActions = "GITHUB_ACTIONS"
	envGitLabCI      = "GITLAB_CI"
	envTravis        = "TRAVIS"
	envCircleCI      = "CIRCLECI"

	envEventName = "GITHUB_EVENT_NAME"
	envBaseRef   = "GITHUB_BASE_REF"
	envHeadRef   = "GITHUB_HEAD_REF"
	envWorkspace = "GITHUB_WORKSPACE"
	envOutput    = "GITHUB_OUTPUT"

	pullRequestEvent = "pull_request"
)

// providerIndicators is checked top to bottom. GitHub
// Actions comes first because it supplies the richest
// event context.
var providerIndicators = []struct {
	name     string
	provider Provider
}{
	{envGitHubActions, ProviderGitHubActions},
	{envGitLabCI, ProviderGitLabCI},
	{envTravis, ProviderTravis},
	{envCircleCI, ProviderCircleCI},
}

// Context is an immutable snapshot of the facts derived
// from the environment.
type Context struct {
	IsCI     bool
	Provider Provider
	Event    EventKind
	// BaseRef and HeadRef are the pull request branches
	// (empty outside pull request runs).
	BaseRef string
	HeadRef string
	// Workspace is the CI checkout directory, when the
	// provider exposes one.
	Workspace string
	// OutputFile is the GitHub Actions step output file.
	OutputFile string
}

// Classify derives a Context from env. Missing variables
// yield zero values; it never fails.
func Classify(env map[string]string) Context {
	ec := Context{
		BaseRef:    env[envBaseRef],
		HeadRef:    env[envHeadRef],
		Workspace:  env[envWorkspace],
		OutputFile: env[envOutput],
	}

	for _, ind := range providerIndicators {
		if env[ind.name] == truthy {
			ec.IsCI = true

			if ec.Provider == ProviderNone {
				ec.Provider = ind.provider
			}
		}
	}

	if env[envCI] == truthy {
		ec.IsCI = true

		if ec.Provider == ProviderNone {
			ec.Provider = ProviderGenericCI
		}
	}

	switch {
	case env[envEventName] == pullRequestEvent:
		ec.Event = EventPullRequest
	case ec.IsCI && ec.Provider == ProviderGitHubActions:
		ec.Event = EventPush
	}

	return ec
}

// Environ snapshots the process environment.
func Environ() map[string]string {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	return env
}

// Load snapshots the process environment and fills in
// variables from the given dotenv files. Variables already
// set in the process take precedence. Missing files are
// skipped.
func Load(files ...string) (map[string]string, error) {
	const errCtx = "loading environment"

	env := Environ()

	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", errCtx, f, err)
		}

		for k, v := range vals {
			if _, set := env[k]; !set {
				env[k] = v
			}
		}
	}

	return env, nil
}
