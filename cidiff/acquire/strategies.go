package acquire

import (
	"context"
	"fmt"

	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/git"
)

// Strategy is one acquisition step. Pattern: Chain of
// Responsibility -- Fallback is tried when Fetch fails.
type Strategy struct {
	// Name identifies the step in logs and results.
	Name string
	// Guard selects the strategy as the head of a chain.
	// A nil guard accepts every context. Guards of
	// fallback steps are not consulted.
	Guard func(cienv.Context) bool
	// Prepare is a best-effort step run before Fetch. Its
	// error is logged and ignored.
	Prepare func(ctx context.Context, b git.Backend) error
	// Fetch produces the diff text.
	Fetch func(ctx context.Context, b git.Backend, c cienv.Context) (string, Source, error)
	// Fallback is tried when Fetch fails.
	Fallback *Strategy
}

// Strategy names.
const (
	StrategyPullRequest = "pull-request-refs"
	StrategyWorkingTree = "working-tree"
	StrategyPush        = "push-previous-commit"
	StrategyHeadCommit  = "head-commit"
	StrategyHistory     = "history-depth"
)

const (
	headRev     = "HEAD"
	previousRev = "HEAD~1"
	remotePfx   = "origin/"
)

// DefaultStrategies returns a fresh copy of the standard
// table: pull request refs and push history on GitHub
// Actions, commit history depth everywhere else.
func DefaultStrategies() []*Strategy {
	workingTree := &Strategy{
		Name: StrategyWorkingTree,
		Fetch: func(ctx context.Context, b git.Backend, _ cienv.Context) (string, Source, error) {
			out, err := b.Diff(ctx)

			return out, SourceWorkingTree, err
		},
	}

	headCommit := &Strategy{
		Name: StrategyHeadCommit,
		Fetch: func(ctx context.Context, b git.Backend, _ cienv.Context) (string, Source, error) {
			out, err := b.Show(ctx, headRev)

			return out, SourceHeadCommit, err
		},
	}

	return []*Strategy{
		{
			Name:     StrategyPullRequest,
			Guard:    isGitHubPullRequest,
			Fetch:    fetchPullRequestRefs,
			Fallback: workingTree,
		},
		{
			Name:  StrategyPush,
			Guard: isGitHubActions,
			Prepare: func(ctx context.Context, b git.Backend) error {
				return b.Unshallow(ctx)
			},
			Fetch: func(ctx context.Context, b git.Backend, _ cienv.Context) (string, Source, error) {
				out, err := b.Diff(ctx, previousRev, headRev)

				return out, SourcePreviousCommit, err
			},
			Fallback: headCommit,
		},
		{
			Name:  StrategyHistory,
			Fetch: fetchByHistoryDepth,
		},
	}
}

func isGitHubActions(c cienv.Context) bool {
	return c.IsCI && c.Provider == cienv.ProviderGitHubActions
}

func isGitHubPullRequest(c cienv.Context) bool {
	return isGitHubActions(c) && c.Event == cienv.EventPullRequest
}

func fetchPullRequestRefs(
	ctx context.Context,
	b git.Backend,
	c cienv.Context,
) (string, Source, error) {
	const errCtx = "diffing pull request refs"

	if c.BaseRef == "" || c.HeadRef == "" {
		return "", SourcePullRequestRefs, fmt.Errorf(
			"%s: base %q head %q: missing ref", errCtx, c.BaseRef, c.HeadRef,
		)
	}

	out, err := b.Diff(ctx, remotePfx+c.BaseRef, remotePfx+c.HeadRef)
	if err != nil {
		return "", SourcePullRequestRefs, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, SourcePullRequestRefs, nil
}

// fetchByHistoryDepth inspects up to two commits. A Log
// failure counts as an empty history, which is what git
// reports on an unborn branch.
func fetchByHistoryDepth(
	ctx context.Context,
	b git.Backend,
	_ cienv.Context,
) (string, Source, error) {
	const errCtx = "diffing by history depth"

	commits, err := b.Log(ctx, 2)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", SourceNone, fmt.Errorf("%s: %w", errCtx, ctxErr)
		}

		return "", SourceNone, fmt.Errorf("%s: %w: %w", errCtx, ErrNoCommitHistory, err)
	}

	switch len(commits) {
	case 0:
		return "", SourceNone, fmt.Errorf("%s: %w", errCtx, ErrNoCommitHistory)

	case 1:
		out, err := b.Show(ctx, commits[0].SHA)
		if err != nil {
			return "", SourceSingleCommit, fmt.Errorf("%s: %w", errCtx, err)
		}

		return out, SourceSingleCommit, nil

	default:
		out, err := b.Diff(ctx, commits[1].SHA, commits[0].SHA)
		if err != nil {
			return "", SourceLastTwoCommits, fmt.Errorf("%s: %w", errCtx, err)
		}

		return out, SourceLastTwoCommits, nil
	}
}
