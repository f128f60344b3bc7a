package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/git"
)

var (
	// ErrNoCommitHistory is returned when the repository
	// has no commit at all.
	ErrNoCommitHistory = errors.New("no commit history")

	// ErrDiffFetch is returned when every step of the
	// selected strategy chain failed.
	ErrDiffFetch = errors.New("diff fetch failed")

	// ErrFallbackCycle is returned when a fallback chain
	// leads back to a strategy already attempted.
	ErrFallbackCycle = errors.New("fallback cycle")
)

// Source names where a diff came from.
type Source int

// Diff sources.
const (
	SourceNone Source = iota
	SourcePullRequestRefs
	SourceWorkingTree
	SourcePreviousCommit
	SourceHeadCommit
	SourceSingleCommit
	SourceLastTwoCommits
)

func (s Source) String() string {
	switch s {
	case SourcePullRequestRefs:
		return "pull-request-refs"
	case SourceWorkingTree:
		return "working-tree"
	case SourcePreviousCommit:
		return "previous-commit"
	case SourceHeadCommit:
		return "head-commit"
	case SourceSingleCommit:
		return "single-commit"
	case SourceLastTwoCommits:
		return "last-two-commits"
	default:
		return "none"
	}
}

// Result is the outcome of an acquisition.
type Result struct {
	Text      string
	Source    Source
	Strategy  string
	Succeeded bool
	// Err is set when Succeeded is false. It wraps
	// ErrDiffFetch and the last step failure.
	Err error
	// Attempts lists every step tried, in order.
	Attempts []Attempt
}

// Attempt records one strategy step.
type Attempt struct {
	Strategy string
	Err      error
}

// Engine runs a strategy table against a git backend.
type Engine struct {
	backend    git.Backend
	strategies []*Strategy
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStrategies replaces the default strategy table.
func WithStrategies(strategies ...*Strategy) Option {
	return func(e *Engine) {
		e.strategies = strategies
	}
}

// New returns an Engine over backend using
// DefaultStrategies unless overridden.
func New(backend git.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:    backend,
		strategies: DefaultStrategies(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Select returns the first strategy whose guard accepts c,
// or nil.
func (e *Engine) Select(c cienv.Context) *Strategy {
	for _, s := range e.strategies {
		if s.Guard == nil || s.Guard(c) {
			return s
		}
	}

	return nil
}

// Acquire selects a strategy for c and walks its fallback
// chain. It never returns an error directly; failures are
// carried by Result.
func (e *Engine) Acquire(ctx context.Context, c cienv.Context) Result {
	const errCtx = "acquiring diff"

	first := e.Select(c)
	if first == nil {
		return Result{
			Err: fmt.Errorf("%s: %w: no strategy for context", errCtx, ErrDiffFetch),
		}
	}

	slog.Info(
		"acquiring diff",
		"strategy", first.Name,
		"ci", c.IsCI,
		"provider", c.Provider,
		"event", c.Event,
	)

	var (
		res     Result
		lastErr error
		visited = make(map[*Strategy]struct{})
	)

	for s := first; s != nil; s = s.Fallback {
		if err := ctx.Err(); err != nil {
			lastErr = err

			break
		}

		if _, seen := visited[s]; seen {
			slog.Error("fallback cycle, stopping", "strategy", s.Name)

			lastErr = fmt.Errorf("%w: %s: %w", ErrFallbackCycle, s.Name, lastErr)

			break
		}

		visited[s] = struct{}{}

		text, src, err := e.run(ctx, s, c)
		res.Attempts = append(res.Attempts, Attempt{Strategy: s.Name, Err: err})

		if err == nil {
			slog.Info(
				"diff acquired",
				"strategy", s.Name,
				"source", src,
				"bytes", len(text),
			)

			res.Text = text
			res.Source = src
			res.Strategy = s.Name
			res.Succeeded = true

			return res
		}

		lastErr = err

		if s.Fallback != nil {
			slog.Warn(
				"strategy failed, falling back",
				"strategy", s.Name,
				"fallback", s.Fallback.Name,
				"err", err,
			)
		}
	}

	slog.Warn("diff acquisition exhausted", "strategy", first.Name, "err", lastErr)

	res.Err = fmt.Errorf("%s: %w: %w", errCtx, ErrDiffFetch, lastErr)

	return res
}

func (e *Engine) run(
	ctx context.Context,
	s *Strategy,
	c cienv.Context,
) (string, Source, error) {
	if s.Prepare != nil {
		if err := s.Prepare(ctx, e.backend); err != nil {
			slog.Info(
				"preparation step failed, continuing",
				"strategy", s.Name,
				"err", err,
			)
		}
	}

	if s.Fetch == nil {
		return "", SourceNone, fmt.Errorf("strategy %q has no fetch step", s.Name)
	}

	return s.Fetch(ctx, e.backend, c)
}
