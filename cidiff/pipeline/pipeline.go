package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/byte4ever/ci_diff/cidiff/acquire"
	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/config"
	"github.com/byte4ever/ci_diff/cidiff/filter"
	"github.com/byte4ever/ci_diff/cidiff/git"
	"github.com/byte4ever/ci_diff/cidiff/locator"
	"github.com/byte4ever/ci_diff/cidiff/sink"
)

// Mode selects what a run produces.
type Mode int

// Modes.
const (
	ModeDiff Mode = iota + 1
	ModeCommit
)

func (m Mode) String() string {
	switch m {
	case ModeDiff:
		return "diff"
	case ModeCommit:
		return "commit"
	default:
		return "none"
	}
}

// Config holds everything a run needs. Use a Config struct
// instead of many arguments.
type Config struct {
	// Env is the merged process and dotenv environment.
	Env map[string]string

	// Cwd is the directory the tool was started from.
	Cwd string

	// Settings is the file configuration with flags
	// applied.
	Settings config.Config

	// Verbose prints the filtered diff.
	Verbose bool

	// Stdout receives printed results.
	Stdout io.Writer

	// Backend replaces the git repository found by the
	// locator.
	Backend git.Backend

	// Fetcher replaces the platform fetcher built from
	// Settings.Commit.
	Fetcher git.CommitFetcher
}

// DiffOutcome reports what a diff run did.
type DiffOutcome struct {
	Context  cienv.Context
	Location locator.Location
	Result   acquire.Result
	Filtered filter.Filtered
	Report   sink.DiffReport
}

// CommitOutcome reports what a commit run did.
type CommitOutcome struct {
	Context cienv.Context
	Commit  *git.Commit
	// Path is the file the record was written to in CI.
	Path string
}

// Run executes mode.
func Run(ctx context.Context, mode Mode, cfg Config) error {
	const errCtx = "running pipeline"

	var err error

	switch mode {
	case ModeDiff:
		_, err = Diff(ctx, cfg)
	case ModeCommit:
		_, err = Commit(ctx, cfg)
	default:
		err = fmt.Errorf("unknown mode %d", mode)
	}

	if err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, mode, err)
	}

	return nil
}

// Diff acquires, filters and emits the diff. A failed
// acquisition is logged and yields no output; it is not
// an error.
func Diff(ctx context.Context, cfg Config) (DiffOutcome, error) {
	const errCtx = "producing diff"

	var out DiffOutcome

	out.Context = cienv.Classify(cfg.Env)
	logContext(out.Context)

	out.Location = locator.Locate(cfg.Cwd, out.Context.IsCI)

	backend := cfg.Backend
	if backend == nil {
		backend = git.NewRepo(out.Location.Root, cfg.Settings.Timeout)
	}

	out.Result = acquire.New(backend).Acquire(ctx, out.Context)
	if !out.Result.Succeeded {
		slog.Error("no diff acquired", "err", out.Result.Err)

		if errors.Is(out.Result.Err, acquire.ErrNoCommitHistory) ||
			errors.Is(out.Result.Err, git.ErrNoRepository) {
			slog.Info("run from within a git repository with commit history")
		}

		return out, nil
	}

	rules := filter.NewRuleSet(cfg.Settings.Ignore...)
	slog.Info("filtering diff", "rules", rules.Rules(), "strict", cfg.Settings.StrictMarkers)

	fl := filter.Filter{Rules: rules, Strict: cfg.Settings.StrictMarkers}

	filtered, err := fl.Apply(out.Result.Text)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	out.Filtered = filtered

	slog.Info(
		"diff filtered",
		"ignored", len(filtered.Ignored()),
		"bytes", len(filtered.Text),
	)

	snk, err := newSink(cfg, out.Context)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	out.Report, err = snk.EmitDiff(filtered.Text)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// Commit fetches and emits the commit record of the
// configured branch. Missing credentials and failed API
// calls are logged and yield no output.
func Commit(ctx context.Context, cfg Config) (CommitOutcome, error) {
	const errCtx = "producing commit details"

	var out CommitOutcome

	out.Context = cienv.Classify(cfg.Env)
	logContext(out.Context)

	remote := cienv.ResolveRemote(cfg.Env)

	slog.Info(
		"repository",
		"owner", remote.Owner,
		"repo", remote.Repo,
		"branch", remote.Branch,
		"token", remote.Token != "",
	)

	fetcher := cfg.Fetcher
	if fetcher == nil {
		f, err := NewFetcher(cfg.Settings.Commit, remote)
		if errors.Is(err, git.ErrCredentialMissing) {
			slog.Error("token not provided, cannot fetch commit details", "err", err)

			return out, nil
		}

		if err != nil {
			return out, fmt.Errorf("%s: %w", errCtx, err)
		}

		fetcher = f
	}

	if cfg.Settings.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Settings.Timeout)
		defer cancel()
	}

	c, err := fetcher.FetchCommit(ctx, remote.Branch)
	if err != nil {
		slog.Error("fetching commit details", "err", err)

		return out, nil
	}

	out.Commit = c

	snk, err := newSink(cfg, out.Context)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	out.Path, err = snk.EmitCommit(c)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// ExitCode maps a run error to a process status. Errors
// fail CI jobs but not local runs, where a human reads the
// log.
func ExitCode(err error, isCI bool) int {
	if err == nil || !isCI {
		return 0
	}

	return 1
}

func newSink(cfg Config, ec cienv.Context) (*sink.Sink, error) {
	return sink.New(sink.Config{
		Context:    ec,
		Cwd:        cfg.Cwd,
		DiffPath:   cfg.Settings.Output.DiffPath,
		CommitPath: cfg.Settings.Output.CommitPath,
		Stdout:     cfg.Stdout,
		Verbose:    cfg.Verbose,
	})
}

func logContext(ec cienv.Context) {
	env := "local"
	if ec.IsCI {
		env = "ci"
	}

	slog.Info(
		"execution context",
		"environment", env,
		"provider", ec.Provider,
		"event", ec.Event,
	)
}
