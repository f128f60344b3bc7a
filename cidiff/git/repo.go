package git

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/byte4ever/ci_diff/cidiff/exec"
)

// ErrNoRepository is returned when git reports that the
// directory is not inside a working tree.
var ErrNoRepository = errors.New("not a git repository")

// Backend is the subset of git the diff acquisition engine
// needs. Every method is fallible.
type Backend interface {
	// Log lists up to limit commits, newest first.
	Log(ctx context.Context, limit int) ([]Commit, error)
	// Diff runs git diff with the given revisions. No
	// revisions diffs the working tree against the index.
	Diff(ctx context.Context, revs ...string) (string, error)
	// Show returns the patch introduced by rev.
	Show(ctx context.Context, rev string) (string, error)
	// Unshallow fetches the missing history of a shallow
	// checkout.
	Unshallow(ctx context.Context) error
}

// Repo is a local git working tree.
type Repo struct {
	// Dir is the filesystem location of the working tree.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
	// Timeout bounds every git invocation. Zero disables
	// the bound.
	Timeout time.Duration
}

var _ Backend = (*Repo)(nil)

// NewRepo returns a Repo rooted at dir using the "origin"
// remote.
func NewRepo(dir string, timeout time.Duration) *Repo {
	return &Repo{
		Dir:        dir,
		RemoteName: "origin",
		Timeout:    timeout,
	}
}

// logFormat separates hash and subject with a unit
// separator so subjects may contain any printable text.
const logFormat = "--format=%H\x1f%s"

// Log lists up to limit commits reachable from HEAD, newest
// first. An unborn HEAD is reported as an error, exactly as
// git does.
func (r *Repo) Log(ctx context.Context, limit int) ([]Commit, error) {
	const errCtx = "listing commits"

	out, err := r.git(ctx, "log", fmt.Sprintf("--max-count=%d", limit), logFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var commits []Commit

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		sha, subject, _ := strings.Cut(sc.Text(), "\x1f")
		if sha == "" {
			continue
		}

		commits = append(commits, Commit{SHA: sha, Message: subject})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return commits, nil
}

// Diff returns the output of git diff for revs.
func (r *Repo) Diff(ctx context.Context, revs ...string) (string, error) {
	const errCtx = "diffing revisions"

	out, err := r.git(ctx, append([]string{"diff"}, revs...)...)
	if err != nil {
		return "", fmt.Errorf("%s %v: %w", errCtx, revs, err)
	}

	return out, nil
}

// Show returns the commit header and patch of rev.
func (r *Repo) Show(ctx context.Context, rev string) (string, error) {
	const errCtx = "showing revision"

	out, err := r.git(ctx, "show", rev)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", errCtx, rev, err)
	}

	return out, nil
}

// Unshallow converts a shallow checkout into a complete
// one. git rejects the request on a complete repository.
func (r *Repo) Unshallow(ctx context.Context) error {
	const errCtx = "unshallowing repository"

	if _, err := r.git(ctx, "fetch", "--unshallow", r.RemoteName); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// gitEnv pins git's messages to English so stderr matching
// works under any user locale.
var gitEnv = []string{"LC_ALL=C", "LANGUAGE=C"}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	out, err := exec.ExEnv(ctx, r.Dir, r.Timeout, gitEnv, "git", args...)
	if err != nil {
		var exErr *exec.Error
		if errors.As(err, &exErr) &&
			strings.Contains(strings.ToLower(exErr.Stderr), ErrNoRepository.Error()) {
			return out, fmt.Errorf("%w: %s: %w", ErrNoRepository, r.Dir, err)
		}

		return out, err
	}

	return out, nil
}
