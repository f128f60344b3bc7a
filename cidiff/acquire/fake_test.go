package acquire_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/byte4ever/ci_diff/cidiff/git"
)

var errScripted = errors.New("scripted failure")

// fakeBackend answers from fixed tables and records every
// call as a git-like command line.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	commits   []git.Commit
	logErr    error
	diffs     map[string]string
	shows     map[string]string
	unshallow error
}

var _ git.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Log(_ context.Context, limit int) ([]git.Commit, error) {
	f.record(fmt.Sprintf("log %d", limit))

	if f.logErr != nil {
		return nil, f.logErr
	}

	if len(f.commits) > limit {
		return f.commits[:limit], nil
	}

	return f.commits, nil
}

func (f *fakeBackend) Diff(_ context.Context, revs ...string) (string, error) {
	key := strings.TrimSpace("diff " + strings.Join(revs, " "))
	f.record(key)

	if out, ok := f.diffs[key]; ok {
		return out, nil
	}

	return "", fmt.Errorf("%s: %w", key, errScripted)
}

func (f *fakeBackend) Show(_ context.Context, rev string) (string, error) {
	key := "show " + rev
	f.record(key)

	if out, ok := f.shows[key]; ok {
		return out, nil
	}

	return "", fmt.Errorf("%s: %w", key, errScripted)
}

func (f *fakeBackend) Unshallow(context.Context) error {
	f.record("unshallow")

	return f.unshallow
}
