package git_test

import (
	"context"
	"os"
	oe "os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/ci_diff/cidiff/git"
)

func TestRepo_Log_unborn_head(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gitCmd(t, dir, "init", "-b", "main")

	commits, err := git.NewRepo(dir, time.Minute).Log(context.Background(), 2)

	assert.Error(t, err)
	assert.Empty(t, commits)
}

func TestRepo_Log_newest_first_and_limited(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)
	commitFile(t, dir, "a.txt", "a\n", "add a")
	commitFile(t, dir, "b.txt", "b\n", "add b: with colon")

	commits, err := git.NewRepo(dir, time.Minute).Log(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "add b: with colon", commits[0].Message)
	assert.Equal(t, "add a", commits[1].Message)
	assert.Len(t, commits[0].SHA, 40)
}

func TestRepo_Diff_between_commits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)
	commitFile(t, dir, "app.go", "package app\n", "add app")

	out, err := git.NewRepo(dir, time.Minute).Diff(
		context.Background(), "HEAD~1", "HEAD",
	)

	require.NoError(t, err)
	assert.Contains(t, out, "diff --git a/app.go b/app.go")
	assert.Contains(t, out, "+package app")
}

func TestRepo_Diff_missing_revision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)

	_, err := git.NewRepo(dir, time.Minute).Diff(
		context.Background(), "HEAD~1", "HEAD",
	)

	assert.Error(t, err)
}

func TestRepo_Diff_working_tree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)
	commitFile(t, dir, "app.go", "package app\n", "add app")

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "app.go"),
		[]byte("package app\n\nvar x = 1\n"),
		0o600,
	))

	out, err := git.NewRepo(dir, time.Minute).Diff(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out, "+var x = 1")
}

func TestRepo_Show(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)
	commitFile(t, dir, "lib.go", "package lib\n", "add lib")

	out, err := git.NewRepo(dir, time.Minute).Show(context.Background(), "HEAD")

	require.NoError(t, err)
	assert.Contains(t, out, "add lib")
	assert.Contains(t, out, "diff --git a/lib.go b/lib.go")
}

func TestRepo_Unshallow_complete_repository_fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)

	err := git.NewRepo(dir, time.Minute).Unshallow(context.Background())

	assert.Error(t, err)
}

func TestRepo_Unshallow_shallow_clone(t *testing.T) {
	t.Parallel()

	src := t.TempDir()

	initGitRepo(t, src)
	commitFile(t, src, "a.txt", "a\n", "add a")
	commitFile(t, src, "b.txt", "b\n", "add b")

	dst := filepath.Join(t.TempDir(), "clone")
	gitCmd(t, "", "clone", "--depth", "1", "file://"+src, dst)

	rp := git.NewRepo(dst, time.Minute)

	before, err := rp.Log(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, before, 1)

	_, err = rp.Diff(context.Background(), "HEAD~1", "HEAD")
	require.Error(t, err)

	require.NoError(t, rp.Unshallow(context.Background()))

	after, err := rp.Log(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestRepo_not_a_repository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := git.NewRepo(dir, time.Minute).Log(context.Background(), 2)

	assert.ErrorIs(t, err, git.ErrNoRepository)
}

func TestRepo_not_a_repository_localized(t *testing.T) {
	t.Setenv("LC_ALL", "fr_FR.UTF-8")
	t.Setenv("LANGUAGE", "fr")
	t.Setenv("LANG", "fr_FR.UTF-8")

	dir := t.TempDir()

	_, err := git.NewRepo(dir, time.Minute).Log(context.Background(), 2)

	assert.ErrorIs(t, err, git.ErrNoRepository)
}

func TestGitEnv_pins_locale(t *testing.T) {
	t.Parallel()

	assert.Contains(t, git.GitEnvForTest, "LC_ALL=C")
}

// initGitRepo creates a git repository with one
// initial commit. Git hooks are disabled to avoid
// interference from pre-commit hooks.
func initGitRepo(tb testing.TB, dir string) {
	tb.Helper()

	cmds := [][]string{
		{"init", "-b", "main"},
		{
			"config",
			"user.email", "test@test.com",
		},
		{"config", "user.name", "Test"},
		{"config", "commit.gpgsign", "false"},
		// Disable hooks so pre-commit scanners do
		// not interfere with tests.
		{
			"config", "core.hooksPath",
			"/dev/null",
		},
		{
			"commit", "--allow-empty",
			"-m", "initial",
		},
	}

	for _, args := range cmds {
		gitCmd(tb, dir, args...)
	}
}

// commitFile writes content to name and commits it.
func commitFile(
	tb testing.TB,
	dir string,
	name string,
	content string,
	msg string,
) {
	tb.Helper()

	//nolint:gosec // test file
	err := os.WriteFile(
		filepath.Join(dir, name), []byte(content), 0o600,
	)
	require.NoError(tb, err)

	gitCmd(tb, dir, "add", name)
	gitCmd(tb, dir, "commit", "-m", msg)
}

// gitCmd runs a git command in the given directory.
func gitCmd(
	tb testing.TB,
	dir string,
	args ...string,
) {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(
		context.Background(), "git", args...,
	)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf(
			"git %v failed: %s: %v",
			args, string(out), err,
		)
	}
}
