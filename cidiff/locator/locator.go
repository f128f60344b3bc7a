// Package locator finds the root of the git working tree
// the tool should operate on.
package locator

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Marker is the entry whose presence identifies a git
// working tree root. It may be a directory or, for linked
// worktrees and submodules, a file.
const Marker = ".git"

// Location is the resolved repository root and the
// candidates that were probed to find it.
type Location struct {
	Root       string
	Candidates []string
	// Found is false when no candidate carried the marker
	// and Root fell back to the working directory.
	Found bool
}

// Locate returns the repository location for cwd. In CI the
// checkout is assumed to be cwd. Otherwise cwd, its parent
// and its grandparent are probed in that order. Locate
// never fails: when nothing matches it returns cwd and
// leaves later git calls to report the problem.
func Locate(cwd string, isCI bool) Location {
	if isCI {
		slog.Info("using CI working directory as repository", "dir", cwd)

		return Location{
			Root:       cwd,
			Candidates: []string{cwd},
			Found:      true,
		}
	}

	candidates := []string{
		cwd,
		filepath.Join(cwd, ".."),
		filepath.Join(cwd, "..", ".."),
	}

	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, Marker)); err == nil {
			slog.Info("found git repository", "dir", dir)

			return Location{
				Root:       dir,
				Candidates: candidates,
				Found:      true,
			}
		}
	}

	slog.Warn("no git repository found, using working directory", "dir", cwd)

	return Location{
		Root:       cwd,
		Candidates: candidates,
	}
}
