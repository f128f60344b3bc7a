package filter

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange describes one file touched by a diff.
type FileChange struct {
	Path    string
	OldPath string
	New     bool
	Deleted bool
	Renamed bool
	Binary  bool
}

// Summarize lists the files touched by a diff. On a parse
// error the files read so far are returned with the error.
func Summarize(text string) ([]FileChange, error) {
	const errCtx = "summarizing diff"

	// Filtered text has its trailing newline stripped.
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	files, _, err := gitdiff.Parse(strings.NewReader(text))

	changes := make([]FileChange, 0, len(files))

	for _, f := range files {
		fc := FileChange{
			Path:    f.NewName,
			OldPath: f.OldName,
			New:     f.IsNew,
			Deleted: f.IsDelete,
			Renamed: f.IsRename,
			Binary:  f.IsBinary,
		}

		if fc.Path == "" {
			fc.Path = f.OldName
		}

		changes = append(changes, fc)
	}

	if err != nil {
		return changes, fmt.Errorf("%s: %w", errCtx, err)
	}

	return changes, nil
}
