package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/filter"
	"github.com/byte4ever/ci_diff/cidiff/git"
)

// Step output names.
const (
	OutputDiffFound         = "diff_found"
	OutputDiffPath          = "diff_output_path"
	OutputDiffFiles         = "diff_files"
	OutputDiffSHA256        = "diff_sha256"
	OutputCommitSHA         = "commit_sha"
	OutputCommitDetailsPath = "commit_details_path"
)

// ErrNoCommit is returned by EmitCommit for a nil record.
var ErrNoCommit = errors.New("no commit record")

// Config holds the Sink parameters.
type Config struct {
	Context cienv.Context
	// Cwd is the workspace fallback and the base of
	// relative paths.
	Cwd string
	// DiffPath and CommitPath are path templates.
	DiffPath   string
	CommitPath string
	// Stdout receives printed diffs and records. Defaults
	// to os.Stdout.
	Stdout  io.Writer
	Verbose bool
}

// Sink writes results to their destinations.
type Sink struct {
	cfg Config
}

// New returns a Sink for cfg.
func New(cfg Config) (*Sink, error) {
	const errCtx = "creating sink"

	if cfg.DiffPath == "" || cfg.CommitPath == "" {
		return nil, fmt.Errorf("%s: output path templates are required", errCtx)
	}

	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	return &Sink{cfg: cfg}, nil
}

// Workspace is the CI checkout directory, or Cwd when the
// provider does not expose one.
func (s *Sink) Workspace() string {
	if s.cfg.Context.Workspace != "" {
		return s.cfg.Context.Workspace
	}

	return s.cfg.Cwd
}

func (s *Sink) expand(tmpl string) string {
	return ExpandPath(tmpl, map[string]interface{}{
		"workspace": s.Workspace(),
		"cwd":       s.cfg.Cwd,
		"provider":  s.cfg.Context.Provider.String(),
		"event":     s.cfg.Context.Event.String(),
	}, s.cfg.Cwd)
}

// DiffReport describes what EmitDiff delivered.
type DiffReport struct {
	// Path is empty when no file was written.
	Path   string
	Digest string
	Files  []filter.FileChange
}

// EmitDiff delivers the filtered diff. Files are only
// written in CI and only for a non-empty diff.
func (s *Sink) EmitDiff(text string) (DiffReport, error) {
	const errCtx = "emitting diff"

	var rep DiffReport

	if s.cfg.Verbose {
		if _, err := fmt.Fprintln(s.cfg.Stdout, text); err != nil {
			return rep, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if !s.cfg.Context.IsCI {
		return rep, nil
	}

	if text == "" {
		slog.Info("filtered diff is empty, nothing written")

		return rep, s.appendOutputs(Output{OutputDiffFound, "false"})
	}

	rep.Path = s.expand(s.cfg.DiffPath)

	if err := writeFile(rep.Path, []byte(text)); err != nil {
		return rep, fmt.Errorf("%s: %w", errCtx, err)
	}

	digest, err := SaveDigest(rep.Path)
	if err != nil {
		return rep, fmt.Errorf("%s: %w", errCtx, err)
	}

	rep.Digest = digest

	rep.Files, err = filter.Summarize(text)
	if err != nil {
		slog.Warn("diff summary is partial", "files", len(rep.Files), "err", err)
	}

	slog.Info(
		"diff written",
		"path", rep.Path,
		"files", len(rep.Files),
		"sha256", rep.Digest,
	)

	err = s.appendOutputs(
		Output{OutputDiffFound, "true"},
		Output{OutputDiffPath, rep.Path},
		Output{OutputDiffFiles, strconv.Itoa(len(rep.Files))},
		Output{OutputDiffSHA256, rep.Digest},
	)
	if err != nil {
		return rep, fmt.Errorf("%s: %w", errCtx, err)
	}

	return rep, nil
}

// EmitCommit delivers the commit record as indented JSON.
// It returns the path written in CI.
func (s *Sink) EmitCommit(c *git.Commit) (string, error) {
	const errCtx = "emitting commit"

	if c == nil {
		return "", fmt.Errorf("%s: %w", errCtx, ErrNoCommit)
	}

	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: marshaling record: %w", errCtx, err)
	}

	if !s.cfg.Context.IsCI || s.cfg.Verbose {
		if _, err := fmt.Fprintln(s.cfg.Stdout, string(buf)); err != nil {
			return "", fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if !s.cfg.Context.IsCI {
		return "", nil
	}

	path := s.expand(s.cfg.CommitPath)

	if err := writeFile(path, buf); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("commit details written", "path", path, "sha", c.SHA)

	err = s.appendOutputs(
		Output{OutputCommitSHA, c.SHA},
		Output{OutputCommitDetailsPath, path},
	)
	if err != nil {
		return path, fmt.Errorf("%s: %w", errCtx, err)
	}

	return path, nil
}

func (s *Sink) appendOutputs(outputs ...Output) error {
	if s.cfg.Context.OutputFile == "" {
		return nil
	}

	if err := AppendOutputs(s.cfg.Context.OutputFile, outputs...); err != nil {
		return err
	}

	names := make([]string, 0, len(outputs))
	for _, o := range outputs {
		names = append(names, o.Name)
	}

	slog.Info("step outputs set", "names", names)

	return nil
}

func writeFile(path string, data []byte) error {
	const errCtx = "writing file"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	//nolint:gosec // consumed by later CI steps
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
