// Package config reads the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/ci_diff/cidiff/filter"
)

// DefaultFile is read when no file is named explicitly.
const DefaultFile = ".ci_diff.yaml"

// Supported commit platforms.
const (
	PlatformGitHub    = "github"
	PlatformGitLab    = "gitlab"
	PlatformBitbucket = "bitbucket"
)

// Default output path templates. See sink.ExpandPath for
// the placeholders.
const (
	DefaultDiffPath   = "{workspace}/git-diff-output.txt"
	DefaultCommitPath = "{workspace}/commit-details.json"
	DefaultTimeout    = 2 * time.Minute
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the file configuration. Command-line flags are
// applied on top of it.
type Config struct {
	Ignore        []string      `yaml:"ignore"`
	StrictMarkers bool          `yaml:"strict_markers"`
	Timeout       time.Duration `yaml:"timeout"`
	Output        Output        `yaml:"output"`
	Commit        Commit        `yaml:"commit"`
}

// Output holds destination templates.
type Output struct {
	DiffPath   string `yaml:"diff_path"`
	CommitPath string `yaml:"commit_path"`
}

// Commit selects the hosting platform for commit metadata.
type Commit struct {
	Platform          string `yaml:"platform"`
	EnterpriseHost    string `yaml:"enterprise_host"`
	GitLabHost        string `yaml:"gitlab_host"`
	BitbucketEndpoint string `yaml:"bitbucket_endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Ignore:  append([]string(nil), filter.DefaultIgnore...),
		Timeout: DefaultTimeout,
		Output: Output{
			DiffPath:   DefaultDiffPath,
			CommitPath: DefaultCommitPath,
		},
		Commit: Commit{Platform: PlatformGitHub},
	}
}

// Load reads path over the defaults. A missing file is not
// an error unless required is set.
func Load(path string, required bool) (Config, error) {
	const errCtx = "loading config"

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return Default(), nil
		}

		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return cfg, nil
}

// Decode reads a YAML document from r over the defaults.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	const errCtx = "decoding config"

	var file Config

	err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&file)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg := Default().merge(file)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return cfg, nil
}

func (c Config) merge(o Config) Config {
	if o.Ignore != nil {
		c.Ignore = o.Ignore
	}

	if o.StrictMarkers {
		c.StrictMarkers = true
	}

	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}

	if o.Output.DiffPath != "" {
		c.Output.DiffPath = o.Output.DiffPath
	}

	if o.Output.CommitPath != "" {
		c.Output.CommitPath = o.Output.CommitPath
	}

	if o.Commit.Platform != "" {
		c.Commit.Platform = o.Commit.Platform
	}

	if o.Commit.EnterpriseHost != "" {
		c.Commit.EnterpriseHost = o.Commit.EnterpriseHost
	}

	if o.Commit.GitLabHost != "" {
		c.Commit.GitLabHost = o.Commit.GitLabHost
	}

	if o.Commit.BitbucketEndpoint != "" {
		c.Commit.BitbucketEndpoint = o.Commit.BitbucketEndpoint
	}

	return c
}

// Validate checks value ranges and the platform name.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalid, c.Timeout)
	}

	switch c.Commit.Platform {
	case PlatformGitHub, PlatformGitLab, PlatformBitbucket:
	default:
		return fmt.Errorf("%w: unknown platform %q", ErrInvalid, c.Commit.Platform)
	}

	if c.Commit.Platform == PlatformBitbucket && c.Commit.BitbucketEndpoint == "" {
		return fmt.Errorf("%w: bitbucket platform needs bitbucket_endpoint", ErrInvalid)
	}

	return nil
}
