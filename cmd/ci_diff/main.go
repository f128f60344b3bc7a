// Command ci_diff extracts the diff of the latest change in
// a git repository, drops the sections of ignored files and
// hands the result to later CI steps. With -commit it
// fetches the commit metadata of the current branch from
// the hosting platform instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/byte4ever/ci_diff/cidiff/cienv"
	"github.com/byte4ever/ci_diff/cidiff/config"
	"github.com/byte4ever/ci_diff/cidiff/pipeline"
)

// defaultEnvFile is loaded when no -env-file is given.
const defaultEnvFile = ".env"

var (
	errNoMode    = errors.New("no mode selected")
	errBothModes = errors.New("-diff and -commit are mutually exclusive")
	// errFlags marks parse failures already reported by
	// the flag package.
	errFlags = errors.New("invalid flags")
)

// sliceFlag implements flag.Value for multi-value
// string flags (repeated --flag=val usage).
type sliceFlag []string

func (s *sliceFlag) String() string {
	if s == nil {
		return ""
	}

	return strings.Join(*s, ",")
}

func (s *sliceFlag) Set(val string) error {
	*s = append(*s, val)

	return nil
}

type options struct {
	diff       bool
	commit     bool
	verbose    bool
	strict     bool
	configPath string
	envFiles   sliceFlag
	ignore     sliceFlag
	timeout    time.Duration
	// configSet records an explicit -config, which makes a
	// missing file an error.
	configSet bool
}

func (o *options) mode() pipeline.Mode {
	if o.diff {
		return pipeline.ModeDiff
	}

	return pipeline.ModeCommit
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	isCI, err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	switch {
	case err == nil:
	case errors.Is(err, errNoMode):
		os.Exit(0)
	case errors.Is(err, errBothModes), errors.Is(err, errFlags):
		os.Exit(1)
	default:
		slog.Error("fatal", "error", err)
		os.Exit(pipeline.ExitCode(err, isCI))
	}
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
) (bool, error) {
	const errCtx = "running ci_diff"

	opts, err := parseFlags(args, stderr)
	if err != nil {
		return false, err
	}

	setupLogging(stderr, opts.verbose)

	env, err := loadEnv(opts.envFiles)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	isCI := cienv.Classify(env).IsCI

	settings, err := config.Load(opts.configPath, opts.configSet)
	if err != nil {
		return isCI, fmt.Errorf("%s: %w", errCtx, err)
	}

	settings = applyFlags(settings, opts)

	if err := settings.Validate(); err != nil {
		return isCI, fmt.Errorf("%s: %w", errCtx, err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return isCI, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("starting", "mode", opts.mode(), "ignore", settings.Ignore)

	err = pipeline.Run(ctx, opts.mode(), pipeline.Config{
		Env:      env,
		Cwd:      cwd,
		Settings: settings,
		Verbose:  opts.verbose,
		Stdout:   stdout,
	})
	if err != nil {
		return isCI, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("execution completed")

	return isCI, nil
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("ci_diff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&opts.diff, "diff", false, "Fetch the git diff")
	fs.BoolVar(&opts.diff, "d", false, "Shorthand for -diff")
	fs.BoolVar(&opts.commit, "commit", false, "Fetch commit details")
	fs.BoolVar(&opts.commit, "c", false, "Shorthand for -commit")
	fs.BoolVar(
		&opts.verbose, "verbose", false,
		"Show verbose output including the full diff",
	)
	fs.BoolVar(&opts.verbose, "v", false, "Shorthand for -verbose")
	fs.BoolVar(
		&opts.strict, "strict", false,
		"Reject the diff when a section marker cannot be parsed",
	)
	fs.StringVar(
		&opts.configPath, "config", config.DefaultFile,
		"YAML configuration file",
	)
	fs.Var(
		&opts.envFiles, "env-file",
		"Dotenv file to load (repeatable, default "+defaultEnvFile+")",
	)
	fs.Var(
		&opts.ignore, "ignore",
		"Additional path to ignore (repeatable)",
	)
	fs.DurationVar(
		&opts.timeout, "timeout", 0,
		"Bound on every git and API call (default from config)",
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errNoMode
		}

		return nil, fmt.Errorf("%w: %w", errFlags, err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configSet = true
		}
	})

	switch {
	case opts.diff && opts.commit:
		fmt.Fprintln(stderr, errBothModes)
		fs.Usage()

		return nil, errBothModes

	case !opts.diff && !opts.commit:
		fmt.Fprintln(stderr, "No options provided. Use -d for diff or -c for commit details.")
		fs.Usage()

		return nil, errNoMode
	}

	return opts, nil
}

func applyFlags(settings config.Config, opts *options) config.Config {
	if len(opts.ignore) > 0 {
		settings.Ignore = append(
			append([]string(nil), settings.Ignore...),
			opts.ignore...,
		)
	}

	if opts.strict {
		settings.StrictMarkers = true
	}

	if opts.timeout > 0 {
		settings.Timeout = opts.timeout
	}

	return settings
}

func loadEnv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{defaultEnvFile}
	}

	env, err := cienv.Load(files...)
	if err != nil {
		return nil, err
	}

	return env, nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}
