package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/dirbuilder/internal/build"
	"git.home.luguber.info/inful/dirbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
	"git.home.luguber.info/inful/dirbuilder/internal/eventstore"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/metrics"
	"git.home.luguber.info/inful/dirbuilder/internal/shell"
	"git.home.luguber.info/inful/dirbuilder/internal/version"
)

// CLI is the command line of the build binary.
type CLI struct {
	Src     string `arg:"" optional:"" help:"Source directory. With a single path argument the current directory is used."`
	Dest    string `arg:"" optional:"" help:"Destination directory; wiped before every build."`
	Profile string `arg:"" optional:"" help:"Named profile in .buildrc."`

	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	LogLevel string           `name:"log-level" help:"Log level (${enum})" enum:"debug,info,warn,error" default:"info" env:"DIRBUILDER_LOG_LEVEL"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Shell       string   `help:"Shell used to run build commands (default bash, falling back to sh)" env:"DIRBUILDER_SHELL"`
	EnvFile     []string `name:"env-file" help:"KEY=VALUE file added to every command's environment (repeatable)" type:"path"`
	Report      string   `help:"Write a YAML build report to this path" type:"path"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus textfile metrics to this path" type:"path"`
	History     string   `help:"Append build events to this SQLite database" type:"path" env:"DIRBUILDER_HISTORY"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(kctx *kong.Context) error {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(kctx.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// paths applies the positional shorthand: a lone path is the destination and
// the source is the current directory.
func (c *CLI) paths() (src, dest string, err error) {
	src, dest = c.Src, c.Dest
	if dest == "" && c.Profile == "" {
		dest, src = src, ""
	}
	if src == "" {
		if src, err = os.Getwd(); err != nil {
			return "", "", dberrors.InternalError("cannot determine working directory", err)
		}
	}
	return src, dest, nil
}

// Execute resolves the configuration and runs one build.
func (c *CLI) Execute(ctx context.Context, stdout io.Writer) error {
	src, dest, err := c.paths()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(src, dest, c.Profile)
	if err != nil {
		return err
	}

	env, err := shell.LoadEnvFiles(c.EnvFile...)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, "cannot read env file")
	}

	engine := build.NewEngine(build.Deps{
		Commands: shell.NewRunner().WithShell(c.Shell).WithEnv(env),
	})

	var reg *prometheus.Registry
	if c.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		engine.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	var store *eventstore.SQLiteStore
	if c.History != "" {
		store, err = eventstore.NewSQLiteStore(c.History)
		if err != nil {
			return dberrors.HistoryError("cannot open build history", err).WithContext("path", c.History)
		}
		defer func() { _ = store.Close() }()
		engine.WithObserver(build.NewHistoryObserver(store))
	}

	report, runErr := engine.Run(ctx, cfg)
	if report != nil {
		c.publish(ctx, report, reg, store)
	}
	if runErr != nil {
		return runErr
	}

	_, _ = fmt.Fprintln(stdout, "SUCCESS!")
	return nil
}

// publish writes the optional build artifacts. Failures here are logged and
// never change the build outcome.
func (c *CLI) publish(ctx context.Context, report *build.Report, reg *prometheus.Registry, store *eventstore.SQLiteStore) {
	slog.Debug(report.Summary())

	if c.Report != "" {
		if err := report.Persist(c.Report); err != nil {
			slog.Warn("Failed to write build report", logfields.Path(c.Report), logfields.Error(err))
		}
	}
	if reg != nil {
		if err := metrics.WriteTextfile(reg, c.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics", logfields.Path(c.MetricsFile), logfields.Error(err))
		}
	}
	if store != nil {
		sum, err := eventstore.Summarize(context.WithoutCancel(ctx), store, report.BuildID)
		if err != nil {
			slog.Warn("Failed to read build history", logfields.Error(err))
		} else if sum != nil {
			slog.Debug("Build recorded in history",
				logfields.BuildID(sum.BuildID),
				slog.String("status", sum.Status),
				logfields.Count(len(sum.Stages)))
		}
	}
}

// exitRequest carries a kong exit (--help, --version) out of the parser.
type exitRequest int

// run parses args, executes the build and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("build"),
		kong.Description("Build a destination directory from a source tree described by .buildrc."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitRequest(c)) }),
	)
	if err != nil {
		panic(err)
	}

	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = int(req)
		}
	}()

	adapter := dberrors.NewCLIErrorAdapter(false, nil).WithOutput(stderr)
	if _, err := parser.Parse(args); err != nil {
		return adapter.Report(dberrors.UsageError(err.Error(), err))
	}

	adapter = dberrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).WithOutput(stderr)
	return adapter.Report(cli.Execute(ctx, stdout))
}
