package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// WithOutput redirects the user-facing failure line (stderr by default).
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// Process exit codes by error category. Unclassified errors exit with
// ExitGeneral.
const (
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitConfig     = 7
	ExitGit        = 8
	ExitCommand    = 9
	ExitInternal   = 10
	ExitBuildStage = 11
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: ExitUsage,
	CategoryConfig:     ExitConfig,
	CategoryGit:        ExitGit,
	CategoryCommand:    ExitCommand,
	CategoryInternal:   ExitInternal,
	CategoryBuild:      ExitBuildStage,
	CategoryFileSystem: ExitBuildStage,
}

// ExitCodeFor maps err to a process exit code; nil maps to 0.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := classify(err)
	if !ok {
		return ExitGeneral
	}
	if code, known := exitCodes[c]; known {
		return code
	}
	return ExitGeneral
}

// FormatError formats an error for user-friendly display on a single line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if a.verbose {
		return fmt.Sprintf("FAILED: %v", err)
	}

	if be, ok := AsBuildError(err); ok && be == err {
		switch be.Category {
		case CategoryConfig, CategoryValidation:
			return "FAILED: " + be.Message
		default:
			return fmt.Sprintf("FAILED: %s: %s", be.Category, be.Message)
		}
	}

	return fmt.Sprintf("FAILED: %v", err)
}

// Report logs and prints err, returning the exit code the process should use.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// shouldLog reports whether err gets a log record in addition to the
// FAILED line. Non-fatal BuildErrors only get the line.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if be, ok := AsBuildError(err); ok {
		return be.Category == CategoryInternal || be.Severity == SeverityFatal
	}

	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if be, ok := AsBuildError(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(be.Category)),
		}
		for k, v := range be.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if be.Cause != nil {
			attrs = append(attrs, slog.String("error", be.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(be.Severity), be.Message, attrs...)
		return
	}

	a.logger.Error("Build failed", slog.String("category", string(GetCategory(err))), slog.String("error", err.Error()))
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	if severity == SeverityInfo {
		return slog.LevelInfo
	}
	return slog.LevelError
}
