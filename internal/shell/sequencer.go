package shell

import (
	"context"
	"fmt"
	"log/slog"

	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/observability"
)

// Stage tags which command list a command belongs to.
type Stage string

const (
	StagePre  Stage = "pre"  // runs in the source root before copying
	StagePost Stage = "post" // runs in the destination root after copying
)

// CommandRunner executes a single command; *Runner is the production implementation.
type CommandRunner interface {
	Run(ctx context.Context, dir, command string) Result
}

// CommandError reports the first failing command of a stage.
type CommandError struct {
	Stage  Stage
	Index  int
	Result Result
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command #%d %q failed: %v", e.Stage, e.Index+1, e.Result.Command, e.Result.Err)
}

func (e *CommandError) Unwrap() error { return e.Result.Err }

// ErrorCategory classifies command failures for exit code mapping.
func (e *CommandError) ErrorCategory() dberrors.ErrorCategory { return dberrors.CategoryCommand }

// CommandObserver is notified after every command completes.
type CommandObserver interface {
	OnCommandComplete(stage Stage, res Result)
}

// Sequencer runs ordered command lists, stopping at the first failure.
type Sequencer struct {
	runner   CommandRunner
	observer CommandObserver
}

// NewSequencer creates a Sequencer over runner.
func NewSequencer(runner CommandRunner) *Sequencer {
	return &Sequencer{runner: runner}
}

// WithObserver attaches a per-command observer.
func (s *Sequencer) WithObserver(o CommandObserver) *Sequencer {
	s.observer = o
	return s
}

// Run executes commands in order in dir. It returns the results of every
// command that ran and a *CommandError for the first failing one; commands
// after it are not started. ctx is checked between commands only.
func (s *Sequencer) Run(ctx context.Context, stage Stage, dir string, commands []string) ([]Result, error) {
	results := make([]Result, 0, len(commands))
	for i, command := range commands {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%s commands interrupted before #%d: %w", stage, i+1, err)
		}

		observability.InfoContext(ctx, "Executing: cd "+dir+" && "+command,
			logfields.Command(command), logfields.Dir(dir))

		res := s.runner.Run(ctx, dir, command)
		results = append(results, res)
		if s.observer != nil {
			s.observer.OnCommandComplete(stage, res)
		}

		if res.Failed() {
			observability.ErrorContext(ctx, "Command failed",
				logfields.Command(command),
				logfields.ExitCode(res.ExitCode),
				logfields.Error(res.Err))
			return results, &CommandError{Stage: stage, Index: i, Result: res}
		}
		observability.DebugContext(ctx, "Command finished",
			logfields.Command(command),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	}

	if len(commands) > 0 {
		observability.InfoContext(ctx, stageLabel(stage)+" commands executed.", slog.Int("commands", len(commands)))
	}
	return results, nil
}

func stageLabel(stage Stage) string {
	switch stage {
	case StagePre:
		return "Pre-build"
	case StagePost:
		return "Post-build"
	default:
		return string(stage)
	}
}
