package build

import (
	"context"
	"errors"
	"fmt"

	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
)

// Stage is a discrete unit of work in a build.
type Stage func(ctx context.Context, bs *buildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageClean             StageName = "clean"
	StageProvenanceCapture StageName = "provenance_capture"
	StagePreCommands       StageName = "pre_commands"
	StageCopy              StageName = "copy"
	StagePostCommands      StageName = "post_commands"
	StageProvenanceWrite   StageName = "provenance_write"
)

// StageErrorKind classifies the outcome of a failed stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a stage failure carrying the stage name and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ErrorCategory maps the failing stage to an error category for exit codes.
func (e *StageError) ErrorCategory() dberrors.ErrorCategory {
	if e.Kind == StageErrorCanceled {
		return dberrors.CategoryBuild
	}
	switch e.Stage {
	case StagePreCommands, StagePostCommands:
		return dberrors.CategoryCommand
	case StageProvenanceCapture:
		return dberrors.CategoryGit
	default:
		return dberrors.CategoryFileSystem
	}
}

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewCanceledStageError creates a stage error for context cancellation.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// classifyStageError wraps a raw stage error, marking context errors as cancellation.
func classifyStageError(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledStageError(stage, err)
	}
	return NewFatalStageError(stage, err)
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 6)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
