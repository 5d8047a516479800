package build

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
)

func TestStageError_Category(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		err  *StageError
		want dberrors.ErrorCategory
	}{
		{NewFatalStageError(StageClean, cause), dberrors.CategoryFileSystem},
		{NewFatalStageError(StageCopy, cause), dberrors.CategoryFileSystem},
		{NewFatalStageError(StageProvenanceWrite, cause), dberrors.CategoryFileSystem},
		{NewFatalStageError(StagePreCommands, cause), dberrors.CategoryCommand},
		{NewFatalStageError(StagePostCommands, cause), dberrors.CategoryCommand},
		{NewFatalStageError(StageProvenanceCapture, cause), dberrors.CategoryGit},
		{NewCanceledStageError(StageCopy, context.Canceled), dberrors.CategoryBuild},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind)+"/"+string(tt.err.Stage), func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.ErrorCategory())
			require.Equal(t, tt.want, dberrors.GetCategory(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestStageError_Message(t *testing.T) {
	err := NewFatalStageError(StageCopy, errors.New("disk full"))
	require.Equal(t, "fatal stage copy: disk full", err.Error())
}

func TestClassifyStageError(t *testing.T) {
	require.Equal(t, StageErrorFatal, classifyStageError(StageCopy, errors.New("x")).Kind)
	require.Equal(t, StageErrorCanceled, classifyStageError(StageCopy, fmt.Errorf("stop: %w", context.Canceled)).Kind)
	require.Equal(t, StageErrorCanceled, classifyStageError(StageCopy, context.DeadlineExceeded).Kind)

	inner := NewFatalStageError(StageClean, errors.New("x"))
	require.Same(t, inner, classifyStageError(StageCopy, inner))
}

func TestPipeline_BuildCopies(t *testing.T) {
	noop := func(context.Context, *buildState) error { return nil }
	p := NewPipeline().Add(StageClean, noop).Add(StageCopy, noop)
	defs := p.Build()
	defs[0].Name = "mutated"
	require.Equal(t, StageClean, p.Defs[0].Name)
	require.Len(t, defs, 2)
}
