package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/observability"
)

// runStages executes stages in order, recording timing and stopping on the first error.
func runStages(ctx context.Context, bs *buildState, stages []StageDef, obs BuildObserver) error {
	for i, st := range stages {
		stageCtx := observability.WithStage(ctx, string(st.Name))

		if err := ctx.Err(); err != nil {
			se := NewCanceledStageError(st.Name, err)
			bs.report.recordStage(st.Name, StageResultCanceled, 0, err)
			obs.OnStageComplete(stageCtx, st.Name, 0, StageResultCanceled, err)
			observability.WarnContext(stageCtx, "Build canceled before stage")
			skipRemaining(ctx, bs, stages[i+1:], obs)
			return se
		}

		obs.OnStageStart(stageCtx, st.Name)
		observability.DebugContext(stageCtx, "Stage started")

		t0 := time.Now()
		err := st.Fn(stageCtx, bs)
		dur := time.Since(t0)

		if err != nil {
			se := classifyStageError(st.Name, err)
			result := StageResultFatal
			if se.Kind == StageErrorCanceled {
				result = StageResultCanceled
			}
			bs.report.recordStage(st.Name, result, dur, se.Err)
			obs.OnStageComplete(stageCtx, st.Name, dur, result, se.Err)
			observability.ErrorContext(stageCtx, "Stage failed",
				logfields.DurationMS(msFloat(dur)),
				logfields.Error(se.Err))
			skipRemaining(ctx, bs, stages[i+1:], obs)
			return se
		}

		bs.report.recordStage(st.Name, StageResultSuccess, dur, nil)
		obs.OnStageComplete(stageCtx, st.Name, dur, StageResultSuccess, nil)
		observability.DebugContext(stageCtx, "Stage completed", logfields.DurationMS(msFloat(dur)))
	}
	return nil
}

func skipRemaining(ctx context.Context, bs *buildState, rest []StageDef, obs BuildObserver) {
	for _, st := range rest {
		bs.report.recordStage(st.Name, StageResultSkipped, 0, nil)
		obs.OnStageComplete(observability.WithStage(ctx, string(st.Name)), st.Name, 0, StageResultSkipped, nil)
	}
}

func msFloat(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
