package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/dirbuilder/internal/metrics"
	"git.home.luguber.info/inful/dirbuilder/internal/shell"
)

// BuildObserver receives callbacks around stage execution and build lifecycle.
type BuildObserver interface {
	OnBuildStart(ctx context.Context, report *Report, cfg BuildSummary)
	OnStageStart(ctx context.Context, stage StageName)
	OnStageComplete(ctx context.Context, stage StageName, duration time.Duration, result StageResult, err error)
	OnBuildComplete(ctx context.Context, report *Report)
}

// BuildSummary is the part of the resolved configuration observers record.
type BuildSummary struct {
	Files        int
	PreCommands  int
	PostCommands int
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnBuildStart(context.Context, *Report, BuildSummary)                           {}
func (NoopObserver) OnStageStart(context.Context, StageName)                                       {}
func (NoopObserver) OnStageComplete(context.Context, StageName, time.Duration, StageResult, error) {}
func (NoopObserver) OnBuildComplete(context.Context, *Report)                                      {}

// multiObserver fans callbacks out in registration order.
type multiObserver []BuildObserver

func (m multiObserver) OnBuildStart(ctx context.Context, r *Report, s BuildSummary) {
	for _, o := range m {
		o.OnBuildStart(ctx, r, s)
	}
}

func (m multiObserver) OnStageStart(ctx context.Context, stage StageName) {
	for _, o := range m {
		o.OnStageStart(ctx, stage)
	}
}

func (m multiObserver) OnStageComplete(ctx context.Context, stage StageName, d time.Duration, res StageResult, err error) {
	for _, o := range m {
		o.OnStageComplete(ctx, stage, d, res, err)
	}
}

func (m multiObserver) OnBuildComplete(ctx context.Context, r *Report) {
	for _, o := range m {
		o.OnBuildComplete(ctx, r)
	}
}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnBuildStart(context.Context, *Report, BuildSummary) {}
func (r RecorderObserver) OnStageStart(context.Context, StageName)             {}

func (r RecorderObserver) OnStageComplete(_ context.Context, stage StageName, d time.Duration, res StageResult, _ error) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
	if res != StageResultSkipped {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnBuildComplete(_ context.Context, report *Report) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(report.Duration())
	r.Recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))
}

// commandTally counts commands into the report and forwards durations to the recorder.
type commandTally struct {
	report   *Report
	recorder metrics.Recorder
}

func (c commandTally) OnCommandComplete(stage shell.Stage, res shell.Result) {
	c.report.CommandsRun++
	c.recorder.ObserveCommandDuration(string(stage), res.Duration, !res.Failed())
}
