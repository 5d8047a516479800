package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/dirbuilder/internal/eventstore"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/observability"
)

// HistoryObserver appends build lifecycle events to an event store.
// Append failures are logged and never fail the build.
type HistoryObserver struct {
	store eventstore.Store
	now   func() time.Time
}

// NewHistoryObserver creates an observer writing to store.
func NewHistoryObserver(store eventstore.Store) *HistoryObserver {
	return &HistoryObserver{store: store, now: time.Now}
}

func (h *HistoryObserver) OnBuildStart(ctx context.Context, r *Report, s BuildSummary) {
	h.append(ctx, r.BuildID, eventstore.TypeBuildStarted, eventstore.BuildStartedPayload{
		Profile:      r.Profile,
		SourceRoot:   r.SourceRoot,
		DestRoot:     r.DestRoot,
		Files:        s.Files,
		PreCommands:  s.PreCommands,
		PostCommands: s.PostCommands,
	})
}

func (h *HistoryObserver) OnStageStart(context.Context, StageName) {}

func (h *HistoryObserver) OnStageComplete(ctx context.Context, stage StageName, d time.Duration, res StageResult, err error) {
	if res == StageResultSkipped {
		return
	}
	p := eventstore.StageCompletedPayload{Stage: string(stage), Result: string(res), DurationMS: d.Milliseconds()}
	if err != nil {
		p.Error = err.Error()
	}
	h.append(ctx, buildIDFrom(ctx), eventstore.TypeStageCompleted, p)
}

func (h *HistoryObserver) OnBuildComplete(ctx context.Context, r *Report) {
	p := eventstore.BuildCompletedPayload{Outcome: string(r.Outcome), DurationMS: r.Duration().Milliseconds()}
	if r.Err != nil {
		p.ErrorStage = string(r.Err.Stage)
		p.Error = r.Err.Err.Error()
	}
	h.append(ctx, r.BuildID, eventstore.TypeBuildCompleted, p)
}

func (h *HistoryObserver) append(ctx context.Context, buildID, eventType string, payload any) {
	// History is written even when the build itself was canceled.
	ctx = context.WithoutCancel(ctx)
	e, err := eventstore.NewEvent(buildID, eventType, h.now(), payload)
	if err == nil {
		err = h.store.Append(ctx, e)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
	}
}

func buildIDFrom(ctx context.Context) string {
	return observability.FieldsFrom(ctx).BuildID
}
