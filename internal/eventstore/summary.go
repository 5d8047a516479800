package eventstore

import (
	"context"
	"fmt"
	"time"
)

// Build status values of a BuildSummary.
const (
	StatusRunning = "running"
)

// StageSummary is the stored result of one stage.
type StageSummary struct {
	Stage    string
	Result   string
	Duration time.Duration
	Error    string
}

// BuildSummary is the read model of one build reconstructed from its events.
type BuildSummary struct {
	BuildID     string
	Profile     string
	DestRoot    string
	Status      string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Stages      []StageSummary
	ErrorStage  string
	Error       string
}

// Summarize loads the events of buildID and folds them into a BuildSummary.
// It returns (nil, nil) when the store has no events for the build.
func Summarize(ctx context.Context, store Store, buildID string) (*BuildSummary, error) {
	events, err := store.GetByBuildID(ctx, buildID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	sum := &BuildSummary{BuildID: buildID, Status: StatusRunning}
	for _, e := range events {
		if err := sum.apply(e); err != nil {
			return nil, fmt.Errorf("event %d: %w", e.ID, err)
		}
	}
	return sum, nil
}

func (s *BuildSummary) apply(e Event) error {
	switch e.Type {
	case TypeBuildStarted:
		var p BuildStartedPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		s.Profile = p.Profile
		s.DestRoot = p.DestRoot
		s.StartedAt = e.Timestamp
	case TypeStageCompleted:
		var p StageCompletedPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		s.Stages = append(s.Stages, StageSummary{
			Stage:    p.Stage,
			Result:   p.Result,
			Duration: time.Duration(p.DurationMS) * time.Millisecond,
			Error:    p.Error,
		})
	case TypeBuildCompleted:
		var p BuildCompletedPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		s.Status = p.Outcome
		s.CompletedAt = e.Timestamp
		s.Duration = time.Duration(p.DurationMS) * time.Millisecond
		s.ErrorStage = p.ErrorStage
		s.Error = p.Error
	}
	return nil
}
