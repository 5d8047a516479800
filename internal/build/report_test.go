package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dirbuilder/internal/eventstore"
	"git.home.luguber.info/inful/dirbuilder/internal/metrics"
)

func TestReport_PersistYAML(t *testing.T) {
	cfg := testConfig(t)
	report, err := newTestEngine(Deps{
		Remover:       &fakeRemover{},
		Copier:        &fakeCopier{},
		SourceControl: fakeSourceControl{},
		Commands:      &fakeCommands{fail: map[string]error{"post-1": errors.New("boom")}},
	}).Run(context.Background(), cfg)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "reports", "build.yaml")
	require.NoError(t, report.Persist(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		BuildID    string `yaml:"build_id"`
		Profile    string `yaml:"profile"`
		Outcome    string `yaml:"outcome"`
		ErrorStage string `yaml:"error_stage"`
		Stages     []struct {
			Name   string `yaml:"name"`
			Result string `yaml:"result"`
		} `yaml:"stages"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Equal(t, "test-build", decoded.BuildID)
	require.Equal(t, "prod", decoded.Profile)
	require.Equal(t, "failed", decoded.Outcome)
	require.Equal(t, "post_commands", decoded.ErrorStage)
	require.Len(t, decoded.Stages, 6)
	require.Equal(t, "skipped", decoded.Stages[5].Result)
	require.NoFileExists(t, path+".tmp")
}

func TestReport_Summary(t *testing.T) {
	r := &Report{BuildID: "b1", Start: fixedNow, End: fixedNow.Add(1500 * time.Millisecond), Outcome: OutcomeSuccess, FilesCopied: 2}
	r.recordStage(StageClean, StageResultSuccess, time.Millisecond, nil)
	require.Equal(t, "build b1 success in 1.5s (files=2 commands=0) [clean=success]", r.Summary())
}

type countingRecorder struct {
	metrics.NoopRecorder
	stageResults map[string]metrics.ResultLabel
	outcome      metrics.BuildOutcomeLabel
	commands     int
}

func (c *countingRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	c.stageResults[stage] = res
}

func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) { c.outcome = o }

func (c *countingRecorder) ObserveCommandDuration(string, time.Duration, bool) { c.commands++ }

func TestEngine_RecordsMetrics(t *testing.T) {
	rec := &countingRecorder{stageResults: map[string]metrics.ResultLabel{}}
	_, err := newTestEngine(Deps{
		Remover:       &fakeRemover{},
		Copier:        &fakeCopier{err: errors.New("copy failed")},
		SourceControl: fakeSourceControl{},
		Commands:      &fakeCommands{},
	}).WithRecorder(rec).Run(context.Background(), testConfig(t))
	require.Error(t, err)

	require.Equal(t, metrics.ResultSuccess, rec.stageResults["pre_commands"])
	require.Equal(t, metrics.ResultFatal, rec.stageResults["copy"])
	require.Equal(t, metrics.ResultSkipped, rec.stageResults["provenance_write"])
	require.Equal(t, metrics.BuildOutcomeFailed, rec.outcome)
	require.Equal(t, 2, rec.commands)
}

func TestHistoryObserver_RecordsBuild(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(eventstore.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := testConfig(t)
	_, err = newTestEngine(Deps{
		Remover:       &fakeRemover{},
		Copier:        &fakeCopier{},
		SourceControl: fakeSourceControl{},
		Commands:      &fakeCommands{fail: map[string]error{"pre-2": errors.New("exit 1")}},
	}).WithObserver(NewHistoryObserver(store)).Run(context.Background(), cfg)
	require.Error(t, err)

	events, err := store.GetByBuildID(context.Background(), "test-build")
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	require.Equal(t, []string{
		eventstore.TypeBuildStarted,
		eventstore.TypeStageCompleted, // clean
		eventstore.TypeStageCompleted, // provenance_capture
		eventstore.TypeStageCompleted, // pre_commands
		eventstore.TypeBuildCompleted,
	}, types)

	sum, err := eventstore.Summarize(context.Background(), store, "test-build")
	require.NoError(t, err)
	require.Equal(t, string(OutcomeFailed), sum.Status)
	require.Equal(t, string(StagePreCommands), sum.ErrorStage)
	require.Equal(t, "prod", sum.Profile)
	require.Len(t, sum.Stages, 3)
	require.Equal(t, string(StageResultFatal), sum.Stages[2].Result)
}
