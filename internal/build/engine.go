package build

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dirbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
	"git.home.luguber.info/inful/dirbuilder/internal/fsops"
	"git.home.luguber.info/inful/dirbuilder/internal/git"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/metrics"
	"git.home.luguber.info/inful/dirbuilder/internal/observability"
	"git.home.luguber.info/inful/dirbuilder/internal/shell"
)

// SourceControl reports repository state for provenance. A nil Info with a
// nil error means the directory is not under source control.
type SourceControl interface {
	Inspect(dir string) (*git.Info, error)
}

// Deps are the collaborators an Engine drives. Nil fields get the production
// implementation.
type Deps struct {
	Remover       fsops.Remover
	Copier        fsops.Copier
	SourceControl SourceControl
	Commands      shell.CommandRunner
}

// Engine runs the build pipeline. An Engine holds no per-build state and may
// run several builds, concurrently if they target distinct destinations.
type Engine struct {
	deps      Deps
	recorder  metrics.Recorder
	observers []BuildObserver
	now       func() time.Time
	newID     func() string
}

// NewEngine creates an Engine over deps.
func NewEngine(deps Deps) *Engine {
	if deps.Remover == nil {
		deps.Remover = fsops.OSRemover{}
	}
	if deps.Copier == nil {
		deps.Copier = fsops.NewGlobCopier()
	}
	if deps.SourceControl == nil {
		deps.SourceControl = git.NewInspector()
	}
	if deps.Commands == nil {
		deps.Commands = shell.NewRunner()
	}
	return &Engine{
		deps:     deps,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (e *Engine) WithRecorder(r metrics.Recorder) *Engine {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	e.recorder = r
	return e
}

// WithObserver registers an additional build observer.
func (e *Engine) WithObserver(o BuildObserver) *Engine {
	if o != nil {
		e.observers = append(e.observers, o)
	}
	return e
}

// buildState is the mutable state of one Run.
type buildState struct {
	cfg       *config.BuildConfig
	report    *Report
	gitInfo   *git.Info
	sequencer *shell.Sequencer
}

// Run executes every stage for cfg and returns the report together with the
// first fatal *StageError. The report is returned on failure too.
func (e *Engine) Run(ctx context.Context, cfg *config.BuildConfig) (*Report, error) {
	if cfg == nil {
		return nil, dberrors.InternalError("build configuration is nil", nil)
	}

	buildID := e.newID()
	ctx = observability.WithBuildID(ctx, buildID)
	ctx = observability.WithProfile(ctx, cfg.Profile)

	report := newReport(buildID, cfg, e.now())
	bs := &buildState{
		cfg:    cfg,
		report: report,
		sequencer: shell.NewSequencer(e.deps.Commands).
			WithObserver(commandTally{report: report, recorder: e.recorder}),
	}

	obs := e.observer()
	defs := e.pipeline()

	observability.InfoContext(ctx, "Build started",
		logfields.Path(cfg.DestRoot),
		logfields.Count(len(cfg.Files)))
	obs.OnBuildStart(ctx, report, BuildSummary{
		Files:        len(cfg.Files),
		PreCommands:  len(cfg.PreCommands),
		PostCommands: len(cfg.PostCommands),
	})

	err := runStages(ctx, bs, defs, obs)
	report.finish(defs, e.now(), err)
	obs.OnBuildComplete(ctx, report)

	if err != nil {
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err))
		return report, err
	}
	observability.InfoContext(ctx, "Build finished",
		logfields.DurationMS(msFloat(report.Duration())),
		logfields.Count(report.FilesCopied))
	return report, nil
}

func (e *Engine) observer() BuildObserver {
	obs := make(multiObserver, 0, len(e.observers)+1)
	obs = append(obs, RecorderObserver{Recorder: e.recorder})
	obs = append(obs, e.observers...)
	return obs
}

func (e *Engine) pipeline() []StageDef {
	return NewPipeline().
		Add(StageClean, e.stageClean).
		Add(StageProvenanceCapture, e.stageProvenanceCapture).
		Add(StagePreCommands, e.stagePreCommands).
		Add(StageCopy, e.stageCopy).
		Add(StagePostCommands, e.stagePostCommands).
		Add(StageProvenanceWrite, e.stageProvenanceWrite).
		Build()
}
