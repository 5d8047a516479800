package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dirbuilder/internal/config"
	"git.home.luguber.info/inful/dirbuilder/internal/version"
)

// reportSchemaVersion is bumped whenever a serialized field changes meaning.
const reportSchemaVersion = 1

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageRecord is the outcome of one pipeline stage.
type StageRecord struct {
	Name     StageName
	Result   StageResult
	Duration time.Duration
	Err      error
}

// Report captures what a single Engine.Run did.
type Report struct {
	BuildID    string
	Profile    string
	SourceRoot string
	DestRoot   string
	Start      time.Time
	End        time.Time
	Outcome    BuildOutcome
	Stages     []StageRecord

	FilesCopied int
	CommandsRun int
	// Provenance is the rendered .buildinfo content; empty if it was never written.
	Provenance string

	// Err is the fatal stage error, if any.
	Err *StageError
}

func newReport(buildID string, cfg *config.BuildConfig, start time.Time) *Report {
	return &Report{
		BuildID:    buildID,
		Profile:    cfg.Profile,
		SourceRoot: cfg.SourceRoot,
		DestRoot:   cfg.DestRoot,
		Start:      start,
	}
}

// Duration is the wall time of the build, or zero while it is running.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Stage returns the record of the named stage.
func (r *Report) Stage(name StageName) (StageRecord, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageRecord{}, false
}

func (r *Report) recordStage(name StageName, result StageResult, d time.Duration, err error) {
	r.Stages = append(r.Stages, StageRecord{Name: name, Result: result, Duration: d, Err: err})
}

// finish marks unrun stages skipped and derives the outcome from err.
func (r *Report) finish(defs []StageDef, end time.Time, err error) {
	for _, def := range defs {
		if _, ok := r.Stage(def.Name); !ok {
			r.recordStage(def.Name, StageResultSkipped, 0, nil)
		}
	}
	r.End = end

	var se *StageError
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
	case errors.As(err, &se):
		r.Err = se
		r.Outcome = OutcomeFailed
		if se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
		}
	default:
		r.Err = NewFatalStageError("", err)
		r.Outcome = OutcomeFailed
	}
}

// Summary returns a one-line human readable description.
func (r *Report) Summary() string {
	parts := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		parts = append(parts, fmt.Sprintf("%s=%s", s.Name, s.Result))
	}
	return fmt.Sprintf("build %s %s in %s (files=%d commands=%d) [%s]",
		r.BuildID, r.Outcome, r.Duration().Round(time.Millisecond), r.FilesCopied, r.CommandsRun, strings.Join(parts, " "))
}

type serializableStage struct {
	Name       string `yaml:"name"`
	Result     string `yaml:"result"`
	DurationMS int64  `yaml:"duration_ms"`
	Error      string `yaml:"error,omitempty"`
}

type serializableReport struct {
	SchemaVersion int                 `yaml:"schema_version"`
	Version       string              `yaml:"version"`
	BuildID       string              `yaml:"build_id"`
	Profile       string              `yaml:"profile,omitempty"`
	SourceRoot    string              `yaml:"source_root"`
	DestRoot      string              `yaml:"dest_root"`
	Start         time.Time           `yaml:"start"`
	End           time.Time           `yaml:"end"`
	DurationMS    int64               `yaml:"duration_ms"`
	Outcome       string              `yaml:"outcome"`
	FilesCopied   int                 `yaml:"files_copied"`
	CommandsRun   int                 `yaml:"commands_run"`
	Provenance    string              `yaml:"provenance,omitempty"`
	ErrorStage    string              `yaml:"error_stage,omitempty"`
	Error         string              `yaml:"error,omitempty"`
	Stages        []serializableStage `yaml:"stages"`
}

func (r *Report) serializable() serializableReport {
	out := serializableReport{
		SchemaVersion: reportSchemaVersion,
		Version:       version.Version,
		BuildID:       r.BuildID,
		Profile:       r.Profile,
		SourceRoot:    r.SourceRoot,
		DestRoot:      r.DestRoot,
		Start:         r.Start.UTC(),
		End:           r.End.UTC(),
		DurationMS:    r.Duration().Milliseconds(),
		Outcome:       string(r.Outcome),
		FilesCopied:   r.FilesCopied,
		CommandsRun:   r.CommandsRun,
		Provenance:    r.Provenance,
		Stages:        make([]serializableStage, 0, len(r.Stages)),
	}
	if r.Err != nil {
		out.ErrorStage = string(r.Err.Stage)
		out.Error = r.Err.Err.Error()
	}
	for _, s := range r.Stages {
		st := serializableStage{Name: string(s.Name), Result: string(s.Result), DurationMS: s.Duration.Milliseconds()}
		if s.Err != nil {
			st.Error = s.Err.Error()
		}
		out.Stages = append(out.Stages, st)
	}
	return out
}

// Persist writes the report as YAML to path atomically.
func (r *Report) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	data, err := yaml.Marshal(r.serializable())
	if err != nil {
		return fmt.Errorf("marshal report yaml: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}
