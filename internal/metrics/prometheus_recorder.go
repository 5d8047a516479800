package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "dirbuilder"

// PrometheusRecorder is a Recorder backed by Prometheus collectors. A nil
// *PrometheusRecorder records nothing.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	commandDuration *prom.HistogramVec
	commandResults  *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg
// (a fresh registry when nil). Registering twice on one registry panics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	seconds := func(name, help string) prom.HistogramOpts {
		return prom.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: prom.DefBuckets}
	}
	total := func(name, help string) prom.CounterOpts {
		return prom.CounterOpts{Namespace: namespace, Name: name, Help: help}
	}

	pr := &PrometheusRecorder{
		stageDuration:   prom.NewHistogramVec(seconds("stage_duration_seconds", "Duration of individual build stages"), []string{"stage"}),
		buildDuration:   prom.NewHistogram(seconds("build_duration_seconds", "Total build duration")),
		stageResults:    prom.NewCounterVec(total("stage_results_total", "Stage results by outcome"), []string{"stage", "result"}),
		buildOutcome:    prom.NewCounterVec(total("build_outcomes_total", "Builds by final status"), []string{"outcome"}),
		commandDuration: prom.NewHistogramVec(seconds("command_duration_seconds", "Duration of pre and post build commands"), []string{"stage", "result"}),
		commandResults:  prom.NewCounterVec(total("command_results_total", "Pre and post build command results"), []string{"stage", "result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.commandDuration, pr.commandResults)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveCommandDuration(stage string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.commandDuration.WithLabelValues(stage, res).Observe(d.Seconds())
	p.commandResults.WithLabelValues(stage, res).Inc()
}

// WriteTextfile writes every metric in reg to path in the Prometheus text
// format, creating the parent directory. The file is replaced atomically.
func WriteTextfile(reg prom.Gatherer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
