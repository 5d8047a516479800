// Package metrics records build and stage metrics.
//
// Components receive a Recorder and call it unconditionally. NoopRecorder is
// the default, so callers never nil-check:
//
//	engine := build.NewEngine(deps).WithRecorder(metrics.NoopRecorder{})
//
// PrometheusRecorder registers its collectors on a caller-supplied registry.
// A one-shot CLI has no scrape endpoint, so the registry is exported in the
// node_exporter textfile format after the build:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the build ...
//	_ = metrics.WriteTextfile(reg, "/var/lib/node_exporter/dirbuilder.prom")
package metrics
