// Package build runs the directory build pipeline.
//
// Engine executes a fixed sequence of stages for one resolved
// config.BuildConfig:
//
//	clean → provenance_capture → pre_commands → copy → post_commands → provenance_write
//
// Stages run once, in order, on the calling goroutine. The first fatal stage
// error aborts the build; later stages are recorded as skipped and nothing
// already done is rolled back. The context is consulted before each stage and
// between commands, never while a command is running.
//
// Every run produces a Report. Observers (metrics, history) are notified as
// stages complete; they cannot influence the outcome.
package build
