// Package eventstore keeps an append-only history of builds in SQLite.
//
// Each build appends a BuildStarted event, one StageCompleted event per stage
// that ran and a BuildCompleted event. Summarize folds the events of one build
// back into a BuildSummary.
package eventstore
