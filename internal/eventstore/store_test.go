package eventstore

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

const testBuildID = "3f1c9a52-build"

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	payload := []byte(`{"test": "data"}`)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := store.Append(ctx, Event{
		BuildID:   testBuildID,
		Type:      "TestEvent",
		Timestamp: at,
		Payload:   payload,
		Metadata:  map[string]string{"key": "value"},
	})
	if err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := store.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.BuildID != testBuildID {
		t.Errorf("expected build_id %s, got %s", testBuildID, event.BuildID)
	}
	if event.Type != "TestEvent" {
		t.Errorf("expected event_type TestEvent, got %s", event.Type)
	}
	if !bytes.Equal(event.Payload, payload) {
		t.Errorf("expected payload %s, got %s", payload, event.Payload)
	}
	if event.Metadata["key"] != "value" {
		t.Errorf("expected metadata key=value, got %v", event.Metadata)
	}
	if !event.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, event.Timestamp)
	}
}

func TestEventStoreGetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		err := store.Append(ctx, Event{BuildID: "build-1", Type: "Event", Timestamp: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	events, err := store.GetRange(ctx, base.Add(-time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestEventStoreMultipleBuilds(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	_ = store.Append(ctx, Event{BuildID: "build-1", Type: "Event1"})
	_ = store.Append(ctx, Event{BuildID: "build-2", Type: "Event2"})
	_ = store.Append(ctx, Event{BuildID: "build-1", Type: "Event3"})

	events, err := store.GetByBuildID(ctx, "build-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for build-1, got %d", len(events))
	}
	if events[0].Type != "Event1" || events[1].Type != "Event3" {
		t.Errorf("events out of order: %s, %s", events[0].Type, events[1].Type)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be replaced on append")
	}
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Append(ctx, Event{BuildID: testBuildID, Type: TypeBuildStarted}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected persisted event, got %d", len(events))
	}
}
