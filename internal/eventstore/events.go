package eventstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types written by a build.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeBuildCompleted = "BuildCompleted"
)

// Event is one stored history record. Payload is the JSON encoding of one of
// the typed payloads below.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// BuildStartedPayload describes the resolved configuration of a build.
type BuildStartedPayload struct {
	Profile      string `json:"profile,omitempty"`
	SourceRoot   string `json:"source_root"`
	DestRoot     string `json:"dest_root"`
	Files        int    `json:"files"`
	PreCommands  int    `json:"pre_commands"`
	PostCommands int    `json:"post_commands"`
}

// StageCompletedPayload records the result of one stage.
type StageCompletedPayload struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// BuildCompletedPayload records the final outcome of a build.
type BuildCompletedPayload struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	ErrorStage string `json:"error_stage,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewEvent marshals payload into an Event stamped with at.
func NewEvent(buildID, eventType string, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		BuildID:   buildID,
		Type:      eventType,
		Timestamp: at,
		Payload:   data,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
