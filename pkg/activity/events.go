package activity

import (
	"strings"
	"time"
)

// CycleEventInput describes the common fields for cycle lifecycle events.
type CycleEventInput struct {
	CycleID    string
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	StateName  string
	States     []string
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildCycleBeganEvent constructs a normalized activity event for the start
// of an event cycle.
func BuildCycleBeganEvent(input CycleEventInput) Event {
	return buildCycleEvent("cycle.began", "cycle", input)
}

// BuildCycleFinishedEvent constructs a normalized activity event for the end
// of an event cycle, including the drained state names and any aggregate
// finalization error.
func BuildCycleFinishedEvent(input CycleEventInput) Event {
	return buildCycleEvent("cycle.finished", "cycle", input)
}

// BuildStateCreatedEvent constructs an activity event describing the lazy
// creation of one state instance within a cycle.
func BuildStateCreatedEvent(input CycleEventInput) Event {
	return buildCycleEvent("cycle.state.created", "cycle.state", input)
}

func buildCycleEvent(verb, objectType string, input CycleEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.States) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["states"] = append([]string{}, input.States...)
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.StateName)
	if objectID == "" {
		objectID = strings.TrimSpace(input.CycleID)
	}

	return Event{
		Verb:       verb,
		CycleID:    strings.TrimSpace(input.CycleID),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		StateName:  strings.TrimSpace(input.StateName),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
