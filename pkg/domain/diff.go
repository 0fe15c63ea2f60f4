package domain

import (
	"reflect"
	"sort"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// JourneyID is always present to identify the target.
	JourneyID string `json:"journey_id"`

	CurrentStepID *string          `json:"current_step_id,omitempty"`
	Status        *ExecutionStatus `json:"status,omitempty"`
	IsTyping      *bool            `json:"is_typing,omitempty"`
	ActiveWidget  *WidgetType      `json:"active_widget,omitempty"`

	// Fields contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Fields map[string]any `json:"fields,omitempty"`

	// History describes appended messages, or the full log when an edit rewrote it.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the chat log.
type HistoryDelta struct {
	// Rewritten is true when the old log is not a prefix of the new one
	// (an edit truncated it). Appended then carries the full new log.
	Rewritten bool          `json:"rewritten,omitempty"`
	Appended  []ChatMessage `json:"appended"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{JourneyID: newState.JourneyID}

	if oldState == nil || oldState.CurrentStepID != newState.CurrentStepID {
		diff.CurrentStepID = &newState.CurrentStepID
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if oldState == nil || oldState.IsTyping != newState.IsTyping {
		diff.IsTyping = &newState.IsTyping
	}
	if oldState == nil || oldState.ActiveWidget != newState.ActiveWidget {
		diff.ActiveWidget = &newState.ActiveWidget
	}

	var oldFields map[string]any
	if oldState != nil {
		oldFields = oldState.Fields
	}
	diff.Fields = DiffFields(oldFields, newState.Fields)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// DiffFields returns the added, modified and deleted keys between two field maps.
func DiffFields(old, new map[string]any) map[string]any {
	delta := make(map[string]any)
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// ChangedKeys returns the sorted keys a Patch would change on fields.
func ChangedKeys(fields map[string]any, patch Patch) []string {
	var keys []string
	for k, v := range patch {
		old, exists := fields[k]
		if !exists || !reflect.DeepEqual(old, v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func diffHistory(old *State, new *State) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: new.History}
	}

	oldLen, newLen := len(old.History), len(new.History)
	isPrefix := oldLen <= newLen
	for i := 0; isPrefix && i < oldLen; i++ {
		isPrefix = old.History[i].ID == new.History[i].ID
	}

	if !isPrefix {
		return &HistoryDelta{Rewritten: true, Appended: new.History}
	}
	if newLen > oldLen {
		return &HistoryDelta{Appended: new.History[oldLen:]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		d.Status == nil &&
		d.IsTyping == nil &&
		d.ActiveWidget == nil &&
		len(d.Fields) == 0 &&
		d.History == nil
}
