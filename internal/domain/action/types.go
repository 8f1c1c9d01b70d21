// Package action defines the normalized output of intent resolution: the
// closed set of canonical operations, one typed payload per operation, the
// CanonicalAction handed to the execution layer, and the IssueReport
// returned when a batch cannot be normalized.
//
// Draft actions arrive as loose field maps. Once the canonical operation is
// known, Decode converts the map into that operation's payload struct,
// dropping unrecognized keys and rejecting malformed values, and enforces
// the operation's required fields.
package action

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/registry"
)

// Operation is a canonical operation name.
type Operation string

const (
	OpCreateTask Operation = registry.CreateTask
	OpGetTasks   Operation = registry.GetTasks
	OpUpdateTask Operation = registry.UpdateTask
	OpDeleteTask Operation = registry.DeleteTask

	OpCreateReminder Operation = registry.CreateReminder
	OpGetReminders   Operation = registry.GetReminders
	OpUpdateReminder Operation = registry.UpdateReminder
	OpDeleteReminder Operation = registry.DeleteReminder

	OpCreateAIAction Operation = registry.CreateAIAction
	OpGetAIActions   Operation = registry.GetAIActions
	OpUpdateAIAction Operation = registry.UpdateAIAction
	OpDeleteAIAction Operation = registry.DeleteAIAction

	OpCreateJournalEntry   Operation = registry.CreateJournalEntry
	OpSearchJournalEntries Operation = registry.SearchJournalEntries
	OpUpdateJournalEntry   Operation = registry.UpdateJournalEntry
	OpDeleteJournalEntry   Operation = registry.DeleteJournalEntry
	OpGetJournalCategories Operation = registry.GetJournalCategories

	OpAddAIBrain    Operation = registry.AddAIBrain
	OpSearchAIBrain Operation = registry.SearchAIBrain
	OpUpdateAIBrain Operation = registry.UpdateAIBrain
	OpDeleteAIBrain Operation = registry.DeleteAIBrain
)

// String returns the string representation of the Operation.
func (o Operation) String() string {
	return string(o)
}

// Known reports whether o has a payload schema.
func (o Operation) Known() bool {
	_, ok := payloadFactories[o]
	return ok
}

// ReferenceDependent reports whether o targets an existing task that may be
// named by titleMatch or task_id.
func (o Operation) ReferenceDependent() bool {
	return o == OpUpdateTask || o == OpDeleteTask
}

// TimeDependent reports whether o needs an absolute remind_at time.
func (o Operation) TimeDependent() bool {
	return o == OpCreateReminder || o == OpUpdateReminder
}

// RequiresConfirmation reports whether o must carry a confirmation flag.
func (o Operation) RequiresConfirmation() bool {
	return o == OpDeleteTask
}

// Operations returns every operation with a payload schema, sorted by name.
func Operations() []Operation {
	ops := slices.Collect(maps.Keys(payloadFactories))
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Field names shared across payloads and the resolution pipeline.
const (
	FieldType        = "type"
	FieldTitle       = "title"
	FieldTitleMatch  = "titleMatch"
	FieldTaskID      = "task_id"
	FieldRemindAt    = "remind_at"
	FieldConfirm     = "confirm"
	FieldContent     = "content"
	FieldDescription = "description"
)

// TimeAliases are the draft keys that may carry a reminder time, in lookup
// order. The normalized value is always written to FieldRemindAt.
var TimeAliases = []string{"reminderTime", "remind_at", "time", "when", "reminder_time", "at", "schedule_at"}

// CanonicalAction is one validated, executable action.
// It is immutable once returned by the resolution service.
type CanonicalAction struct {
	// Type is the canonical operation.
	Type Operation
	// Category is the registry category of Type.
	Category registry.Category
	// Fields holds the recognized, non-empty fields of Payload keyed by
	// their wire names.
	Fields map[string]any
	// Payload is the typed variant for Type.
	Payload Payload
}

// NewCanonicalAction builds a CanonicalAction from a decoded payload.
func NewCanonicalAction(p Payload, category registry.Category) (CanonicalAction, error) {
	fields, err := payloadFields(p)
	if err != nil {
		return CanonicalAction{}, err
	}
	return CanonicalAction{
		Type:     p.Operation(),
		Category: category,
		Fields:   fields,
		Payload:  p,
	}, nil
}

// Field returns the value of a field and whether it is set.
func (a CanonicalAction) Field(name string) (any, bool) {
	v, ok := a.Fields[name]
	return v, ok
}

// MarshalJSON renders the action flat: {"type": ..., <fields>...}.
func (a CanonicalAction) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Fields)+1)
	for k, v := range a.Fields {
		out[k] = v
	}
	out[FieldType] = a.Type
	return json.Marshal(out)
}

// MarshalYAML renders the action flat, like MarshalJSON.
func (a CanonicalAction) MarshalYAML() (any, error) {
	out := make(map[string]any, len(a.Fields)+1)
	for k, v := range a.Fields {
		out[k] = v
	}
	out[FieldType] = a.Type.String()
	return out, nil
}

// payloadFields converts a payload to its wire map. Zero values are omitted
// through the payloads' omitempty tags.
func payloadFields(p Payload) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Operation(), err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", p.Operation(), err)
	}
	return fields, nil
}
