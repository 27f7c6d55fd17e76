// Package schema defines the canonical shapes flowing through the
// pipeline: intents, per-action extracted fields, validation output and
// route decisions. Pure data, no behavior beyond small helpers.
package schema

import "time"

// Action is the calendar operation a user utterance maps to.
type Action string

const (
	ActionCreateEvent Action = "create_event"
	ActionUpdateEvent Action = "update_event"
	ActionDeleteEvent Action = "delete_event"
	ActionListEvents  Action = "list_events"
	ActionNone        Action = "none"
)

// ParseAction maps a raw label to a known Action. Anything unrecognized
// collapses to ActionNone; "unknown" is accepted as a legacy alias.
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent, ActionListEvents, ActionNone:
		return Action(s)
	}
	if s == "unknown" {
		return ActionNone
	}
	return ActionNone
}

// Valid reports whether a is one of the defined action labels.
func (a Action) Valid() bool {
	switch a {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent, ActionListEvents, ActionNone:
		return true
	}
	return false
}

// Intent is the classified user action plus the classifier's confidence.
// Immutable once produced.
type Intent struct {
	Action     Action
	Confidence float64
}

// Fields is a tagged union keyed by Action. Exactly one variant pointer is
// non-nil for a known action. Nil field pointers mean "not provided"; the
// extractor deliberately collapses provided-but-blank strings to nil as
// well, so downstream stages treat both as missing.
type Fields struct {
	Action Action
	Create *CreateFields
	Update *UpdateFields
	Delete *DeleteFields
	List   *ListFields
}

// CreateFields holds raw extractor output for create_event. Times stay as
// strings until validation normalizes them.
type CreateFields struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *string
	EndTime     *string
	AllDay      *bool
}

// UpdateFields holds raw extractor output for update_event.
type UpdateFields struct {
	EventReference *string
	UpdatedFields  map[string]string
}

// DeleteFields holds raw extractor output for delete_event.
type DeleteFields struct {
	EventReference *string
}

// ListFields holds raw extractor output for list_events.
type ListFields struct {
	StartTime *string
	EndTime   *string
}

// FieldError is one violated validation rule, scoped to a field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string { return e.Field + ": " + e.Reason }

// ValidationResult is the deterministic validator's verdict. Errors keeps
// every violated rule in check order; Normalized is only set when Valid.
type ValidationResult struct {
	Valid      bool
	Errors     []FieldError
	Normalized *NormalizedFields
}

// NormalizedFields mirrors Fields with well-formedness already proven:
// datetimes are concrete instants, required strings are non-empty.
type NormalizedFields struct {
	Action Action
	Create *CreateEvent
	Update *UpdateEvent
	Delete *DeleteEvent
	List   *ListWindow
}

// CreateEvent is a fully normalized create_event request.
type CreateEvent struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// EventPatch is a sparse update: only non-nil fields are written, all
// other backend fields stay untouched.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
}

// Empty reports whether the patch would change nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.Start == nil && p.End == nil
}

// UpdateEvent is a normalized update_event request: a free-text reference
// to resolve plus the sparse patch to apply.
type UpdateEvent struct {
	EventReference string
	Patch          EventPatch
}

// DeleteEvent is a normalized delete_event request.
type DeleteEvent struct {
	EventReference string
}

// ListWindow is a normalized list_events request. Nil bounds mean the
// router applies its defaults.
type ListWindow struct {
	Start *time.Time
	End   *time.Time
}

// RouteDecision is the resolved backend call: the action plus fully
// qualified parameters. For update/delete, TargetID is the concrete
// backend event id resolved from the event reference.
type RouteDecision struct {
	Action   Action
	Create   *CreateEvent
	TargetID string
	Patch    *EventPatch
	Start    time.Time
	End      time.Time
}
