package domain

import "maps"

// ExecutionStatus defines the current mode of a journey.
type ExecutionStatus string

const (
	StatusActive        ExecutionStatus = "active"         // A bot turn is being produced
	StatusAwaitingInput ExecutionStatus = "awaiting_input" // A widget is surfaced, waiting for a response
	StatusHalted        ExecutionStatus = "halted"         // A configuration error stopped all transitions
	StatusCompleted     ExecutionStatus = "completed"      // The flow handed off to the host
)

// State is the record of one active journey.
// Fields is the only input to step logic; History is a derived log used for
// presentation and edit anchoring.
type State struct {
	// JourneyID identifies the journey inside a session manager.
	JourneyID string `json:"journey_id"`

	// Product is the product line that owns the step registry (health, motor, ...).
	Product string `json:"product"`

	// CurrentStepID is the identifier of the active step.
	CurrentStepID string `json:"current_step_id"`

	// CurrentModule is the module prefix of CurrentStepID (family, payment, ...).
	CurrentModule string `json:"current_module"`

	// Status indicates if the journey is running, waiting, halted or done.
	Status ExecutionStatus `json:"status"`

	// Fields holds the product data written by step reducers.
	Fields map[string]any `json:"fields"`

	// History is the chronological chat log.
	History []ChatMessage `json:"history"`

	// IsTyping is true while a bot turn is being "typed".
	IsTyping bool `json:"is_typing"`

	// ActiveWidget is the widget currently surfaced to the user, if any.
	ActiveWidget WidgetType `json:"active_widget,omitempty"`

	// ResumedFrom is the checkpoint step id a rehydrated journey was saved at.
	ResumedFrom string `json:"resumed_from,omitempty"`

	// HandoffID is set when the flow leaves the registry for a host screen.
	HandoffID string `json:"handoff_id,omitempty"`

	// LastError holds the message of the error that halted the journey.
	LastError string `json:"last_error,omitempty"`
}

// NewState creates a clean state for a product, positioned at the entry step.
func NewState(journeyID, product, entryStepID string) *State {
	return &State{
		JourneyID:     journeyID,
		Product:       product,
		CurrentStepID: entryStepID,
		CurrentModule: ModuleOf(entryStepID),
		Status:        StatusActive,
		Fields:        make(map[string]any),
		History:       []ChatMessage{},
	}
}

// Clone returns a copy safe for mutation. Field values are copied shallowly,
// which is enough because reducers replace values instead of mutating them.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Fields = maps.Clone(s.Fields)
	if next.Fields == nil {
		next.Fields = make(map[string]any)
	}
	next.History = append([]ChatMessage(nil), s.History...)
	return &next
}

// Get returns a field value.
func (s *State) Get(key string) any {
	if s == nil || s.Fields == nil {
		return nil
	}
	return s.Fields[key]
}

// Has reports whether a field is set.
func (s *State) Has(key string) bool {
	if s == nil || s.Fields == nil {
		return false
	}
	_, ok := s.Fields[key]
	return ok
}

// AnsweredTurns counts the user messages in the history.
func (s *State) AnsweredTurns() int {
	n := 0
	for _, m := range s.History {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// Patch is a partial update of State fields, merged shallowly at the top level.
type Patch map[string]any
