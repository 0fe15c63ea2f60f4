package domain

import "strings"

// WidgetType is the closed set of input widgets a step can surface.
type WidgetType string

const (
	// WidgetNone shows the bot turn and auto-advances (soft step).
	WidgetNone WidgetType = "none"
	// WidgetText collects a free text answer.
	WidgetText WidgetType = "text"
	// WidgetNumber collects a number within InputConstraints.Min/Max.
	WidgetNumber WidgetType = "number"
	// WidgetSingleChoice collects one option id.
	WidgetSingleChoice WidgetType = "single_choice"
	// WidgetMultiChoice collects a list of option ids.
	WidgetMultiChoice WidgetType = "multi_choice"
	// WidgetMemberAges collects a list of {relation, age} for the covered members.
	WidgetMemberAges WidgetType = "member_ages"
	// WidgetVehicleDetails collects {make, model, year, fuel}.
	WidgetVehicleDetails WidgetType = "vehicle_details"
	// WidgetDocumentUpload runs an external document extraction and returns its result.
	WidgetDocumentUpload WidgetType = "document_upload"
	// WidgetPayment runs an external payment and returns its result.
	WidgetPayment WidgetType = "payment"
)

// Widgets lists every WidgetType, in declaration order.
var Widgets = []WidgetType{
	WidgetNone,
	WidgetText,
	WidgetNumber,
	WidgetSingleChoice,
	WidgetMultiChoice,
	WidgetMemberAges,
	WidgetVehicleDetails,
	WidgetDocumentUpload,
	WidgetPayment,
}

// Option is a selectable answer offered by a Script.
type Option struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// InputConstraints describe what the widget accepts. The widget enforces them.
type InputConstraints struct {
	Placeholder   string   `json:"placeholder,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	MaxSelections int      `json:"max_selections,omitempty"`
}

// Script is the ephemeral presentation of a step for a (persona, state).
type Script struct {
	Messages []string         `json:"messages"`
	Options  []Option         `json:"options,omitempty"`
	Input    InputConstraints `json:"input,omitzero"`
}

// Text joins the bot messages into one displayed turn.
func (s Script) Text() string {
	parts := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m = strings.TrimSpace(m); m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, "\n\n")
}

// OptionLabel returns the label for an option id.
func (s Script) OptionLabel(id string) (string, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o.Label, true
		}
	}
	return "", false
}

// Condition reports whether a step applies to the current state.
type Condition func(state *State) bool

// ScriptFunc renders a step. It must be pure.
type ScriptFunc func(persona Persona, state *State) Script

// ProcessFunc reduces a response into a Patch. It must be pure and total.
type ProcessFunc func(response any, state *State) Patch

// NextFunc resolves the next step id. It must be pure and total.
// A nil response means the step was skipped or auto-advanced.
type NextFunc func(response any, state *State) string

// Step is a node of the conversation graph. Steps are immutable once registered.
type Step struct {
	// ID is unique within its registry, by convention "module.name".
	ID string

	// Widget is the input surfaced after the bot turn.
	Widget WidgetType

	// Condition is optional; when it returns false the step is skipped silently.
	Condition Condition

	// Script renders the bot turn.
	Script ScriptFunc

	// Process reduces a response. Optional for WidgetNone steps.
	Process ProcessFunc

	// Next resolves the following step id.
	Next NextFunc

	// Targets declares every id Next may return. Used by validation and graph export.
	Targets []string

	// Watch lists the fields whose values participate in the entry fingerprint.
	Watch []string

	// Checkpoint marks the step as save-worthy for its product.
	Checkpoint bool
}

// Module returns the module prefix of the step id.
func (s *Step) Module() string {
	return ModuleOf(s.ID)
}

// ModuleOf returns the part of a step id before the first dot.
func ModuleOf(stepID string) string {
	if i := strings.IndexByte(stepID, '.'); i > 0 {
		return stepID[:i]
	}
	return stepID
}
