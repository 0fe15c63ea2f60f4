// Package graph renders a step registry as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/registry"
)

// Overlay contains journey data to highlight on the graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces a flowchart of reg. Shapes follow the step kind:
//   - entry: ((Circle))
//   - soft step (no widget): [Rectangle]
//   - hard step: [/Parallelogram/]
//   - handoff: [[Subroutine]]
//
// Checkpoints are marked with a pin, conditional steps with a question mark
// and edges leaving a module are dotted.
func GenerateMermaid(reg *registry.Registry, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range reg.Steps() {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[/", "/]"
		switch {
		case step.ID == reg.Entry():
			opener, closer = "((", "))"
		case step.Widget == domain.WidgetNone:
			opener, closer = "[", "]"
		}

		label := step.ID
		if step.Widget != domain.WidgetNone {
			label += " <br/> " + string(step.Widget)
		}
		if step.Checkpoint {
			label += " 📌"
		}
		if step.Condition != nil {
			label += " ❓"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, target := range step.Targets {
			arrow := "-->"
			if domain.ModuleOf(target) != step.Module() {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(target))
		}
	}

	for _, h := range reg.Handoffs() {
		fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", sanitizeMermaidID(h), h)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

// OverlayOf builds the overlay of a journey from its history.
func OverlayOf(s *domain.State) *Overlay {
	o := &Overlay{CurrentStep: s.CurrentStepID}
	for _, m := range s.History {
		if m.StepID != "" {
			o.VisitedSteps = append(o.VisitedSteps, m.StepID)
		}
	}
	return o
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_").Replace(id)
}
