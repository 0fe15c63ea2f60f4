package snapshot

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/aretw0/funnel/pkg/schema"
)

// Policy declares how a product checkpoints and resumes.
type Policy struct {
	Product string
	// Checkpoints are the save-worthy step ids.
	Checkpoints []string
	// Fields is the projection persisted at a checkpoint. It must hold every
	// field needed to rebuild personas and re-enter mid-flow.
	Fields []string
	// Resume maps a saved checkpoint to the step a resumed journey enters.
	Resume map[string]string
	// DefaultResume is the generic "continue" entry for unmapped checkpoints.
	DefaultResume string
	// ClearOn lists the handoffs that count as terminal success.
	ClearOn []string
	// Shapes constrains projected fields. A snapshot that violates them is
	// treated as corrupt.
	Shapes schema.Schema
}

// IsCheckpoint reports whether stepID is save-worthy.
func (p Policy) IsCheckpoint(stepID string) bool {
	return slices.Contains(p.Checkpoints, stepID)
}

// ResumeStep maps a saved checkpoint to its effective entry step.
// It is total: unmapped ids resume at DefaultResume.
func (p Policy) ResumeStep(checkpoint string) string {
	if target, ok := p.Resume[checkpoint]; ok {
		return target
	}
	return p.DefaultResume
}

// Project keeps the declared fields present in fields.
func (p Policy) Project(fields map[string]any) map[string]any {
	out := make(map[string]any, len(p.Fields))
	for _, k := range p.Fields {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Check reports whether snap can be resumed: its fields match Shapes.
func (p Policy) Check(snap *domain.Snapshot) error {
	if err := schema.Check(p.Shapes, snap.Fields); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCorruptSnapshot, err)
	}
	return nil
}

// Rehydrate builds the initial state of a resumed journey. Fields outside the
// projection start from their defaults.
func (p Policy) Rehydrate(journeyID string, snap *domain.Snapshot) *domain.State {
	state := domain.NewState(journeyID, p.Product, p.ResumeStep(snap.CurrentStepID))
	state.Fields = p.Project(snap.Fields)
	state.ResumedFrom = snap.CurrentStepID
	return state
}

// Validate checks the policy against the product registry: checkpoints and
// resume targets are registered steps, every checkpoint resumes somewhere,
// and ClearOn names declared handoffs.
func (p Policy) Validate(reg *registry.Registry) error {
	var errs []error
	if p.Product != reg.Product() {
		errs = append(errs, fmt.Errorf("policy product %q does not match registry %q", p.Product, reg.Product()))
	}
	if _, ok := reg.Lookup(p.DefaultResume); !ok {
		errs = append(errs, fmt.Errorf("default resume step %q is not registered", p.DefaultResume))
	}
	for _, c := range p.Checkpoints {
		if _, ok := reg.Lookup(c); !ok {
			errs = append(errs, fmt.Errorf("checkpoint %q is not registered", c))
		}
		if _, ok := reg.Lookup(p.ResumeStep(c)); !ok {
			errs = append(errs, fmt.Errorf("checkpoint %q resumes at unregistered step %q", c, p.ResumeStep(c)))
		}
	}
	for c := range p.Resume {
		if !p.IsCheckpoint(c) {
			errs = append(errs, fmt.Errorf("resume entry %q is not a checkpoint", c))
		}
	}
	for k := range p.Shapes {
		if !slices.Contains(p.Fields, k) {
			errs = append(errs, fmt.Errorf("shape %q is not a projected field", k))
		}
	}
	for _, h := range p.ClearOn {
		if !reg.IsHandoff(h) {
			errs = append(errs, fmt.Errorf("clear-on %q is not a declared handoff", h))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.ConfigurationError{
		StepID: p.DefaultResume,
		Reason: fmt.Sprintf("invalid %s snapshot policy", p.Product),
		Err:    errors.Join(errs...),
	}
}
