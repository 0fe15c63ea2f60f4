package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/funnel/pkg/domain"
)

// Registry is the immutable step graph of one product.
type Registry struct {
	product  string
	entry    string
	order    []string
	steps    map[string]*domain.Step
	handoffs map[string]struct{}
}

// New validates steps and builds a Registry. Handoffs are ids that leave the
// registry for a host screen; Next may return them.
func New(product, entry string, steps []domain.Step, handoffs ...string) (*Registry, error) {
	r := &Registry{
		product:  product,
		entry:    entry,
		steps:    make(map[string]*domain.Step, len(steps)),
		handoffs: make(map[string]struct{}, len(handoffs)),
	}

	var errs []error
	for _, h := range handoffs {
		r.handoffs[h] = struct{}{}
	}
	for i := range steps {
		s := steps[i]
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("step #%d has no id", i))
			continue
		}
		if _, dup := r.steps[s.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate step id %q", s.ID))
			continue
		}
		if _, clash := r.handoffs[s.ID]; clash {
			errs = append(errs, fmt.Errorf("step id %q is also declared as a handoff", s.ID))
		}
		s.Targets = slices.Clone(s.Targets)
		s.Watch = slices.Clone(s.Watch)
		r.steps[s.ID] = &s
		r.order = append(r.order, s.ID)
	}

	errs = append(errs, r.validate()...)
	if len(errs) > 0 {
		return nil, &domain.ConfigurationError{
			StepID: entry,
			Reason: fmt.Sprintf("invalid %s registry", product),
			Err:    errors.Join(errs...),
		}
	}
	return r, nil
}

func (r *Registry) validate() []error {
	var errs []error
	if _, ok := r.steps[r.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry step %q is not registered", r.entry))
	}
	for _, id := range r.order {
		s := r.steps[id]
		if !slices.Contains(domain.Widgets, s.Widget) {
			errs = append(errs, fmt.Errorf("step %q: unknown widget %q", id, s.Widget))
		}
		if s.Script == nil {
			errs = append(errs, fmt.Errorf("step %q: missing script", id))
		}
		if s.Next == nil {
			errs = append(errs, fmt.Errorf("step %q: missing next resolver", id))
		}
		if len(s.Targets) == 0 {
			errs = append(errs, fmt.Errorf("step %q: no declared targets", id))
		}
		for _, t := range s.Targets {
			if !r.Resolvable(t) {
				errs = append(errs, fmt.Errorf("step %q: target %q is neither a step nor a handoff", id, t))
			}
		}
	}
	return errs
}

// Product returns the product line name.
func (r *Registry) Product() string { return r.product }

// Entry returns the id a fresh journey starts at.
func (r *Registry) Entry() string { return r.entry }

// Lookup returns the step registered under id.
func (r *Registry) Lookup(id string) (*domain.Step, bool) {
	s, ok := r.steps[id]
	return s, ok
}

// IsHandoff reports whether id is a declared handoff.
func (r *Registry) IsHandoff(id string) bool {
	_, ok := r.handoffs[id]
	return ok
}

// Resolvable reports whether a next-step id is legal: a step or a handoff.
func (r *Registry) Resolvable(id string) bool {
	if _, ok := r.steps[id]; ok {
		return true
	}
	return r.IsHandoff(id)
}

// Allows reports whether from declared to as a target.
func (r *Registry) Allows(from *domain.Step, to string) bool {
	return slices.Contains(from.Targets, to)
}

// Steps returns the steps in registration order.
func (r *Registry) Steps() []*domain.Step {
	out := make([]*domain.Step, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

// Checkpoints returns the ids of steps marked as checkpoints, in registration order.
func (r *Registry) Checkpoints() []string {
	var out []string
	for _, id := range r.order {
		if r.steps[id].Checkpoint {
			out = append(out, id)
		}
	}
	return out
}

// Handoffs returns the declared handoff ids, sorted.
func (r *Registry) Handoffs() []string {
	out := make([]string, 0, len(r.handoffs))
	for h := range r.handoffs {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
