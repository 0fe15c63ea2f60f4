package dsl

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/registry"
)

// Builder manages the construction of a product registry.
type Builder struct {
	product  string
	entry    string
	order    []string
	steps    map[string]*StepBuilder
	handoffs []string
	// dups are steps added under an id already in use; Build rejects them.
	dups []*StepBuilder
}

// New creates a new registry builder for a product.
func New(product string) *Builder {
	return &Builder{
		product: product,
		steps:   make(map[string]*StepBuilder),
	}
}

// Entry sets the step a fresh journey starts at.
// Defaults to the first added step.
func (b *Builder) Entry(id string) *Builder {
	b.entry = id
	return b
}

// Handoff declares ids that leave the registry for a host screen.
func (b *Builder) Handoff(ids ...string) *Builder {
	b.handoffs = append(b.handoffs, ids...)
	return b
}

// Add creates a new step in the registry. Step ids are unique: adding an id
// twice makes Build fail instead of merging the two definitions.
func (b *Builder) Add(id string) *StepBuilder {
	sb := &StepBuilder{
		step: domain.Step{
			ID:     id,
			Widget: domain.WidgetNone,
		},
		builder: b,
	}
	if _, ok := b.steps[id]; ok {
		b.dups = append(b.dups, sb)
		return sb
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build compiles and validates the registry.
func (b *Builder) Build() (*registry.Registry, error) {
	steps := make([]domain.Step, 0, len(b.order))
	for _, id := range b.order {
		steps = append(steps, b.steps[id].Build())
	}
	for _, sb := range b.dups {
		steps = append(steps, sb.Build())
	}

	entry := b.entry
	if entry == "" && len(b.order) > 0 {
		entry = b.order[0]
	}

	reg, err := registry.New(b.product, entry, steps, b.handoffs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s registry: %w", b.product, err)
	}
	return reg, nil
}

// MustBuild is Build for registries declared at package init.
func (b *Builder) MustBuild() *registry.Registry {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}
