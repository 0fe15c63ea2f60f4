// Package common holds what every product line shares: the Product bundle,
// the payment module and formatting helpers.
package common

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/aretw0/funnel/pkg/snapshot"
)

// Handoff ids recognized by the host screens.
const (
	HandoffDashboard = "handoff.dashboard"
	HandoffAdvisor   = "handoff.advisor"
)

// Product is everything the engine needs to run one product line.
type Product struct {
	Name     string
	Registry *registry.Registry
	Personas *persona.Classifier
	Policy   snapshot.Policy
	Display  display.Table
}

// Validate cross-checks the registry, the snapshot policy and the display table.
func (p *Product) Validate() error {
	var errs []error
	if p.Registry.Product() != p.Name {
		errs = append(errs, fmt.Errorf("registry belongs to %q", p.Registry.Product()))
	}
	if err := p.Policy.Validate(p.Registry); err != nil {
		errs = append(errs, err)
	}
	if !slices.Equal(p.Policy.Checkpoints, p.Registry.Checkpoints()) {
		errs = append(errs, fmt.Errorf("policy checkpoints %v differ from registry checkpoints %v", p.Policy.Checkpoints, p.Registry.Checkpoints()))
	}
	if err := p.Display.Covers(p.Policy.Checkpoints); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("product %s: %w", p.Name, err)
	}
	return nil
}
