// Package life is the term life insurance product line.
package life

import (
	"fmt"
	"strconv"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/aretw0/funnel/pkg/snapshot"
)

// Name is the product identifier.
const Name = "life"

// State fields written by the life steps.
const (
	FieldName         = "name"
	FieldMembers      = "members"
	FieldSmoker       = "smoker"
	FieldAnnualIncome = "annualIncome"
	FieldDependents   = "dependents"
	FieldCoverAmount  = "coverAmount"
)

// Step ids referenced outside the registry.
const (
	StepIncome       = "life.income"
	StepCover        = "life.cover"
	StepWelcomeBack  = "resume.welcome_back"
	StepPolicyIssued = "resume.policy_issued"
)

// CoverMultiples are offered as multiples of annual income.
var CoverMultiples = []int{10, 15, 20, 25}

// Rules classify a life journey.
var Rules = []persona.Rule{
	{Persona: domain.PersonaBreadwinner, When: `dependents != nil && len(dependents) > 0 && !("none" in dependents)`},
	{Persona: domain.PersonaEarlyPlanner, When: `selfKnown && selfAge < 30`},
}

// SnapshotFields is the projection saved at every checkpoint.
var SnapshotFields = append([]string{
	FieldName, FieldMembers, FieldSmoker, FieldAnnualIncome, FieldDependents, FieldCoverAmount,
}, common.PaymentFields...)

// New assembles the life product.
func New(opts ...persona.Option) (*common.Product, error) {
	reg, err := Registry()
	if err != nil {
		return nil, err
	}
	classifier, err := persona.NewClassifier([]string{FieldMembers, FieldDependents}, Rules, opts...)
	if err != nil {
		return nil, err
	}
	p := &common.Product{
		Name:     Name,
		Registry: reg,
		Personas: classifier,
		Policy: snapshot.Policy{
			Product:       Name,
			Checkpoints:   reg.Checkpoints(),
			Fields:        SnapshotFields,
			Resume:        map[string]string{common.StepSuccess: StepPolicyIssued},
			DefaultResume: StepWelcomeBack,
			ClearOn:       []string{common.HandoffDashboard},
		},
		Display: Display(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Registry builds the life step registry.
func Registry() (*registry.Registry, error) {
	b := dsl.New(Name).
		Entry("intro.welcome").
		Handoff(common.HandoffDashboard)

	b.Add("intro.welcome").
		Say("Hi! A term plan protects the people who depend on you. Let's find the right amount.").
		Go("intro.name")

	b.Add("intro.name").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"What's your name?"},
				Input:    domain.InputConstraints{Placeholder: "Your first name"},
			}
		}).
		Ask(domain.WidgetText).
		SaveTo(FieldName).
		Go("life.age")

	b.Add("life.age").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{common.Hello(s, "Thanks") + ". How old are you?"},
				Input:    domain.InputConstraints{Min: common.Float(18), Max: common.Float(65)},
			}
		}).
		Ask(domain.WidgetNumber).
		Process(func(r any, _ *domain.State) domain.Patch {
			age, ok := domain.AsInt(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldMembers: []domain.Member{{Relation: domain.RelationSelf, Age: age}}}
		}).
		Go("life.smoker")

	b.Add("life.smoker").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Have you used tobacco in the last 12 months?"},
				Options:  []domain.Option{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			return domain.Patch{FieldSmoker: domain.AsBool(r)}
		}).
		Go(StepIncome)

	b.Add(StepIncome).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"What's your annual income? It caps how much cover insurers allow."},
				Input:    domain.InputConstraints{Placeholder: "Amount in ₹", Min: common.Float(100_000)},
			}
		}).
		Ask(domain.WidgetNumber).
		Checkpoint().
		Process(func(r any, _ *domain.State) domain.Patch {
			n, ok := domain.AsInt(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldAnnualIncome: n}
		}).
		Go("life.dependents")

	b.Add("life.dependents").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Who depends on your income?"},
				Options: []domain.Option{
					{ID: "none", Label: "No one yet"},
					{ID: "spouse", Label: "Spouse"},
					{ID: "children", Label: "Children"},
					{ID: "parents", Label: "Parents"},
				},
			}
		}).
		Ask(domain.WidgetMultiChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			return domain.Patch{FieldDependents: domain.AsStrings(r)}
		}).
		Go("life.cover_ack")

	b.Add("life.cover_ack").
		Script(coverAck).
		Watch(FieldDependents, FieldMembers).
		Go(StepCover)

	b.Add(StepCover).
		Script(func(p domain.Persona, s *domain.State) domain.Script {
			income, _ := domain.AsInt(s.Get(FieldAnnualIncome))
			best := recommendedMultiple(p)
			opts := make([]domain.Option, 0, len(CoverMultiples))
			for _, m := range CoverMultiples {
				amount := m * income
				o := domain.Option{
					ID:    strconv.Itoa(amount),
					Label: fmt.Sprintf("%s (%dx income)", common.FormatINR(amount), m),
					Meta:  map[string]any{"multiple": m},
				}
				if m == best {
					o.Meta["recommended"] = true
				}
				opts = append(opts, o)
			}
			return domain.Script{Messages: []string{"How much cover would you like?"}, Options: opts}
		}).
		Ask(domain.WidgetSingleChoice).
		Checkpoint().
		Watch(FieldAnnualIncome).
		Process(func(r any, _ *domain.State) domain.Patch {
			n, ok := domain.AsInt(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldCoverAmount: n}
		}).
		Go(common.StepKYC)

	common.AddPayment(b, common.PaymentConfig{
		Summary: func(s *domain.State) string {
			n, _ := domain.AsInt(s.Get(FieldCoverAmount))
			return fmt.Sprintf("Term cover of %s until age 60.", common.FormatINR(n))
		},
		ChangePlan: StepCover,
		Handoff:    common.HandoffDashboard,
	})

	resumable := []string{StepIncome, StepCover, common.StepCheckout}
	b.Add(StepWelcomeBack).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{common.Hello(s, "Welcome back") + "! Let's finish your term plan."}}
		}).
		Next(func(_ any, s *domain.State) string {
			if domain.Contains(resumable, s.ResumedFrom) {
				return s.ResumedFrom
			}
			return "intro.welcome"
		}, append(resumable, "intro.welcome")...)

	b.Add(StepPolicyIssued).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Your term plan is already active."},
				Options:  []domain.Option{{ID: "dashboard", Label: "Go to my dashboard"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Go(common.HandoffDashboard)

	return b.Build()
}

func coverAck(p domain.Persona, s *domain.State) domain.Script {
	switch p {
	case domain.PersonaBreadwinner:
		deps := domain.AsStrings(s.Get(FieldDependents))
		return domain.Script{Messages: []string{fmt.Sprintf("Your %s rely on you. Experts suggest at least 15 times your annual income.", common.JoinNatural(deps))}}
	case domain.PersonaEarlyPlanner:
		return domain.Script{Messages: []string{"Starting early locks in a low premium for the whole term."}}
	}
	return domain.Script{Messages: []string{"Let's size your cover."}}
}

func recommendedMultiple(p domain.Persona) int {
	switch p {
	case domain.PersonaBreadwinner:
		return 20
	case domain.PersonaEarlyPlanner:
		return 10
	}
	return 15
}

const resumeRoute = "/life/journey?resume=true"

// Display returns the resume cards of the life landing page.
func Display() display.Table {
	return display.Table{
		Product: Name,
		Entries: map[string]display.Entry{
			StepIncome: func(s *domain.Snapshot) display.Card {
				return display.Card{Title: display.Greeting(s, "Finish your term plan"), Subtitle: "Just a couple of questions left", CTALabel: "Continue", Route: resumeRoute, Urgency: display.UrgencyLow, Badge: "In progress"}
			},
			StepCover: func(s *domain.Snapshot) display.Card {
				return display.Card{Title: display.Greeting(s, "Choose your cover"), Subtitle: "Your term plan options are ready", CTALabel: "View options", Route: resumeRoute, Urgency: display.UrgencyMedium, Badge: "Options ready"}
			},
			common.StepCheckout: func(s *domain.Snapshot) display.Card {
				n, _ := domain.AsInt(s.Fields[FieldCoverAmount])
				return display.Card{Title: "Complete your payment", Subtitle: common.FormatINR(n) + " term cover is waiting", CTALabel: "Pay now", Route: resumeRoute, Urgency: display.UrgencyHigh, Badge: "Payment pending"}
			},
			common.StepSuccess: display.Static(display.Card{Title: "Your family is protected", Subtitle: "Your term plan is active", CTALabel: "Go to dashboard", Route: "/dashboard", Urgency: display.UrgencyLow, Badge: "Policy issued"}),
		},
	}
}
