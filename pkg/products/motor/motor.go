// Package motor is the car and bike insurance product line.
package motor

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/aretw0/funnel/pkg/snapshot"
)

// Name is the product identifier.
const Name = "motor"

// State fields written by the motor steps.
const (
	FieldVehicleType      = "vehicleType"
	FieldVehicle          = "vehicle"
	FieldRegistration     = "registration"
	FieldPolicyStatus     = "policyStatus"
	FieldPreviousInsurer  = "previousInsurer"
	FieldClaimedLastYear  = "claimedLastYear"
	FieldSelectedCoverage = "selectedCoverage"
)

// Step ids referenced outside the registry.
const (
	StepRegistration = "vehicle.registration"
	StepQuotes       = "quote.plans"
	StepWelcomeBack  = "resume.welcome_back"
	StepPolicyIssued = "resume.policy_issued"
)

// Policy statuses.
const (
	StatusNew     = "new"
	StatusRenewal = "renewal"
	StatusExpired = "expired"
)

// Vehicle is the answer of the vehicle details widget.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Fuel  string `json:"fuel"`
}

// Label renders the answer in the chat log.
func (v Vehicle) Label() string {
	return fmt.Sprintf("%s %s (%d, %s)", v.Make, v.Model, v.Year, v.Fuel)
}

// Coverages are the plan types offered at quote.plans.
var Coverages = []domain.Option{
	{ID: "third_party", Label: "Third party only", Meta: map[string]any{"summary": "Mandatory by law. Covers damage to others."}},
	{ID: "comprehensive", Label: "Comprehensive", Meta: map[string]any{"summary": "Third party plus own damage, theft and fire."}},
	{ID: "zero_dep", Label: "Comprehensive with zero depreciation", Meta: map[string]any{"summary": "Full claim amount on replaced parts."}},
}

// Rules classify a motor journey.
var Rules = []persona.Rule{
	{Persona: domain.PersonaFirstTimeOwner, When: `policyStatus == "new"`},
	{Persona: domain.PersonaSwitcher, When: `policyStatus == "expired"`},
	{Persona: domain.PersonaRenewingOwner, When: `policyStatus == "renewal"`},
}

// SnapshotFields is the projection saved at every checkpoint.
var SnapshotFields = append([]string{
	"name", FieldVehicleType, FieldVehicle, FieldRegistration, FieldPolicyStatus,
	FieldPreviousInsurer, FieldClaimedLastYear, FieldSelectedCoverage,
}, common.PaymentFields...)

// New assembles the motor product.
func New(opts ...persona.Option) (*common.Product, error) {
	reg, err := Registry()
	if err != nil {
		return nil, err
	}
	classifier, err := persona.NewClassifier([]string{FieldPolicyStatus}, Rules, opts...)
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

// Registry builds the motor step registry.
func Registry() (*registry.Registry, error) {
	b := dsl.New(Name).
		Entry("intro.welcome").
		Handoff(common.HandoffDashboard)

	b.Add("intro.welcome").
		Say("Hi! Let's get your vehicle insured. It takes about two minutes.").
		Go("vehicle.type")

	b.Add("vehicle.type").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"What are we insuring today?"},
				Options:  []domain.Option{{ID: "car", Label: "Car"}, {ID: "bike", Label: "Two-wheeler"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		SaveTo(FieldVehicleType).
		Go("vehicle.details")

	b.Add("vehicle.details").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			kind := "car"
			if domain.AsString(s.Get(FieldVehicleType)) == "bike" {
				kind = "two-wheeler"
			}
			return domain.Script{
				Messages: []string{fmt.Sprintf("Tell me about your %s: make, model, year and fuel type.", kind)},
				Input:    domain.InputConstraints{Min: common.Float(1990), Max: common.Float(2100)},
			}
		}).
		Ask(domain.WidgetVehicleDetails).
		Watch(FieldVehicleType).
		Process(func(r any, _ *domain.State) domain.Patch {
			v, ok := decodeVehicle(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldVehicle: v}
		}).
		Go(StepRegistration)

	b.Add(StepRegistration).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"What's the registration number?"},
				Input:    domain.InputConstraints{Placeholder: "KA01AB1234", Pattern: `^[A-Za-z]{2}[0-9]{1,2}[A-Za-z]{0,3}[0-9]{4}$`},
			}
		}).
		Ask(domain.WidgetText).
		Checkpoint().
		SaveTo(FieldRegistration).
		Go("policy.status")

	b.Add("policy.status").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Is there a policy on it right now?"},
				Options: []domain.Option{
					{ID: StatusNew, Label: "It's a new vehicle"},
					{ID: StatusRenewal, Label: "Yes, renewing soon"},
					{ID: StatusExpired, Label: "It has expired"},
				},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		SaveTo(FieldPolicyStatus).
		Go("policy.previous_insurer")

	b.Add("policy.previous_insurer").
		When(func(s *domain.State) bool { return domain.AsString(s.Get(FieldPolicyStatus)) != StatusNew }).
		Say("Who is the current or previous insurer?").
		Ask(domain.WidgetText).
		SaveTo(FieldPreviousInsurer).
		Go("policy.claims")

	b.Add("policy.claims").
		When(func(s *domain.State) bool { return domain.AsString(s.Get(FieldPolicyStatus)) == StatusRenewal }).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Did you make a claim in the last policy year? No-claim bonus depends on it."},
				Options:  []domain.Option{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			return domain.Patch{FieldClaimedLastYear: domain.AsBool(r)}
		}).
		Go("quote.idv_ack")

	b.Add("quote.idv_ack").
		Script(idvAck).
		Watch(FieldVehicle, FieldPolicyStatus, FieldClaimedLastYear).
		Go(StepQuotes)

	b.Add(StepQuotes).
		Script(func(p domain.Persona, _ *domain.State) domain.Script {
			best := "comprehensive"
			if p == domain.PersonaFirstTimeOwner {
				best = "zero_dep"
			}
			opts := make([]domain.Option, 0, len(Coverages))
			for _, c := range Coverages {
				meta := map[string]any{"summary": c.Meta["summary"]}
				if c.ID == best {
					meta["recommended"] = true
				}
				opts = append(opts, domain.Option{ID: c.ID, Label: c.Label, Meta: meta})
			}
			return domain.Script{Messages: []string{"Pick the cover that suits you."}, Options: opts}
		}).
		Ask(domain.WidgetSingleChoice).
		Checkpoint().
		SaveTo(FieldSelectedCoverage).
		Go(common.StepKYC)

	common.AddPayment(b, common.PaymentConfig{
		Summary: func(s *domain.State) string {
			v, _ := decodeVehicle(s.Get(FieldVehicle))
			return fmt.Sprintf("%s for your %s %s.", coverageLabel(domain.AsString(s.Get(FieldSelectedCoverage))), v.Make, v.Model)
		},
		ChangePlan: StepQuotes,
		Handoff:    common.HandoffDashboard,
	})

	resumable := []string{StepRegistration, StepQuotes, common.StepCheckout}
	b.Add(StepWelcomeBack).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			msg := "Welcome back! Let's finish insuring your vehicle."
			if reg := domain.AsString(s.Get(FieldRegistration)); reg != "" {
				msg = fmt.Sprintf("Welcome back! Let's finish insuring %s.", reg)
			}
			return domain.Script{Messages: []string{msg}}
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
				Messages: []string{"Your vehicle is already insured with us."},
				Options:  []domain.Option{{ID: "dashboard", Label: "Go to my dashboard"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Go(common.HandoffDashboard)

	return b.Build()
}

func idvAck(p domain.Persona, s *domain.State) domain.Script {
	v, _ := decodeVehicle(s.Get(FieldVehicle))
	switch p {
	case domain.PersonaFirstTimeOwner:
		return domain.Script{Messages: []string{"Congratulations on the new ride! New vehicles need a 1-year own damage cover with 3 years of third party."}}
	case domain.PersonaSwitcher:
		return domain.Script{Messages: []string{"Since the policy has lapsed, the insurer may ask for a quick inspection. I'll flag plans that waive it."}}
	case domain.PersonaRenewingOwner:
		if domain.AsBool(s.Get(FieldClaimedLastYear)) {
			return domain.Script{Messages: []string{"A claim last year resets the no-claim bonus, but you can still save by switching insurers."}}
		}
		return domain.Script{Messages: []string{"No claims means your no-claim bonus carries over. Nice!"}}
	}
	if v.Make == "" {
		return domain.Script{Messages: []string{"Your vehicle is eligible for all our plans."}}
	}
	return domain.Script{Messages: []string{fmt.Sprintf("Your %d %s %s is eligible for all our plans.", v.Year, v.Make, v.Model)}}
}

func decodeVehicle(r any) (Vehicle, bool) {
	switch v := r.(type) {
	case Vehicle:
		return v, true
	case nil:
		return Vehicle{}, false
	}
	var v Vehicle
	if err := domain.Decode(r, &v); err != nil {
		return Vehicle{}, false
	}
	return v, true
}

func coverageLabel(id string) string {
	for _, c := range Coverages {
		if c.ID == id {
			return c.Label
		}
	}
	return "Your cover"
}

const resumeRoute = "/motor/journey?resume=true"

// Display returns the resume cards of the motor landing page.
func Display() display.Table {
	return display.Table{
		Product: Name,
		Entries: map[string]display.Entry{
			StepRegistration: func(s *domain.Snapshot) display.Card {
				v, _ := decodeVehicle(s.Fields[FieldVehicle])
				sub := "Your quote is a few questions away"
				if v.Make != "" {
					sub = "Quote for your " + v.Make + " " + v.Model
				}
				return display.Card{Title: "Finish your motor quote", Subtitle: sub, CTALabel: "Continue", Route: resumeRoute, Urgency: display.UrgencyLow, Badge: "In progress"}
			},
			StepQuotes: func(s *domain.Snapshot) display.Card {
				return display.Card{
					Title:    "Your quotes are ready",
					Subtitle: "Compare covers for " + domain.AsString(s.Fields[FieldRegistration]),
					CTALabel: "View quotes",
					Route:    resumeRoute,
					Urgency:  display.UrgencyMedium,
					Badge:    "Quotes ready",
				}
			},
			common.StepCheckout: func(s *domain.Snapshot) display.Card {
				return display.Card{
					Title:    "Complete your payment",
					Subtitle: coverageLabel(domain.AsString(s.Fields[FieldSelectedCoverage])) + " is waiting for payment",
					CTALabel: "Pay now",
					Route:    resumeRoute,
					Urgency:  display.UrgencyHigh,
					Badge:    "Payment pending",
				}
			},
			common.StepSuccess: display.Static(display.Card{
				Title:    "Your vehicle is insured",
				Subtitle: "Policy documents are in your inbox",
				CTALabel: "Go to dashboard",
				Route:    "/dashboard",
				Urgency:  display.UrgencyLow,
				Badge:    "Policy issued",
			}),
		},
	}
}
