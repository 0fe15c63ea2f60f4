package health

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/registry"
)

// SumInsuredOptions are the amounts offered at customization.si_selection.
var SumInsuredOptions = []int{500_000, 1_000_000, 2_500_000, 5_000_000, 10_000_000}

// Plan is a recommended health plan.
type Plan struct {
	ID      string
	Name    string
	Summary string
}

// Plans is the catalog offered at recommendation.plans.
var Plans = []Plan{
	{ID: "essential", Name: "Essential Care", Summary: "Hospitalisation, day care and ambulance"},
	{ID: "plus", Name: "Care Plus", Summary: "Essential Care with no room rent limit and restore benefit"},
	{ID: "premier", Name: "Premier Shield", Summary: "Care Plus with global cover and annual health checkups"},
}

var conditions = []domain.Option{
	{ID: "none", Label: "None of these"},
	{ID: "diabetes", Label: "Diabetes"},
	{ID: "hypertension", Label: "Blood pressure"},
	{ID: "heart", Label: "Heart condition"},
	{ID: "thyroid", Label: "Thyroid"},
	{ID: "asthma", Label: "Asthma"},
}

// Registry builds the health step registry.
func Registry() (*registry.Registry, error) {
	b := dsl.New(Name).
		Entry("intro.welcome").
		Handoff(common.HandoffDashboard, common.HandoffAdvisor)

	b.Add("intro.welcome").
		Say("Hi! I'm Maya, and I'll help you find the right health cover in a few minutes.", "No spam, no calls unless you ask.").
		Go("intro.name")

	b.Add("intro.name").
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"First things first, what should I call you?"},
				Input:    domain.InputConstraints{Placeholder: "Your first name", Pattern: `^[\p{L} .'-]{1,40}$`},
			}
		}).
		Ask(domain.WidgetText).
		SaveTo(FieldName).
		Go("family.who_to_cover")

	addFamily(b)
	addMedical(b)
	addRecommendation(b)

	common.AddPayment(b, common.PaymentConfig{
		Summary:    checkoutSummary,
		ChangePlan: StepPlans,
		Handoff:    common.HandoffDashboard,
	})

	addResume(b)
	return b.Build()
}

func addFamily(b *dsl.Builder) {
	b.Add("family.who_to_cover").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{common.Hello(s, "Nice to meet you") + "!", "Who would you like to cover?"},
				Options:  common.Relations,
			}
		}).
		Ask(domain.WidgetMultiChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			// A new composition invalidates the ages collected for the old one.
			return domain.Patch{FieldCoverageFor: domain.AsStrings(r), FieldMembers: nil}
		}).
		Go("family.cover_ack")

	b.Add("family.cover_ack").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{coverAck(domain.AsStrings(s.Get(FieldCoverageFor)))}}
		}).
		Watch(FieldCoverageFor).
		Go("family.member_ages")

	b.Add("family.member_ages").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			relations := domain.AsStrings(s.Get(FieldCoverageFor))
			opts := make([]domain.Option, 0, len(relations))
			for _, r := range relations {
				opts = append(opts, domain.Option{ID: r, Label: common.RelationLabel(r)})
			}
			msg := "How old is everyone? Age decides the premium, so please be exact."
			if len(relations) == 1 && relations[0] == domain.RelationSelf {
				msg = "How old are you? Age decides the premium, so please be exact."
			}
			return domain.Script{
				Messages: []string{msg},
				Options:  opts,
				Input:    domain.InputConstraints{Min: common.Float(0), Max: common.Float(99)},
			}
		}).
		Ask(domain.WidgetMemberAges).
		Watch(FieldCoverageFor).
		Process(func(r any, _ *domain.State) domain.Patch {
			var members []domain.Member
			if typed, ok := r.([]domain.Member); ok {
				members = typed
			} else if err := domain.Decode(r, &members); err != nil {
				return nil
			}
			return domain.Patch{FieldMembers: members}
		}).
		Go("family.age_ack")

	b.Add("family.age_ack").
		Script(ageAck).
		Watch(FieldMembers).
		Go(StepPincode)

	b.Add(StepPincode).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Which pincode do you live in? Hospital networks differ by city."},
				Input:    domain.InputConstraints{Placeholder: "6-digit pincode", Pattern: `^[1-9][0-9]{5}$`},
			}
		}).
		Ask(domain.WidgetText).
		Checkpoint().
		SaveTo(FieldPincode).
		Go("health.conditions")
}

func coverAck(relations []string) string {
	others := make([]string, 0, len(relations))
	self := false
	for _, r := range relations {
		if r == domain.RelationSelf {
			self = true
			continue
		}
		others = append(others, "your "+lower(common.RelationLabel(r)))
	}
	switch {
	case self && len(others) == 0:
		return "Got it, a plan just for you."
	case self:
		return fmt.Sprintf("Got it, covering you and %s.", common.JoinNatural(others))
	case len(others) > 0:
		return fmt.Sprintf("Got it, covering %s.", common.JoinNatural(others))
	}
	return "Got it."
}

func ageAck(p domain.Persona, s *domain.State) domain.Script {
	self, known := domain.SelfMember(s)
	var msg string
	switch p {
	case domain.PersonaYoungIndividual:
		msg = fmt.Sprintf("At %d you lock in some of the lowest premiums available. Great time to start!", self.Age)
	case domain.PersonaYoungFamily:
		msg = "A family floater will cover everyone under one sum insured. That usually costs less than separate plans."
	case domain.PersonaFamilyWithSeniors:
		msg = "Covering your parents is a smart move. I'll look for plans with short waiting periods for pre-existing conditions."
	case domain.PersonaSeniorCare:
		msg = "I'll focus on plans built for seniors, with no upper entry age and lower co-payments."
	default:
		msg = "Thanks! That's all I need about your family."
		if known {
			msg = fmt.Sprintf("Thanks! Noted %d as your age.", self.Age)
		}
	}
	return domain.Script{Messages: []string{msg}}
}

func addMedical(b *dsl.Builder) {
	b.Add("health.conditions").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			who := "anyone you're covering"
			if len(domain.Members(s)) == 1 {
				who = "you"
			}
			return domain.Script{
				Messages: []string{fmt.Sprintf("Has %s been diagnosed with any of these?", who)},
				Options:  conditions,
				Input:    domain.InputConstraints{MaxSelections: len(conditions)},
			}
		}).
		Ask(domain.WidgetMultiChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			return domain.Patch{FieldConditions: domain.AsStrings(r)}
		}).
		Go("health.condition_details")

	b.Add("health.condition_details").
		When(hasConditions).
		Say("Could you share a little more? For example, since when and what medication.").
		Ask(domain.WidgetText).
		SaveTo(FieldConditionDetails).
		Go(StepExistingCover)

	b.Add(StepExistingCover).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"Do you already have a health policy, personal or from work?"},
				Options:  []domain.Option{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Checkpoint().
		SaveTo(FieldExistingCover).
		Go("health.existing_sum")

	b.Add("health.existing_sum").
		When(func(s *domain.State) bool { return domain.AsString(s.Get(FieldExistingCover)) == "yes" }).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"What's the sum insured of your current policy?"},
				Input:    domain.InputConstraints{Placeholder: "Amount in ₹", Min: common.Float(0)},
			}
		}).
		Ask(domain.WidgetNumber).
		Process(func(r any, _ *domain.State) domain.Patch {
			n, ok := domain.AsInt(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldExistingSumInsured: n}
		}).
		Go("customization.intro")
}

func hasConditions(s *domain.State) bool {
	for _, c := range domain.AsStrings(s.Get(FieldConditions)) {
		if c != "none" {
			return true
		}
	}
	return false
}

func addRecommendation(b *dsl.Builder) {
	b.Add("customization.intro").
		Script(func(p domain.Persona, s *domain.State) domain.Script {
			msg := "Now let's pick how much cover you need."
			switch p {
			case domain.PersonaSwitcher:
				if n, ok := domain.AsInt(s.Get(FieldExistingSumInsured)); ok && n > 0 {
					msg = fmt.Sprintf("You're covered for %s today. Let's see whether a top-up or a switch works better.", common.FormatINR(n))
				} else {
					msg = "Since you already have a policy, let's see whether a top-up or a switch works better."
				}
			case domain.PersonaSeniorCare, domain.PersonaFamilyWithSeniors:
				msg = "Hospital bills climb with age. Most families like yours pick at least ₹25 Lakh."
			case domain.PersonaYoungFamily:
				msg = "For a family floater, ₹10 Lakh to ₹25 Lakh is the usual sweet spot."
			}
			return domain.Script{Messages: []string{msg}}
		}).
		Go("customization.si_selection")

	b.Add("customization.si_selection").
		Script(func(p domain.Persona, _ *domain.State) domain.Script {
			opts := make([]domain.Option, 0, len(SumInsuredOptions))
			for _, amount := range SumInsuredOptions {
				o := domain.Option{ID: strconv.Itoa(amount), Label: common.FormatINR(amount)}
				if amount == recommendedSumInsured(p) {
					o.Meta = map[string]any{"recommended": true}
				}
				opts = append(opts, o)
			}
			return domain.Script{Messages: []string{"Choose your sum insured:"}, Options: opts}
		}).
		Ask(domain.WidgetSingleChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			n, ok := domain.AsInt(r)
			if !ok {
				return nil
			}
			return domain.Patch{FieldSumInsured: n}
		}).
		Go("recommendation.calculating")

	b.Add("recommendation.calculating").
		Say("Comparing plans from our partner insurers...").
		Watch(FieldSumInsured).
		Go(StepPlans)

	b.Add(StepPlans).
		Script(func(p domain.Persona, s *domain.State) domain.Script {
			cover, _ := domain.AsInt(s.Get(FieldSumInsured))
			best := recommendedPlan(p)
			opts := make([]domain.Option, 0, len(Plans))
			for _, plan := range Plans {
				o := domain.Option{
					ID:    plan.ID,
					Label: fmt.Sprintf("%s, %s cover", plan.Name, common.FormatINR(cover)),
					Meta:  map[string]any{"summary": plan.Summary},
				}
				if plan.ID == best {
					o.Meta["recommended"] = true
				}
				opts = append(opts, o)
			}
			return domain.Script{
				Messages: []string{"Here are the plans that fit you best.", fmt.Sprintf("I'd go with %s.", planName(best))},
				Options:  opts,
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Checkpoint().
		Watch(FieldSumInsured).
		SaveTo(FieldSelectedPlan).
		Go("recommendation.addons")

	b.Add("recommendation.addons").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			opts := []domain.Option{
				{ID: "none", Label: "No add-ons"},
				{ID: "opd", Label: "OPD consultations"},
				{ID: "critical_illness", Label: "Critical illness"},
				{ID: "room_upgrade", Label: "Private room"},
			}
			if domain.Contains(domain.AsStrings(s.Get(FieldCoverageFor)), "spouse") {
				opts = append(opts, domain.Option{ID: "maternity", Label: "Maternity"})
			}
			return domain.Script{Messages: []string{"Want to add anything?"}, Options: opts}
		}).
		Ask(domain.WidgetMultiChoice).
		Process(func(r any, _ *domain.State) domain.Patch {
			addons := domain.AsStrings(r)
			if domain.Contains(addons, "none") {
				addons = []string{}
			}
			return domain.Patch{FieldAddons: addons}
		}).
		Go("recommendation.summary")

	b.Add("recommendation.summary").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{checkoutSummary(s), "Shall we proceed?"},
				Options: []domain.Option{
					{ID: "proceed", Label: "Proceed to buy"},
					{ID: "change_plan", Label: "Change plan"},
					{ID: "change_cover", Label: "Change cover amount"},
				},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Branch(func(r any, _ *domain.State) bool { return r == "change_plan" }, StepPlans).
		Branch(func(r any, _ *domain.State) bool { return r == "change_cover" }, "customization.si_selection").
		Go(common.StepKYC)
}

func addResume(b *dsl.Builder) {
	resumable := []string{StepPincode, StepExistingCover, StepPlans, common.StepCheckout}

	b.Add(StepWelcomeBack).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{common.Hello(s, "Welcome back") + "! Let's pick up where you left off."}}
		}).
		Next(func(_ any, s *domain.State) string {
			if domain.Contains(resumable, s.ResumedFrom) {
				return s.ResumedFrom
			}
			return "intro.welcome"
		}, append(resumable, "intro.welcome")...)

	b.Add(StepPolicyIssued).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			msg := "Your policy is already issued."
			if n := domain.AsString(s.Get(common.FieldPolicyNumber)); n != "" {
				msg = fmt.Sprintf("Your policy %s is already issued.", n)
			}
			return domain.Script{
				Messages: []string{common.Hello(s, "Welcome back") + "!", msg},
				Options: []domain.Option{
					{ID: "dashboard", Label: "Go to my dashboard"},
					{ID: "advisor", Label: "Talk to an advisor"},
				},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Branch(func(r any, _ *domain.State) bool { return r == "advisor" }, common.HandoffAdvisor).
		Go(common.HandoffDashboard)
}

func checkoutSummary(s *domain.State) string {
	cover, _ := domain.AsInt(s.Get(FieldSumInsured))
	msg := fmt.Sprintf("%s with %s cover", planName(domain.AsString(s.Get(FieldSelectedPlan))), common.FormatINR(cover))
	if addons := domain.AsStrings(s.Get(FieldAddons)); len(addons) > 0 {
		msg += fmt.Sprintf(" plus %d add-on(s)", len(addons))
	}
	return msg + "."
}

func recommendedSumInsured(p domain.Persona) int {
	switch p {
	case domain.PersonaSeniorCare, domain.PersonaFamilyWithSeniors:
		return 2_500_000
	case domain.PersonaYoungFamily, domain.PersonaSwitcher:
		return 1_000_000
	}
	return 500_000
}

func recommendedPlan(p domain.Persona) string {
	switch p {
	case domain.PersonaSeniorCare, domain.PersonaFamilyWithSeniors:
		return "premier"
	case domain.PersonaYoungFamily, domain.PersonaSwitcher:
		return "plus"
	}
	return "essential"
}

func planName(id string) string {
	for _, p := range Plans {
		if p.ID == id {
			return p.Name
		}
	}
	return "Your plan"
}

// lower lowercases the first rune of a label for use mid-sentence.
func lower(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
