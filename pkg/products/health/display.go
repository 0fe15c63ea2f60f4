package health

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/products/common"
)

const resumeRoute = "/health/journey?resume=true"

// Display returns the resume cards of the health landing page.
func Display() display.Table {
	return display.Table{
		Product: Name,
		Entries: map[string]display.Entry{
			StepPincode: func(s *domain.Snapshot) display.Card {
				return display.Card{
					Title:    display.Greeting(s, "Your health quote is waiting"),
					Subtitle: fmt.Sprintf("Covering %d member(s)", len(domain.AsStrings(s.Fields[FieldCoverageFor]))),
					CTALabel: "Continue",
					Route:    resumeRoute,
					Urgency:  display.UrgencyLow,
					Badge:    "In progress",
				}
			},
			StepExistingCover: display.Static(display.Card{
				Title:    "A few questions left",
				Subtitle: "Tell us about any existing cover to see your plans",
				CTALabel: "Continue",
				Route:    resumeRoute,
				Urgency:  display.UrgencyMedium,
				Badge:    "In progress",
			}),
			StepPlans: func(s *domain.Snapshot) display.Card {
				cover, _ := domain.AsInt(s.Fields[FieldSumInsured])
				return display.Card{
					Title:    display.Greeting(s, "Your plans are ready"),
					Subtitle: fmt.Sprintf("Compare plans for %s cover", common.FormatINR(cover)),
					CTALabel: "View plans",
					Route:    resumeRoute,
					Urgency:  display.UrgencyMedium,
					Badge:    "Plans ready",
				}
			},
			common.StepCheckout: func(s *domain.Snapshot) display.Card {
				return display.Card{
					Title:    display.Greeting(s, "You're one step from being covered"),
					Subtitle: planName(domain.AsString(s.Fields[FieldSelectedPlan])) + " is waiting for payment",
					CTALabel: "Complete payment",
					Route:    resumeRoute,
					Urgency:  display.UrgencyHigh,
					Badge:    "Payment pending",
				}
			},
			common.StepSuccess: func(s *domain.Snapshot) display.Card {
				sub := "Your documents are on their way"
				if n := domain.AsString(s.Fields[common.FieldPolicyNumber]); n != "" {
					sub = "Policy " + n
				}
				return display.Card{
					Title:    "You're covered",
					Subtitle: sub,
					CTALabel: "Go to dashboard",
					Route:    "/dashboard",
					Urgency:  display.UrgencyLow,
					Badge:    "Policy issued",
				}
			},
		},
	}
}
