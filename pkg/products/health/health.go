// Package health is the health insurance product line: who to cover, medical
// history, sum insured, plan recommendation and payment.
package health

import (
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/aretw0/funnel/pkg/snapshot"
)

// Name is the product identifier.
const Name = "health"

// State fields written by the health steps.
const (
	FieldName               = "name"
	FieldCoverageFor        = "coverageFor"
	FieldMembers            = "members"
	FieldPincode            = "pincode"
	FieldConditions         = "conditions"
	FieldConditionDetails   = "conditionDetails"
	FieldExistingCover      = "existingCover"
	FieldExistingSumInsured = "existingSumInsured"
	FieldSumInsured         = "sumInsured"
	FieldSelectedPlan       = "selectedPlan"
	FieldAddons             = "addons"
)

// Checkpoint and resume step ids.
const (
	StepPincode       = "family.pincode"
	StepExistingCover = "health.existing_cover"
	StepPlans         = "recommendation.plans"
	StepWelcomeBack   = "resume.welcome_back"
	StepPolicyIssued  = "resume.policy_issued"
)

// SnapshotFields is the projection saved at every checkpoint.
var SnapshotFields = append([]string{
	FieldName, FieldCoverageFor, FieldMembers, FieldPincode, FieldConditions,
	FieldConditionDetails, FieldExistingCover, FieldExistingSumInsured,
	FieldSumInsured, FieldSelectedPlan, FieldAddons,
}, common.PaymentFields...)

// Shapes are the field types a resumable snapshot must carry.
var Shapes = common.WithPaymentShapes(schema.Schema{
	FieldName:               schema.String(),
	FieldCoverageFor:        schema.Slice(schema.String()),
	FieldMembers:            schema.Custom("members", decodeMembers),
	FieldPincode:            schema.String(),
	FieldConditions:         schema.Slice(schema.String()),
	FieldExistingCover:      schema.OneOf("yes", "no"),
	FieldExistingSumInsured: schema.Int(),
	FieldSumInsured:         schema.Int(),
	FieldSelectedPlan:       schema.String(),
	FieldAddons:             schema.Slice(schema.String()),
})

func decodeMembers(v any) error {
	var members []domain.Member
	return domain.Decode(v, &members)
}

// New assembles the health product.
func New(opts ...persona.Option) (*common.Product, error) {
	reg, err := Registry()
	if err != nil {
		return nil, err
	}
	classifier, err := Classifier(opts...)
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
			Shapes:        Shapes,
		},
		Display: Display(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
