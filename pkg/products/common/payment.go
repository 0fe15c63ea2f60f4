package common

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/schema"
)

// Payment step ids, shared by every product.
const (
	StepKYC      = "payment.kyc"
	StepCheckout = "payment.checkout"
	StepRetry    = "payment.retry"
	StepSuccess  = "payment.success"
)

// Payment fields written by the module.
const (
	FieldKYCStatus     = "kycStatus"
	FieldKYCName       = "kycName"
	FieldPaymentStatus = "paymentStatus"
	FieldTransactionID = "transactionId"
	FieldPolicyNumber  = "policyNumber"
)

// PaymentFields lists the module's fields, for snapshot projections.
var PaymentFields = []string{FieldKYCStatus, FieldKYCName, FieldPaymentStatus, FieldTransactionID, FieldPolicyNumber}

// WithPaymentShapes adds the payment field shapes to a product's shapes.
func WithPaymentShapes(shapes schema.Schema) schema.Schema {
	out := schema.Schema{
		FieldKYCStatus:     schema.String(),
		FieldKYCName:       schema.String(),
		FieldPaymentStatus: schema.String(),
		FieldTransactionID: schema.String(),
		FieldPolicyNumber:  schema.String(),
	}
	for k, t := range shapes {
		out[k] = t
	}
	return out
}

// KYCResult is the outcome of the document upload widget.
type KYCResult struct {
	Status       string `json:"status"`
	Name         string `json:"name"`
	DocumentType string `json:"documentType"`
}

// Label renders the answer in the chat log.
func (r KYCResult) Label() string {
	if r.Status == "verified" {
		return fmt.Sprintf("%s uploaded", strings.ToUpper(r.DocumentType))
	}
	return "Upload failed"
}

// PaymentResult is the outcome of the payment widget.
type PaymentResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	PolicyNumber  string `json:"policyNumber"`
}

// Label renders the answer in the chat log.
func (r PaymentResult) Label() string {
	if r.Status == "success" {
		return "Payment completed"
	}
	return "Payment failed"
}

// PaymentConfig adapts the module to a product.
type PaymentConfig struct {
	// Summary describes what is being bought, shown at checkout.
	Summary func(s *domain.State) string
	// ChangePlan is where "change plan" leads after a failed payment.
	ChangePlan string
	// Handoff is where the flow leaves after success.
	Handoff string
}

// AddPayment registers the KYC, checkout, retry and success steps.
func AddPayment(b *dsl.Builder, cfg PaymentConfig) {
	b.Add(StepKYC).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			msgs := []string{"Almost there! I need a quick identity check: upload your PAN or Aadhaar."}
			if domain.AsString(s.Get(FieldKYCStatus)) == "failed" {
				msgs = []string{"That document didn't go through. Could you try a clearer photo?"}
			}
			return domain.Script{
				Messages: msgs,
				Options:  []domain.Option{{ID: "pan", Label: "PAN card"}, {ID: "aadhaar", Label: "Aadhaar"}},
			}
		}).
		Ask(domain.WidgetDocumentUpload).
		Process(func(r any, _ *domain.State) domain.Patch {
			res := decodeKYC(r)
			return domain.Patch{FieldKYCStatus: res.Status, FieldKYCName: res.Name}
		}).
		Branch(func(r any, _ *domain.State) bool { return decodeKYC(r).Status == "verified" }, StepCheckout).
		Go(StepKYC)

	b.Add(StepCheckout).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{
				fmt.Sprintf("Verified as %s.", domain.AsString(s.Get(FieldKYCName))),
				cfg.Summary(s),
				"Tap below to pay securely.",
			}}
		}).
		Ask(domain.WidgetPayment).
		Checkpoint().
		Watch(FieldKYCName, FieldPaymentStatus).
		Process(func(r any, _ *domain.State) domain.Patch {
			res := decodePayment(r)
			return domain.Patch{
				FieldPaymentStatus: res.Status,
				FieldTransactionID: res.TransactionID,
				FieldPolicyNumber:  res.PolicyNumber,
			}
		}).
		Branch(func(r any, _ *domain.State) bool { return decodePayment(r).Status == "success" }, StepSuccess).
		Go(StepRetry)

	b.Add(StepRetry).
		Script(func(domain.Persona, *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{"The payment didn't go through. No money was deducted.", "Want to try again?"},
				Options:  []domain.Option{{ID: "retry", Label: "Retry payment"}, {ID: "change", Label: "Change my plan"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Branch(func(r any, _ *domain.State) bool { return r == "change" }, cfg.ChangePlan).
		Go(StepCheckout)

	b.Add(StepSuccess).
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			msgs := []string{"Payment received. You're covered!"}
			if n := domain.AsString(s.Get(FieldPolicyNumber)); n != "" {
				msgs = append(msgs, fmt.Sprintf("Your policy number is %s. The documents are on their way to your inbox.", n))
			}
			return domain.Script{
				Messages: msgs,
				Options:  []domain.Option{{ID: "dashboard", Label: "Go to my dashboard"}},
			}
		}).
		Ask(domain.WidgetSingleChoice).
		Checkpoint().
		Go(cfg.Handoff)
}

func decodeKYC(r any) KYCResult {
	if res, ok := r.(KYCResult); ok {
		return res
	}
	var res KYCResult
	_ = domain.Decode(r, &res)
	return res
}

func decodePayment(r any) PaymentResult {
	if res, ok := r.(PaymentResult); ok {
		return res
	}
	var res PaymentResult
	_ = domain.Decode(r, &res)
	return res
}
