package health_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/products/health"
	"github.com/aretw0/funnel/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T) *common.Product {
	t.Helper()
	p, err := health.New()
	require.NoError(t, err)
	return p
}

func newJourney(t *testing.T, p *common.Product, state *domain.State) *runtime.Journey {
	t.Helper()
	engine := runtime.NewEngine(p.Registry, p.Personas, runtime.WithDelays(runtime.Delays{}))
	j := engine.NewJourney(state)
	t.Cleanup(j.Close)
	return j
}

func stateWith(fields map[string]any) *domain.State {
	s := domain.NewState("j1", health.Name, "intro.welcome")
	for k, v := range fields {
		s.Fields[k] = v
	}
	return s
}

func TestNew(t *testing.T) {
	p := newProduct(t)
	assert.Equal(t, []string{"family.pincode", "health.existing_cover", "recommendation.plans", "payment.checkout", "payment.success"}, p.Policy.Checkpoints)
	assert.Equal(t, []string{common.HandoffAdvisor, common.HandoffDashboard}, p.Registry.Handoffs())
}

func TestAgeAck_YoungIndividual(t *testing.T) {
	p := newProduct(t)
	state := stateWith(map[string]any{
		health.FieldCoverageFor: []any{"self"},
		health.FieldMembers:     []any{map[string]any{"relation": "self", "age": 28}},
	})

	persona := p.Personas.Classify(state)
	require.Equal(t, domain.PersonaYoungIndividual, persona)

	step, ok := p.Registry.Lookup("family.age_ack")
	require.True(t, ok)
	script := step.Script(persona, state)
	assert.Contains(t, script.Text(), "At 28")
	assert.Equal(t, "family.pincode", step.Next(nil, state))
}

func TestSumInsuredSelection(t *testing.T) {
	p := newProduct(t)
	state := stateWith(nil)

	step, ok := p.Registry.Lookup("customization.si_selection")
	require.True(t, ok)
	assert.Equal(t, domain.Patch{health.FieldSumInsured: 2500000}, step.Process("2500000", state))
	assert.Equal(t, "recommendation.calculating", step.Next("2500000", state))

	script := step.Script(domain.PersonaSeniorCare, state)
	label, ok := script.OptionLabel("2500000")
	require.True(t, ok)
	assert.Equal(t, "₹25 Lakh", label)
}

func TestPersonas(t *testing.T) {
	p := newProduct(t)
	member := func(rel string, age int) map[string]any { return map[string]any{"relation": rel, "age": age} }

	tests := []struct {
		name   string
		fields map[string]any
		want   domain.Persona
	}{
		{"nothing known", nil, domain.PersonaGeneral},
		{"existing cover wins", map[string]any{health.FieldExistingCover: "yes", health.FieldMembers: []any{member("self", 28)}}, domain.PersonaSwitcher},
		{"senior self", map[string]any{health.FieldMembers: []any{member("self", 64)}}, domain.PersonaSeniorCare},
		{"senior parents", map[string]any{health.FieldMembers: []any{member("self", 35), member("father", 66)}}, domain.PersonaFamilyWithSeniors},
		{"spouse", map[string]any{health.FieldMembers: []any{member("self", 30), member("spouse", 29)}}, domain.PersonaYoungFamily},
		{"single over 35", map[string]any{health.FieldMembers: []any{member("self", 45)}}, domain.PersonaGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Personas.Classify(stateWith(tt.fields)))
		})
	}
}

func TestScriptsArePure(t *testing.T) {
	p := newProduct(t)
	state := stateWith(map[string]any{
		health.FieldName:          "Asha",
		health.FieldCoverageFor:   []any{"self", "spouse"},
		health.FieldMembers:       []any{map[string]any{"relation": "self", "age": 31}, map[string]any{"relation": "spouse", "age": 30}},
		health.FieldSumInsured:    1000000,
		health.FieldSelectedPlan:  "plus",
		common.FieldKYCName:       "Asha K",
		common.FieldPolicyNumber:  "HLT-1",
		health.FieldExistingCover: "no",
	})
	for _, step := range p.Registry.Steps() {
		for _, persona := range domain.Personas {
			first := step.Script(persona, state.Clone())
			second := step.Script(persona, state.Clone())
			assert.Equal(t, first, second, "%s as %s", step.ID, persona)
			assert.NotEmpty(t, first.Messages, "%s as %s", step.ID, persona)
		}
	}
}

func TestEditCoverage_ReplaysComposition(t *testing.T) {
	ctx := context.Background()
	p := newProduct(t)
	j := newJourney(t, p, nil)

	_, err := j.Start(ctx)
	require.NoError(t, err)
	_, err = j.Respond(ctx, 0, "Asha")
	require.NoError(t, err)
	prompt, err := j.Respond(ctx, 0, []string{"self"})
	require.NoError(t, err)
	require.Equal(t, "family.member_ages", prompt.StepID)
	prompt, err = j.Respond(ctx, 0, []any{map[string]any{"relation": "self", "age": 28}})
	require.NoError(t, err)
	require.Equal(t, "family.pincode", prompt.StepID)
	require.Equal(t, domain.PersonaYoungIndividual, j.Persona())

	var answer domain.ChatMessage
	for _, m := range j.State().History {
		if m.Role == domain.RoleUser && m.StepID == "family.who_to_cover" {
			answer = m
		}
	}
	require.Equal(t, "Myself", answer.Content)
	idx := domain.IndexOfMessage(j.State().History, answer.ID)

	_, err = j.RequestEdit(ctx, answer.ID)
	require.NoError(t, err)
	_, err = j.ConfirmEdit(ctx)
	require.NoError(t, err)
	prompt, err = j.SubmitEdit(ctx, []string{"self", "spouse"})
	require.NoError(t, err)

	require.Equal(t, "family.member_ages", prompt.StepID)
	assert.Len(t, prompt.Script.Options, 2)
	assert.Contains(t, prompt.Script.Text(), "How old is everyone?")

	st := j.State()
	assert.Equal(t, "Myself, Spouse", st.History[idx].Content)
	assert.Equal(t, "Got it, covering you and your spouse.", st.History[idx+1].Content)
	assert.Equal(t, "family.cover_ack", st.History[idx+1].StepID)
	for _, m := range st.History[idx:] {
		assert.NotContains(t, m.Content, "At 28", "turns after the edit point are discarded")
	}
	assert.Nil(t, st.Get(health.FieldMembers))
	assert.Equal(t, domain.PersonaGeneral, j.Persona())
}

func TestFullJourney(t *testing.T) {
	ctx := context.Background()
	p := newProduct(t)
	adapter := snapshot.NewAdapter(memory.NewStore())
	j := newJourney(t, p, nil)
	stop := snapshot.Observe(j.Store(), adapter, p.Policy)
	defer stop()

	answers := []struct {
		at       string
		response any
	}{
		{"intro.name", "Asha"},
		{"family.who_to_cover", []string{"self"}},
		{"family.member_ages", []any{map[string]any{"relation": "self", "age": 28}}},
		{"family.pincode", "560001"},
		{"health.conditions", []string{"none"}},
		{"health.existing_cover", "no"},
		{"customization.si_selection", "500000"},
		{"recommendation.plans", "essential"},
		{"recommendation.addons", []string{"none"}},
		{"recommendation.summary", "proceed"},
		{"payment.kyc", map[string]any{"status": "verified", "name": "Asha K", "documentType": "pan"}},
		{"payment.checkout", common.PaymentResult{Status: "success", TransactionID: "tx-1", PolicyNumber: "HLT-1"}},
	}

	prompt, err := j.Start(ctx)
	require.NoError(t, err)
	for _, a := range answers {
		require.NotNil(t, prompt, "expected a prompt at %s", a.at)
		require.Equal(t, a.at, prompt.StepID)
		if a.at == "recommendation.plans" {
			snap := adapter.Load(ctx, health.Name)
			require.NotNil(t, snap)
			assert.Equal(t, "recommendation.plans", snap.CurrentStepID)
			assert.EqualValues(t, 500000, snap.Fields[health.FieldSumInsured])
		}
		prompt, err = j.Respond(ctx, prompt.Activation, a.response)
		require.NoError(t, err)
	}

	require.Equal(t, common.StepSuccess, prompt.StepID)
	assert.Contains(t, prompt.Script.Text(), "HLT-1")
	snap := adapter.Load(ctx, health.Name)
	require.NotNil(t, snap)
	assert.Equal(t, common.StepSuccess, snap.CurrentStepID)

	st := j.State()
	assert.False(t, st.Has(health.FieldConditionDetails))
	assert.False(t, st.Has(health.FieldExistingSumInsured))
	assert.Equal(t, []string{}, st.Get(health.FieldAddons))

	prompt, err = j.Respond(ctx, prompt.Activation, "dashboard")
	require.NoError(t, err)
	assert.Nil(t, prompt)
	assert.Equal(t, common.HandoffDashboard, j.State().HandoffID)
	assert.Nil(t, adapter.Load(ctx, health.Name), "terminal success clears the snapshot")
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	p := newProduct(t)
	adapter := snapshot.NewAdapter(memory.NewStore())

	t.Run("issued policy", func(t *testing.T) {
		require.NoError(t, adapter.Save(ctx, health.Name, common.StepSuccess, map[string]any{
			health.FieldName:         "Asha",
			common.FieldPolicyNumber: "HLT-9",
		}))
		snap := adapter.Load(ctx, health.Name)
		require.NotNil(t, snap)

		j := newJourney(t, p, p.Policy.Rehydrate("j2", snap))
		prompt, err := j.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, health.StepPolicyIssued, prompt.StepID)
		assert.Contains(t, prompt.Script.Text(), "HLT-9")
		assert.Equal(t, common.StepSuccess, j.State().ResumedFrom)
	})

	t.Run("plans", func(t *testing.T) {
		require.NoError(t, adapter.Save(ctx, health.Name, health.StepPlans, map[string]any{
			health.FieldName:       "Asha",
			health.FieldMembers:    []any{map[string]any{"relation": "self", "age": 64}},
			health.FieldSumInsured: 2500000,
			"scratch":              "dropped",
		}))
		snap := adapter.Load(ctx, health.Name)
		require.NotNil(t, snap)

		j := newJourney(t, p, p.Policy.Rehydrate("j3", snap))
		prompt, err := j.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, health.StepPlans, prompt.StepID)
		assert.Equal(t, "Welcome back, Asha! Let's pick up where you left off.", j.State().History[0].Content)
		assert.Equal(t, domain.PersonaSeniorCare, j.Persona())
		assert.False(t, j.State().Has("scratch"))
		assert.Contains(t, prompt.Script.Text(), "Premier Shield")
	})
}

func TestDisplay(t *testing.T) {
	p := newProduct(t)
	mapper := display.NewMapper(p.Display)

	for _, c := range p.Policy.Checkpoints {
		card, ok := mapper.Map(health.Name, &domain.Snapshot{CurrentStepID: c, Fields: map[string]any{}})
		require.True(t, ok, c)
		assert.NotEmpty(t, card.Title, c)
		assert.NotEmpty(t, card.Route, c)
	}

	card, ok := mapper.Map(health.Name, &domain.Snapshot{
		CurrentStepID: common.StepCheckout,
		Fields:        map[string]any{health.FieldName: "Asha", health.FieldSelectedPlan: "plus"},
	})
	require.True(t, ok)
	assert.Equal(t, "Asha, you're one step from being covered", card.Title)
	assert.Equal(t, "Care Plus is waiting for payment", card.Subtitle)
	assert.Equal(t, display.UrgencyHigh, card.Urgency)
}
