package motor_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/products/motor"
	"github.com/aretw0/funnel/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenewalJourney(t *testing.T) {
	ctx := context.Background()
	p, err := motor.New()
	require.NoError(t, err)
	adapter := snapshot.NewAdapter(memory.NewStore())

	j := runtime.NewEngine(p.Registry, p.Personas, runtime.WithDelays(runtime.Delays{})).NewJourney(nil)
	defer j.Close()
	defer snapshot.Observe(j.Store(), adapter, p.Policy)()

	prompt, err := j.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, "vehicle.type", prompt.StepID)

	prompt, err = j.Respond(ctx, 0, "car")
	require.NoError(t, err)
	require.Equal(t, domain.WidgetVehicleDetails, prompt.Widget)

	prompt, err = j.Respond(ctx, 0, motor.Vehicle{Make: "Honda", Model: "City", Year: 2019, Fuel: "petrol"})
	require.NoError(t, err)
	require.Equal(t, motor.StepRegistration, prompt.StepID)
	assert.Equal(t, "Honda City (2019, petrol)", j.State().History[len(j.State().History)-2].Content)

	prompt, err = j.Respond(ctx, 0, "KA01AB1234")
	require.NoError(t, err)
	require.Equal(t, "policy.status", prompt.StepID)
	snap := adapter.Load(ctx, motor.Name)
	require.NotNil(t, snap)
	assert.Equal(t, motor.StepRegistration, snap.CurrentStepID)

	prompt, err = j.Respond(ctx, 0, motor.StatusRenewal)
	require.NoError(t, err)
	require.Equal(t, "policy.previous_insurer", prompt.StepID)
	assert.Equal(t, domain.PersonaRenewingOwner, j.Persona())

	prompt, err = j.Respond(ctx, 0, "Acme General")
	require.NoError(t, err)
	require.Equal(t, "policy.claims", prompt.StepID)

	prompt, err = j.Respond(ctx, 0, "no")
	require.NoError(t, err)
	require.Equal(t, motor.StepQuotes, prompt.StepID)
	assert.Contains(t, j.State().History[len(j.State().History)-2].Content, "no-claim bonus carries over")
}

func TestNewVehicleSkipsPolicyQuestions(t *testing.T) {
	ctx := context.Background()
	p, err := motor.New()
	require.NoError(t, err)

	state := domain.NewState("j1", motor.Name, "policy.status")
	state.Fields[motor.FieldVehicle] = map[string]any{"make": "Tata", "model": "Nexon", "year": 2025, "fuel": "ev"}
	j := runtime.NewEngine(p.Registry, p.Personas, runtime.WithDelays(runtime.Delays{})).NewJourney(state)
	defer j.Close()

	_, err = j.Start(ctx)
	require.NoError(t, err)
	prompt, err := j.Respond(ctx, 0, motor.StatusNew)
	require.NoError(t, err)
	require.Equal(t, motor.StepQuotes, prompt.StepID)
	assert.Equal(t, domain.PersonaFirstTimeOwner, j.Persona())
	assert.True(t, prompt.Script.Options[2].Meta["recommended"] == true)
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	p, err := motor.New()
	require.NoError(t, err)

	snap := &domain.Snapshot{CurrentStepID: motor.StepQuotes, Fields: map[string]any{motor.FieldRegistration: "KA01AB1234"}}
	assert.Equal(t, motor.StepWelcomeBack, p.Policy.ResumeStep(snap.CurrentStepID))
	assert.Equal(t, motor.StepPolicyIssued, p.Policy.ResumeStep(common.StepSuccess))

	j := runtime.NewEngine(p.Registry, p.Personas, runtime.WithDelays(runtime.Delays{})).NewJourney(p.Policy.Rehydrate("j2", snap))
	defer j.Close()
	prompt, err := j.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, motor.StepQuotes, prompt.StepID)
	assert.Equal(t, "Welcome back! Let's finish insuring KA01AB1234.", j.State().History[0].Content)
}
