package life_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/products/life"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadwinnerJourney(t *testing.T) {
	ctx := context.Background()
	p, err := life.New()
	require.NoError(t, err)
	j := runtime.NewEngine(p.Registry, p.Personas, runtime.WithDelays(runtime.Delays{})).NewJourney(nil)
	defer j.Close()

	_, err = j.Start(ctx)
	require.NoError(t, err)
	for _, r := range []any{"Ravi", 34, "no", 1_200_000} {
		_, err = j.Respond(ctx, 0, r)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.PersonaGeneral, j.Persona())

	prompt, err := j.Respond(ctx, 0, []string{"spouse", "children"})
	require.NoError(t, err)
	require.Equal(t, life.StepCover, prompt.StepID)
	assert.Equal(t, domain.PersonaBreadwinner, j.Persona())

	label, ok := prompt.Script.OptionLabel("24000000")
	require.True(t, ok)
	assert.Equal(t, "₹2.4 Crore (20x income)", label)
	assert.Equal(t, true, prompt.Script.Options[2].Meta["recommended"])

	_, err = j.Respond(ctx, 0, "24000000")
	require.NoError(t, err)
	assert.Equal(t, 24000000, j.State().Get(life.FieldCoverAmount))
}

func TestEarlyPlanner(t *testing.T) {
	p, err := life.New()
	require.NoError(t, err)

	s := domain.NewState("j1", life.Name, "intro.welcome")
	s.Fields[life.FieldMembers] = []domain.Member{{Relation: "self", Age: 24}}
	s.Fields[life.FieldDependents] = []string{"none"}
	assert.Equal(t, domain.PersonaEarlyPlanner, p.Personas.Classify(s))
}
