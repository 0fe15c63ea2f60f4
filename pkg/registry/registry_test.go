package registry_test

import (
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func say(text string) domain.ScriptFunc {
	return func(domain.Persona, *domain.State) domain.Script {
		return domain.Script{Messages: []string{text}}
	}
}

func goTo(id string) domain.NextFunc {
	return func(any, *domain.State) string { return id }
}

func step(id, next string) domain.Step {
	return domain.Step{
		ID:      id,
		Widget:  domain.WidgetNone,
		Script:  say(id),
		Next:    goTo(next),
		Targets: []string{next},
	}
}

func TestNew_Valid(t *testing.T) {
	a := step("intro.welcome", "intro.done")
	a.Checkpoint = true
	reg, err := registry.New("health", "intro.welcome",
		[]domain.Step{a, step("intro.done", "handoff.home")},
		"handoff.home",
	)
	require.NoError(t, err)

	assert.Equal(t, "health", reg.Product())
	assert.Equal(t, "intro.welcome", reg.Entry())
	assert.True(t, reg.Resolvable("intro.done"))
	assert.True(t, reg.Resolvable("handoff.home"))
	assert.True(t, reg.IsHandoff("handoff.home"))
	assert.False(t, reg.Resolvable("intro.missing"))
	assert.Equal(t, []string{"intro.welcome"}, reg.Checkpoints())
	assert.Equal(t, []string{"handoff.home"}, reg.Handoffs())

	s, ok := reg.Lookup("intro.welcome")
	require.True(t, ok)
	assert.True(t, reg.Allows(s, "intro.done"))
	assert.False(t, reg.Allows(s, "handoff.home"))

	ids := []string{}
	for _, s := range reg.Steps() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"intro.welcome", "intro.done"}, ids)
}

func TestNew_Invalid(t *testing.T) {
	noScript := step("a.no_script", "a.one")
	noScript.Script = nil

	badWidget := step("a.bad_widget", "a.one")
	badWidget.Widget = "carousel"

	_, err := registry.New("health", "a.entry", []domain.Step{
		step("a.one", "a.nowhere"),
		step("a.one", "a.one"),
		noScript,
		badWidget,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	msg := err.Error()
	assert.Contains(t, msg, `entry step "a.entry" is not registered`)
	assert.Contains(t, msg, `duplicate step id "a.one"`)
	assert.Contains(t, msg, `target "a.nowhere"`)
	assert.Contains(t, msg, `"a.no_script": missing script`)
	assert.Contains(t, msg, `unknown widget "carousel"`)
}

func TestNew_StepsAreCopied(t *testing.T) {
	steps := []domain.Step{step("a.one", "a.one")}
	reg, err := registry.New("p", "a.one", steps)
	require.NoError(t, err)

	steps[0].Targets[0] = "mutated"
	s, _ := reg.Lookup("a.one")
	assert.Equal(t, []string{"a.one"}, s.Targets)
}
