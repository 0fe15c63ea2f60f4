package runtime_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/stretchr/testify/require"
)

var yesNo = []domain.Option{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}}

func choice(text string, opts []domain.Option) domain.ScriptFunc {
	return func(domain.Persona, *domain.State) domain.Script {
		return domain.Script{Messages: []string{text}, Options: opts}
	}
}

// quizRegistry is a small flow with a soft step, a branch, a conditional step and a handoff.
func quizRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := dsl.New("quiz")

	b.Add("intro.welcome").
		Say("Welcome!").
		Go("q.name")

	b.Add("q.name").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{"What is your name?"}}
		}).
		Ask(domain.WidgetText).
		SaveTo("name").
		Go("q.kids")

	b.Add("q.kids").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{
				Messages: []string{fmt.Sprintf("Any kids, %s?", domain.AsString(s.Get("name")))},
				Options:  yesNo,
			}
		}).
		Ask(domain.WidgetSingleChoice).
		SaveTo("hasKids").
		Go("q.kid_count")

	b.Add("q.kid_count").
		When(func(s *domain.State) bool { return s.Get("hasKids") == "yes" }).
		Script(choice("How many?", nil)).
		Ask(domain.WidgetNumber).
		SaveTo("kidCount").
		Go("q.done")

	b.Add("q.done").
		Script(func(_ domain.Persona, s *domain.State) domain.Script {
			return domain.Script{Messages: []string{fmt.Sprintf("Thanks %s (kids: %v)", domain.AsString(s.Get("name")), s.Get("hasKids"))}}
		}).
		Watch("name", "hasKids", "kidCount").
		Go("handoff.end")

	b.Handoff("handoff.end")

	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func noRules(t *testing.T) *persona.Classifier {
	t.Helper()
	c, err := persona.NewClassifier(nil, nil)
	require.NoError(t, err)
	return c
}

// sequence returns deterministic message ids.
func sequence() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("m%02d", n)
	}
}

func newEngine(t *testing.T, reg *registry.Registry, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	base := []runtime.EngineOption{
		runtime.WithDelays(runtime.Delays{}),
		runtime.WithIDGenerator(sequence()),
	}
	return runtime.NewEngine(reg, noRules(t), append(base, opts...)...)
}

func botMessages(s *domain.State) []string {
	var out []string
	for _, m := range s.History {
		if m.Role == domain.RoleBot {
			out = append(out, m.Content)
		}
	}
	return out
}

func lastUserMessage(s *domain.State) domain.ChatMessage {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == domain.RoleUser {
			return s.History[i]
		}
	}
	return domain.ChatMessage{}
}

func runtimeHooks(h domain.LifecycleHooks) runtime.EngineOption {
	return runtime.WithLifecycleHooks(h)
}
