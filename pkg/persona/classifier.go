package persona

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// SeniorAge is the age from which a member counts as a senior.
const SeniorAge = 60

// Rule maps a boolean expression over the classifier environment to a persona.
type Rule struct {
	Persona domain.Persona
	// When is an expr-lang expression, e.g. `selfKnown && selfAge < 35`.
	When string
}

type compiledRule struct {
	Rule
	program *exprvm.Program
}

// Classifier is a total ordered rule list: the first matching rule wins and
// the fallback persona applies when none does.
type Classifier struct {
	inputs   []string
	rules    []compiledRule
	fallback domain.Persona
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFallback sets the persona used when no rule matches. Defaults to general.
func WithFallback(p domain.Persona) Option {
	return func(c *Classifier) {
		c.fallback = p
	}
}

// WithLogger configures a logger for rule evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier compiles rules. inputs is the allow-list of state fields the
// rules read; only changes to those fields trigger a recomputation.
func NewClassifier(inputs []string, rules []Rule, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		inputs:   slices.Clone(inputs),
		fallback: domain.PersonaGeneral,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.fallback.Valid() {
		return nil, fmt.Errorf("unknown fallback persona %q", c.fallback)
	}

	for i, r := range rules {
		if !r.Persona.Valid() {
			return nil, fmt.Errorf("rule #%d: unknown persona %q", i, r.Persona)
		}
		program, err := exprlang.Compile(r.When,
			exprlang.Env(map[string]any{}),
			exprlang.AllowUndefinedVariables(),
			exprlang.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i, r.Persona, err)
		}
		c.rules = append(c.rules, compiledRule{Rule: r, program: program})
	}
	return c, nil
}

// MustClassifier is NewClassifier for rule sets declared at package init.
func MustClassifier(inputs []string, rules []Rule, opts ...Option) *Classifier {
	c, err := NewClassifier(inputs, rules, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Inputs returns the allow-listed fields.
func (c *Classifier) Inputs() []string {
	return slices.Clone(c.inputs)
}

// Classify returns the persona for state. It is deterministic and never fails:
// a rule whose evaluation errors is treated as not matching.
func (c *Classifier) Classify(state *domain.State) domain.Persona {
	env := c.Env(state)
	for _, r := range c.rules {
		out, err := exprlang.Run(r.program, env)
		if err != nil {
			c.logger.Debug("persona rule failed", "persona", r.Persona, "rule", r.When, "err", err)
			continue
		}
		if matched, _ := out.(bool); matched {
			return r.Persona
		}
	}
	return c.fallback
}

// Env builds the rule environment: the allow-listed fields plus values derived
// from the member composition.
func (c *Classifier) Env(state *domain.State) map[string]any {
	env := make(map[string]any, len(c.inputs)+8)
	for _, k := range c.inputs {
		env[k] = state.Get(k)
	}

	members := domain.Members(state)
	var (
		hasSpouse, hasChildren, hasParents bool
		seniors                            int
	)
	for _, m := range members {
		switch m.Relation {
		case "spouse":
			hasSpouse = true
		case "son", "daughter", "child":
			hasChildren = true
		case "father", "mother", "father_in_law", "mother_in_law", "parent":
			hasParents = true
		}
		if m.Age >= SeniorAge {
			seniors++
		}
	}
	self, selfKnown := domain.SelfMember(state)

	env["memberCount"] = len(members)
	env["hasSpouse"] = hasSpouse
	env["hasChildren"] = hasChildren
	env["hasParents"] = hasParents
	env["seniorCount"] = seniors
	env["selfKnown"] = selfKnown
	env[domain.FieldSelfAge] = self.Age
	return env
}
