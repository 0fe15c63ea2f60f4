package dsl

import (
	"slices"

	"github.com/aretw0/funnel/pkg/domain"
)

type branch struct {
	when   func(response any, state *domain.State) bool
	target string
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step     domain.Step
	builder  *Builder
	branches []branch
	fallback string
}

// Say sets a static script: the same messages for every persona and state.
func (s *StepBuilder) Say(messages ...string) *StepBuilder {
	msgs := slices.Clone(messages)
	s.step.Script = func(domain.Persona, *domain.State) domain.Script {
		return domain.Script{Messages: slices.Clone(msgs)}
	}
	return s
}

// Script sets the script generator.
func (s *StepBuilder) Script(fn domain.ScriptFunc) *StepBuilder {
	s.step.Script = fn
	return s
}

// Ask marks the step as a hard step collecting input through widget.
func (s *StepBuilder) Ask(widget domain.WidgetType) *StepBuilder {
	s.step.Widget = widget
	return s
}

// When sets the condition; the step is skipped silently while it is false.
func (s *StepBuilder) When(cond domain.Condition) *StepBuilder {
	s.step.Condition = cond
	return s
}

// Process sets the response reducer.
func (s *StepBuilder) Process(fn domain.ProcessFunc) *StepBuilder {
	s.step.Process = fn
	return s
}

// SaveTo stores the raw response under field.
func (s *StepBuilder) SaveTo(field string) *StepBuilder {
	s.step.Process = func(response any, _ *domain.State) domain.Patch {
		return domain.Patch{field: response}
	}
	return s
}

// Go sets the default transition target.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.fallback = target
	return s
}

// Branch adds a conditional transition, evaluated in declaration order before Go.
func (s *StepBuilder) Branch(when func(response any, state *domain.State) bool, target string) *StepBuilder {
	s.branches = append(s.branches, branch{when: when, target: target})
	return s
}

// Next sets a custom next-step resolver. targets must list every id it can return.
func (s *StepBuilder) Next(fn domain.NextFunc, targets ...string) *StepBuilder {
	s.step.Next = fn
	s.step.Targets = append(s.step.Targets, targets...)
	return s
}

// Watch lists the fields that participate in the entry fingerprint.
func (s *StepBuilder) Watch(fields ...string) *StepBuilder {
	s.step.Watch = append(s.step.Watch, fields...)
	return s
}

// Checkpoint marks the step as save-worthy.
func (s *StepBuilder) Checkpoint() *StepBuilder {
	s.step.Checkpoint = true
	return s
}

// Add continues with a new step of the same builder.
func (s *StepBuilder) Add(id string) *StepBuilder {
	return s.builder.Add(id)
}

// Build returns the underlying domain.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	step := s.step
	step.Targets = slices.Clone(step.Targets)
	step.Watch = slices.Clone(step.Watch)

	if step.Next == nil && (len(s.branches) > 0 || s.fallback != "") {
		branches := slices.Clone(s.branches)
		fallback := s.fallback
		step.Next = func(response any, state *domain.State) string {
			for _, b := range branches {
				if b.when(response, state) {
					return b.target
				}
			}
			return fallback
		}
		for _, b := range branches {
			step.Targets = appendUnique(step.Targets, b.target)
		}
		if fallback != "" {
			step.Targets = appendUnique(step.Targets, fallback)
		}
	}
	return step
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
