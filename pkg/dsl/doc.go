/*
Package dsl provides a fluent builder for product step registries.

Registries are data-as-code: each step declares its widget, script, reducer and
transitions, and the builder validates the resulting graph.

Example usage:

	b := dsl.New("health")

	b.Add("intro.welcome").
		Say("Hi! Let's find the right health cover for you.").
		Go("intro.name")

	b.Add("intro.name").
		Say("What should I call you?").
		Ask(domain.WidgetText).
		SaveTo("name").
		Go("handoff.dashboard")

	b.Handoff("handoff.dashboard")

	reg, err := b.Build()
*/
package dsl
