// Package runtime implements the step engine and the edit/replay controller.
//
// An Engine holds the product registry, persona rules, hooks and delays. Each
// conversation is a Journey over its own session.Store: entering a step runs
// the bounded skip loop, the entry fingerprint check, the typed bot turn and
// either an auto-advance or a widget activation. Responses and edits are
// reduced into the store and the flow moves on through the step's Next
// resolver, which must stay inside the registry.
package runtime
