// Package registry holds the validated step graph of a product.
//
// A registry is a closed world: every id a step's Next resolver may return is
// declared in Targets, and every target is either a registered step or a
// handoff recognized by the host screen.
package registry
