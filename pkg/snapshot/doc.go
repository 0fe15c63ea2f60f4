// Package snapshot persists resumable progress.
//
// Each product has a single slot, overwritten whenever the journey reaches
// one of the checkpoints declared by its Policy. A resumed journey starts
// from the Policy's resume mapping rather than the literal saved step, with
// the projected fields restored and everything else at its defaults.
package snapshot
