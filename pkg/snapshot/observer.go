package snapshot

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/session"
)

// saveTimeout bounds a save or clear triggered by a store change.
const saveTimeout = 5 * time.Second

// Observe saves the projection of store whenever a checkpoint step emits its
// bot turn, and clears the slot when the journey hands off to one of
// policy.ClearOn. It returns a function that stops observing.
func Observe(store *session.Store, adapter *Adapter, policy Policy) (stop func()) {
	return store.Subscribe(func(c session.Change) {
		switch {
		case checkpointReached(c, policy):
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			_ = adapter.Save(ctx, policy.Product, c.Next.CurrentStepID, policy.Project(c.Next.Fields))

		case terminalSuccess(c, policy):
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			_ = adapter.Clear(ctx, policy.Product)
		}
	})
}

// checkpointReached is true when the change appended the bot turn of a
// checkpoint step. Silently skipped checkpoints never speak, so they are
// never saved.
func checkpointReached(c session.Change, policy Policy) bool {
	if !policy.IsCheckpoint(c.Next.CurrentStepID) || len(c.Next.History) <= len(c.Prev.History) {
		return false
	}
	last := c.Next.History[len(c.Next.History)-1]
	return last.Role == domain.RoleBot && last.StepID == c.Next.CurrentStepID
}

func terminalSuccess(c session.Change, policy Policy) bool {
	return c.Prev.Status != domain.StatusCompleted &&
		c.Next.Status == domain.StatusCompleted &&
		slices.Contains(policy.ClearOn, c.Next.HandoffID)
}
