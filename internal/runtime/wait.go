package runtime

import (
	"context"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// wait pauses the turn for d. It fails with ErrStaleTurn when a reset
// invalidated the turn in the meantime.
func (j *Journey) wait(ctx context.Context, epoch uint64, d time.Duration) error {
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	if !j.live(epoch) {
		return domain.ErrStaleTurn
	}
	return ctx.Err()
}
