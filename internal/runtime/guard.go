package runtime

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// guard runs a step function and turns a panic into a ConfigurationError.
// Step functions must be total; a panic is a registry defect.
func guard[T any](stepID, what string, fn func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ConfigurationError{
				StepID: stepID,
				Reason: what + " panicked",
				Err:    fmt.Errorf("%v", r),
			}
		}
	}()
	return fn(), nil
}
