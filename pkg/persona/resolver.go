package persona

import (
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/session"
)

// Resolver keeps the persona of one journey current. It recomputes only when
// a write touches one of the classifier's allow-listed fields, so unrelated
// writes within a step never flip the persona.
type Resolver struct {
	classifier *Classifier

	mu          sync.RWMutex
	current     domain.Persona
	recomputes  int
	unsubscribe func()
}

// NewResolver classifies the current state of store and follows its changes.
func NewResolver(c *Classifier, store *session.Store) *Resolver {
	r := &Resolver{
		classifier: c,
		current:    c.Classify(store.State()),
	}
	inputs := c.Inputs()
	r.unsubscribe = store.Subscribe(func(change session.Change) {
		if !change.Touches(inputs...) {
			return
		}
		p := c.Classify(change.Next)
		r.mu.Lock()
		r.current = p
		r.recomputes++
		r.mu.Unlock()
	})
	return r
}

// Persona returns the current persona.
func (r *Resolver) Persona() domain.Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Recomputes returns how many times the persona was recomputed after creation.
func (r *Resolver) Recomputes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recomputes
}

// Close stops following the store.
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
