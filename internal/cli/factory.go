package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/ports"
)

// createFunnel builds a funnel for product with the configured delays and
// skip limit, persisting snapshots to store.
func createFunnel(cfg config.Config, product string, store ports.KeyValueStore, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*funnel.Funnel, error) {
	opts := []funnel.Option{
		funnel.WithLogger(logger),
		funnel.WithStore(store),
		funnel.WithOwner(cfg.Owner),
		funnel.WithDelays(cfg.Delays.Runtime()),
		funnel.WithSkipLimit(cfg.SkipLimit),
		funnel.WithLifecycleHooks(observability.LogHooks(logger)),
	}
	for _, h := range hooks {
		opts = append(opts, funnel.WithLifecycleHooks(h))
	}

	f, err := funnel.New(product, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing funnel: %w", err)
	}
	return f, nil
}
