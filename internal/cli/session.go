package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
)

// RunSession runs a single journey of opts.Product.
func RunSession(ctx context.Context, cfg config.Config, opts RunOptions) error {
	logger, err := createLogger(cfg, opts.Debug, nil)
	if err != nil {
		return err
	}
	quiet := opts.JSON || opts.Headless

	store, closeStore, err := cfg.Store.OpenStore()
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("snapshot store close failed", "err", err)
		}
	}()

	f, err := createFunnel(cfg, opts.Product, store, logger)
	if err != nil {
		return err
	}

	if opts.Fresh {
		if err := f.Discard(ctx); err != nil {
			return err
		}
	} else if card, ok := f.ResumeCard(ctx); ok && !quiet {
		printSystemMessage(opts.Out, "%s. %s", card.Title, card.Subtitle)
	}

	if !quiet {
		tui.PrintBanner(opts.Out, opts.Product)
	}

	// A start error leaves the journey halted; the runner reports it.
	j, _, _ := f.Start(ctx, funnel.StartOptions{JourneyID: opts.JourneyID, Resume: !opts.Fresh})
	defer j.Close()
	logger.Info("journey started", "journey_id", j.ID(), "product", opts.Product, "step_id", j.State().CurrentStepID, "resumed_from", j.State().ResumedFrom)

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithHandler(createHandler(opts)),
	)
	runErr := r.Run(ctx, j)

	if ctx.Err() != nil && runErr == nil {
		runErr = ctx.Err()
	}
	st := j.State()
	if !quiet {
		logCompletion(opts.Out, st.CurrentStepID, runErr, signalOf(ctx))
	}
	if st.Status == domain.StatusHalted {
		logger.Error("journey halted", "journey_id", st.JourneyID, "step_id", st.CurrentStepID, "err", st.LastError)
	}
	return handleExecutionError(runErr)
}

func createHandler(opts RunOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}
	var hopts []runner.TextHandlerOption
	if !opts.Headless {
		hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer(80)))
	}
	return runner.NewTextHandler(opts.In, opts.Out, hopts...)
}
