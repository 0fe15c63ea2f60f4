package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/funnel/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	Product    string
	JourneyID  string
	// Owner overrides the configured snapshot owner.
	Owner    string
	JSON     bool
	Headless bool
	Debug    bool
	// Fresh discards the saved snapshot instead of resuming it.
	Fresh bool
	// Fast disables typing and auto-advance delays.
	Fast bool

	In  io.Reader
	Out io.Writer
}

// Execute handles the run command: it loads the configuration and runs one
// journey until it completes, the input ends or a signal arrives.
func Execute(opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Owner != "" {
		cfg.Owner = opts.Owner
	}
	if opts.Fast {
		cfg.Delays = config.DelaysConfig{}
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.JSON && opts.Headless {
		return fmt.Errorf("--json and --headless cannot be used together")
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	return RunSession(sigCtx, cfg, opts)
}
