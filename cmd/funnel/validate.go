package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/funnel/pkg/products"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [product...]",
	Short: "Check product registries for consistency",
	Long: `Builds each product (all of them by default) and reports unknown step
targets, missing resume mappings and checkpoints without a display card.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			names = products.Names()
		}

		var errs []error
		for _, name := range names {
			p, err := products.Load(name)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", name)
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d steps, %d checkpoints ✅\n", name, len(p.Registry.Steps()), len(p.Registry.Checkpoints()))
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
