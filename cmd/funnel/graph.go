package main

import (
	"fmt"

	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/aretw0/funnel/pkg/products"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <product>",
	Short: "Export the step graph of a product",
	Long:  `Outputs a Mermaid diagram (graph TD) of the product's steps and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := products.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p.Registry, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
