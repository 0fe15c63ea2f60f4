package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/pkg/products"
	"github.com/aretw0/funnel/pkg/snapshot"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage saved journey snapshots",
	Long:  `List, inspect and remove the snapshots stored in the configured backend.`,
}

var snapshotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List products with a saved snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, closeFn, err := openSnapshots(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		names, err := adapter.Products(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved snapshots found.")
			return nil
		}
		catalog, err := products.NewCatalog()
		if err != nil {
			return err
		}
		mapper := catalog.Display()
		for _, name := range names {
			line := "- " + name
			if snap := adapter.Load(cmd.Context(), name); snap != nil {
				if card, ok := mapper.Map(name, snap); ok {
					line += ": " + card.Title
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <product>",
	Short: "Print the saved snapshot of a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, closeFn, err := openSnapshots(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		snap := adapter.Load(cmd.Context(), args[0])
		if snap == nil {
			return fmt.Errorf("no snapshot for %q", args[0])
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <product>...",
	Short: "Remove saved snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, closeFn, err := openSnapshots(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		for _, name := range args {
			if err := adapter.Clear(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed snapshot '%s'\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.PersistentFlags().String("owner", "", "Snapshot owner (overrides config)")
	snapshotCmd.AddCommand(snapshotLsCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
}

func openSnapshots(cmd *cobra.Command) (*snapshot.Adapter, func() error, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
		cfg.Owner = owner
	}
	store, closeFn, err := cfg.Store.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	return snapshot.NewAdapter(store).For(cfg.Owner), closeFn, nil
}
