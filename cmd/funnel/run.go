package main

import (
	"github.com/aretw0/funnel/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [product]",
	Short: "Chat through a product journey in the terminal",
	Long: `Starts a journey of the given product (health by default). A saved
snapshot is resumed unless --fresh is set. Type /edit to change a past answer,
/restart to start over and /quit to continue later.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product := "health"
		if len(args) > 0 {
			product = args[0]
		}
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		jsonMode, _ := cmd.Flags().GetBool("json")
		headless, _ := cmd.Flags().GetBool("headless")
		fresh, _ := cmd.Flags().GetBool("fresh")
		fast, _ := cmd.Flags().GetBool("fast")
		owner, _ := cmd.Flags().GetString("owner")
		journeyID, _ := cmd.Flags().GetString("journey")

		return cli.Execute(cli.RunOptions{
			ConfigPath: configPath,
			Product:    product,
			JourneyID:  journeyID,
			Owner:      owner,
			JSON:       jsonMode,
			Headless:   headless,
			Debug:      debug,
			Fresh:      fresh,
			Fast:       fast,
			In:         cmd.InOrStdin(),
			Out:        cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("headless", false, "Plain text IO without banner or markdown rendering")
	runCmd.Flags().Bool("fresh", false, "Discard the saved snapshot and start over")
	runCmd.Flags().Bool("fast", false, "Disable typing and auto-advance delays")
	runCmd.Flags().String("owner", "", "Snapshot owner (overrides config)")
	runCmd.Flags().String("journey", "", "Journey id (generated when empty)")
}
