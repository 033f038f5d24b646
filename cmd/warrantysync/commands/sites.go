package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"warrantysync/internal/infrastructure"
	"warrantysync/internal/pipeline"
	"warrantysync/internal/registry"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists registry sites and their device batches without contacting the portal.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close(cmd.Context())

		ctx := infrastructure.WithRunID(cmd.Context(), env.runID)
		inventory, err := pipeline.Inventory(ctx, registry.New(env.sheets, env.cfg.Sheets.RegistryID, env.logger))
		if err != nil {
			return err
		}
		return printInventory(cmd, inventory)
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func printInventory(cmd *cobra.Command, inventory []pipeline.SiteInventory) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Site", "Devices", "Missing S/N", "Duplicates"})

	devices := 0
	for _, inv := range inventory {
		t.AppendRow(table.Row{inv.Site.Title, inv.Devices, inv.Placeholders, len(inv.Duplicates)})
		devices += inv.Devices
	}
	t.AppendFooter(table.Row{"Total", devices, "", ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
