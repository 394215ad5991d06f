package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bossnotifier/internal/app"
)

func newCategoriesCommand(configFlag *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the boss categories that raise alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*configFlag)
			if err != nil {
				return err
			}
			entries := app.Table(s.Categories).Entries()
			if asJSON {
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Key, e.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Category", "Name"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
