package commands

import (
	"os"

	"courseatlas-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups <course code>",
	Short: "Re-scrapes the groups of a known course through the legacy form.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := buildService("")

		groups, err := service.RefreshGroups(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to refresh groups", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Group", "Activity", "Spots", "Available", "Teachers", "Program"})
		for _, g := range groups {
			t.AppendRow(table.Row{
				g.Name, g.Activity, g.Spots, g.AvailableSpots,
				joinSet(g.Teachers), g.Program,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
