package commands

import (
	"fmt"
	"os"
	"strings"

	"courseatlas-backend/lib/serviceutil"
	"courseatlas-backend/services/courses"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <course code>",
	Short: "Prints a stored course and its groups.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()

		course, err := courses.Load(cmd.Context(), store, args[0])
		if err != nil {
			serviceutil.Fatal("failed to read course", err)
		}
		if course == nil {
			fmt.Fprintln(os.Stderr, "course not found")
			os.Exit(1)
		}

		renderCourses([]courses.Course{*course})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Group", "Activity", "Spots", "Available", "Teachers", "Program"})
		for _, g := range course.Groups {
			t.AppendRow(table.Row{
				g.Name, g.Activity, g.Spots, g.AvailableSpots,
				joinSet(g.Teachers), g.Program,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func renderCourses(results []courses.Course) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Code", "Name", "Credits", "Faculties", "Programs", "Groups", "Spots"})
	for _, c := range results {
		t.AppendRow(table.Row{
			c.Code,
			c.Name,
			c.Credits,
			joinSet(c.Faculties),
			truncate(joinSet(c.Programs), 60),
			c.GroupCount,
			c.SpotsCount,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}
