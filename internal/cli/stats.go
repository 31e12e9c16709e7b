package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/existflow/taskdeck/internal/views"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	Long: `Show completion percentages, overdue count, status and category
breakdowns and the activity of the last seven days.

Examples:
  taskdeck stats
  taskdeck stats --json`,
	RunE: runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the dashboard as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.DashboardSnapshot()
	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	printStats(out, d)
	return nil
}

func printStats(out io.Writer, d views.Dashboard) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Completed  %3d%%   Pending  %3d%%   Overdue  %d\n",
		d.Stats.CompletedPct, d.Stats.PendingPct, d.Stats.OverdueCount)
	fmt.Fprintf(out, "  todo %d · doing %d · done %d\n",
		d.Statuses.NotStarted, d.Statuses.InProgress, d.Statuses.Completed)

	if len(d.Categories) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Categories")
		fmt.Fprintln(out, "  "+strings.Repeat("─", 40))
		for _, c := range d.Categories {
			fmt.Fprintf(out, "  %-20s  %s  %d/%d\n", truncate(c.Name, 20), bar(c.CompletedCount, c.TaskCount, 10), c.CompletedCount, c.TaskCount)
		}
	}

	peak := 0
	for _, day := range d.Timeline {
		peak = max(peak, day.Created, day.Completed)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Last 7 days        created     completed")
	fmt.Fprintln(out, "  "+strings.Repeat("─", 40))
	for _, day := range d.Timeline {
		fmt.Fprintf(out, "  %-10s  %s %2d  %s %2d\n", day.Date.Format("Mon Jan 2"),
			bar(day.Created, peak, 6), day.Created, bar(day.Completed, peak, 6), day.Completed)
	}
	fmt.Fprintln(out)
}

// bar draws value/total as a fixed width block bar
func bar(value, total, width int) string {
	filled := 0
	if total > 0 {
		filled = value * width / total
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
