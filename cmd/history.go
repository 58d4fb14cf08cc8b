package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cihelpers/gerritci/internal/store"
)

var (
	historyKind   string
	historyChange string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent gerritci operations",
	Long:  "Show recent queries, checkouts, and build lookups recorded in the local database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Filter by kind: query, checkout, builds")
	historyCmd.Flags().StringVar(&historyChange, "change", "", "Filter by change number")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records to show")
	rootCmd.AddCommand(historyCmd)
}

func historyRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	records, err := s.ListRecords(rootCmd.Context(), store.RecordFilter{
		Kind:   store.RecordKind(historyKind),
		Change: historyChange,
		Limit:  historyLimit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ui.Info("No history yet")
		return nil
	}

	table := ui.Table([]string{"When", "Kind", "Project", "Change", "Patchset", "Detail"})
	for _, r := range records {
		table.Append([]string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Kind),
			r.Project,
			r.Change,
			r.Patchset,
			r.Detail,
		})
	}
	return table.Render()
}
