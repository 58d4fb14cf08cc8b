package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cihelpers/gerritci/internal/trigger"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the Gerrit Trigger environment of this build",
	Long: `Show the Gerrit Trigger environment variables detected in this process,
the connection string they assemble to, and whether they are complete
enough for a checkout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return envShowRun(trigger.FromEnv(nil))
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func envShowRun(ev *trigger.Event) error {
	if !ev.Present() {
		ui.Info("No Gerrit Trigger environment detected")
		return nil
	}

	ui.Info("Gerrit-triggered build detected")
	fmt.Fprintln(ui.Out)

	rows := []struct{ label, value string }{
		{"Event", ev.EventType},
		{"Server", ev.ServerName},
		{"Project", ev.Project},
		{"Branch", ev.Branch},
		{"Change", ev.ChangeNumber},
		{"Patchset", ev.PatchsetNumber},
		{"Refspec", ev.Refspec},
		{"Revision", ev.PatchsetRevision},
		{"Change URL", ev.ChangeURL},
	}
	for _, r := range rows {
		if r.value != "" {
			fmt.Fprintf(ui.Out, "  %-12s %s\n", r.label, r.value)
		}
	}

	if user := viper.GetString("gerrit.user"); user != "" && ev.Host != "" {
		fmt.Fprintln(ui.Out)
		fmt.Fprintf(ui.Out, "  %-12s %s\n", "Connection", ev.ConnectionString(user))
	}

	if err := ev.Validate(); err != nil {
		fmt.Fprintln(ui.Out)
		ui.Warning("%v", err)
	}
	return nil
}
