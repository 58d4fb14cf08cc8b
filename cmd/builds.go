package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cihelpers/gerritci/internal/jenkins"
	"github.com/cihelpers/gerritci/internal/output"
	"github.com/cihelpers/gerritci/internal/store"
	"github.com/cihelpers/gerritci/internal/trigger"
)

var (
	buildsChange   int
	buildsPatchset int
	buildsAll      bool
)

var buildsCmd = &cobra.Command{
	Use:   "builds <job>",
	Short: "List Jenkins builds correlated with a Gerrit change",
	Long: `List a Jenkins job's build history, keeping builds triggered by a
Gerrit change. The change defaults to the one in the Gerrit Trigger
environment; pass --all to skip filtering entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildsRun(cmd, args[0])
	},
}

func init() {
	buildsCmd.Flags().IntVar(&buildsChange, "change", 0, "Gerrit change number to filter by")
	buildsCmd.Flags().IntVar(&buildsPatchset, "patchset", 0, "Patchset number to filter by (0 = any)")
	buildsCmd.Flags().BoolVar(&buildsAll, "all", false, "Show every build, including non-Gerrit ones")
	rootCmd.AddCommand(buildsCmd)
}

func buildsRun(cmd *cobra.Command, job string) error {
	baseURL := viper.GetString("jenkins.url")
	if baseURL == "" {
		return fmt.Errorf("jenkins.url is not configured (set it in the config file or GERRITCI_JENKINS_URL)")
	}

	client := jenkins.NewHTTPClient(baseURL, viper.GetString("jenkins.user"), viper.GetString("jenkins.token"))
	builds, err := client.JobBuilds(cmd.Context(), job)
	if err != nil {
		return err
	}

	change := buildsChange
	if change == 0 && !buildsAll {
		ev := trigger.FromEnv(nil)
		change, _ = strconv.Atoi(ev.ChangeNumber)
	}

	if !buildsAll {
		if change == 0 {
			return fmt.Errorf("no change to filter by: pass --change, --all, or run inside a Gerrit-triggered build")
		}
		builds = jenkins.FilterBuilds(builds, change, buildsPatchset)
	}

	if len(builds) == 0 {
		ui.Info("No matching builds for job %s", job)
		return nil
	}

	table := ui.Table([]string{"Build", "Result", "Change", "Patchset", "Event", "Started"})
	for _, b := range builds {
		changeStr, patchsetStr := "", ""
		if b.Cause.Kind == jenkins.CauseGerrit {
			changeStr = strconv.Itoa(b.Cause.Change)
			patchsetStr = strconv.Itoa(b.Cause.Patchset)
		}
		table.Append([]string{
			fmt.Sprintf("#%d", b.Number),
			output.ResultColor(b.Result),
			changeStr,
			patchsetStr,
			b.Cause.EventType,
			b.Timestamp.Format("2006-01-02 15:04"),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	filtered := ""
	if change != 0 {
		filtered = strconv.Itoa(change)
	}
	recordHistory(&store.Record{
		Kind:   store.RecordBuilds,
		Change: filtered,
		Detail: fmt.Sprintf("job %s, %d builds", job, len(builds)),
	})
	return nil
}
