package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cihelpers/gerritci/internal/gerrit"
	"github.com/cihelpers/gerritci/internal/output"
	"github.com/cihelpers/gerritci/internal/sshx"
	"github.com/cihelpers/gerritci/internal/store"
	"github.com/cihelpers/gerritci/internal/trigger"
)

var (
	queryHost string
	queryPort string
	queryUser string

	queryCheck         bool
	queryApprovalType  string
	queryApprovalValue string
)

var queryCmd = &cobra.Command{
	Use:   "query <change>",
	Short: "Query a Gerrit change over SSH",
	Long: `Query change metadata from Gerrit's SSH interface.

<change> is anything 'gerrit query' accepts: a change number, a Change-Id,
or a commit SHA. Connection details come from flags, then the Gerrit
Trigger environment, then config.

With --check, the command exits non-zero unless the current patchset has
an approval matching --type/--value ("" matches any value, "+" any
positive vote, "-" any negative vote).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queryRun(args[0])
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryHost, "host", "", "Gerrit host (overrides config)")
	queryCmd.Flags().StringVar(&queryPort, "port", "", "Gerrit SSH port (overrides config)")
	queryCmd.Flags().StringVar(&queryUser, "user", "", "Gerrit SSH user (overrides config)")
	queryCmd.Flags().BoolVar(&queryCheck, "check", false, "Fail unless a matching approval exists")
	queryCmd.Flags().StringVar(&queryApprovalType, "type", "Verified", "Approval type for --check")
	queryCmd.Flags().StringVar(&queryApprovalValue, "value", "", "Approval value for --check: exact, \"+\", \"-\", or empty for any")
	rootCmd.AddCommand(queryCmd)
}

// gerritEndpoint resolves SSH connection details: flags win, then the
// trigger environment (the server that triggered this build), then config.
func gerritEndpoint(flagHost, flagPort, flagUser string) *sshx.Endpoint {
	ev := trigger.FromEnv(nil)
	return &sshx.Endpoint{
		Host:           firstNonEmpty(flagHost, ev.Host, viper.GetString("gerrit.host")),
		Port:           firstNonEmpty(flagPort, ev.Port, viper.GetString("gerrit.port")),
		User:           firstNonEmpty(flagUser, viper.GetString("gerrit.user")),
		PrivateKeyPath: viper.GetString("gerrit.ssh_key"),
		KnownHostsPath: viper.GetString("gerrit.known_hosts"),
		Insecure:       viper.GetBool("gerrit.insecure"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func queryRun(ref string) error {
	transport, err := sshx.New(gerritEndpoint(queryHost, queryPort, queryUser))
	if err != nil {
		return err
	}
	defer transport.Close()

	change, err := gerrit.NewSSHQuerier(transport).QueryChange(ref)
	if err != nil {
		return err
	}

	printChange(change)

	recordHistory(&store.Record{
		Kind:     store.RecordQuery,
		Project:  change.Project,
		Change:   change.Number,
		Patchset: patchsetNumber(change),
		Detail:   change.Subject,
	})

	if queryCheck {
		ok, err := change.CurrentPatchSet.HasApproval(queryApprovalType, queryApprovalValue)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("change %s has no %s approval matching %q", change.Number, queryApprovalType, queryApprovalValue)
		}
		ui.Success("Approval check passed: %s %q", queryApprovalType, queryApprovalValue)
	}
	return nil
}

func patchsetNumber(change *gerrit.Change) string {
	if change.CurrentPatchSet == nil {
		return ""
	}
	return change.CurrentPatchSet.Number
}

func printChange(change *gerrit.Change) {
	fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("change "+change.Number), change.Subject)
	fmt.Fprintf(ui.Out, "  %-10s %s\n", "Project", change.Project)
	fmt.Fprintf(ui.Out, "  %-10s %s\n", "Branch", change.Branch)
	fmt.Fprintf(ui.Out, "  %-10s %s\n", "Status", output.ChangeStatusColor(change.Status))
	fmt.Fprintf(ui.Out, "  %-10s %s\n", "Owner", change.Owner.Username)
	if change.URL != "" {
		fmt.Fprintf(ui.Out, "  %-10s %s\n", "URL", change.URL)
	}

	ps := change.CurrentPatchSet
	if ps == nil {
		return
	}
	fmt.Fprintf(ui.Out, "  %-10s %s (%s)\n", "Patchset", ps.Number, ps.Ref)

	if len(ps.Approvals) == 0 {
		ui.Info("No approvals on patchset %s", ps.Number)
		return
	}

	fmt.Fprintln(ui.Out)
	table := ui.Table([]string{"Type", "Value", "By", "Granted"})
	for _, a := range ps.Approvals {
		granted := ""
		if a.GrantedOn > 0 {
			granted = time.Unix(a.GrantedOn, 0).Format("2006-01-02 15:04")
		}
		table.Append([]string{a.Type, output.ScoreColor(a.Value), a.By.Username, granted})
	}
	_ = table.Render()
}
