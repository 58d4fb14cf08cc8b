package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cihelpers/gerritci/internal/gerrit"
	"github.com/cihelpers/gerritci/internal/scm"
	"github.com/cihelpers/gerritci/internal/store"
	"github.com/cihelpers/gerritci/internal/trigger"
)

var (
	checkoutURL         string
	checkoutProject     string
	checkoutDir         string
	checkoutBranch      string
	checkoutRefspec     string
	checkoutLocalBranch string
	checkoutMerge       bool
	checkoutWipe        bool
	checkoutDepth       int
	checkoutTimeout     time.Duration

	checkoutHost string
	checkoutPort string
	checkoutUser string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Check out the triggering patchset into a workspace",
	Long: `Fetch and check out a Gerrit patchset.

The connection and refspec default to the Gerrit Trigger environment of the
surrounding build; flags override individual pieces. Pass --url to supply a
full scheme://user@host:port/project connection string instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkoutRun(cmd)
	},
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutURL, "url", "", "Full connection string (scheme://user@host:port/project)")
	checkoutCmd.Flags().StringVar(&checkoutProject, "project", "", "Gerrit project (overrides trigger env)")
	checkoutCmd.Flags().StringVar(&checkoutDir, "dir", ".", "Workspace directory")
	checkoutCmd.Flags().StringVar(&checkoutBranch, "branch", "", "Target branch (used with --merge)")
	checkoutCmd.Flags().StringVar(&checkoutRefspec, "refspec", "", "Refspec to fetch (overrides trigger env)")
	checkoutCmd.Flags().StringVar(&checkoutLocalBranch, "local-branch", "", "Create this local branch at FETCH_HEAD")
	checkoutCmd.Flags().BoolVar(&checkoutMerge, "merge", false, "Merge the patchset into --branch instead of a detached checkout")
	checkoutCmd.Flags().BoolVar(&checkoutWipe, "wipe", false, "Empty the workspace before fetching")
	checkoutCmd.Flags().IntVar(&checkoutDepth, "depth", 0, "Shallow fetch depth (0 = full history)")
	checkoutCmd.Flags().DurationVar(&checkoutTimeout, "timeout", 20*time.Minute, "Per-command timeout")

	checkoutCmd.Flags().StringVar(&checkoutHost, "host", "", "Gerrit host (overrides config)")
	checkoutCmd.Flags().StringVar(&checkoutPort, "port", "", "Gerrit SSH port (overrides config)")
	checkoutCmd.Flags().StringVar(&checkoutUser, "user", "", "Gerrit SSH user (overrides config)")

	rootCmd.AddCommand(checkoutCmd)
}

// checkoutConnection resolves the connection: an explicit --url wins, else
// it is assembled from flags, config, and the trigger environment.
func checkoutConnection(ev *trigger.Event) (*gerrit.Connection, error) {
	if checkoutURL != "" {
		conn, ok := gerrit.ParseConnection(checkoutURL)
		if !ok {
			return nil, fmt.Errorf("cannot parse connection string: %s", checkoutURL)
		}
		return conn, nil
	}

	endpoint := gerritEndpoint(checkoutHost, checkoutPort, checkoutUser)
	conn := &gerrit.Connection{
		Scheme:  firstNonEmpty(ev.Scheme, viper.GetString("gerrit.scheme")),
		User:    endpoint.User,
		Host:    endpoint.Host,
		Port:    endpoint.Port,
		Project: firstNonEmpty(checkoutProject, ev.Project),
	}

	var missing []string
	if conn.User == "" {
		missing = append(missing, "user")
	}
	if conn.Host == "" {
		missing = append(missing, "host")
	}
	if conn.Project == "" {
		missing = append(missing, "project")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("cannot assemble connection string, missing: %s", strings.Join(missing, ", "))
	}
	return conn, nil
}

func checkoutRun(cmd *cobra.Command) error {
	ev := trigger.FromEnv(nil)

	conn, err := checkoutConnection(ev)
	if err != nil {
		return err
	}

	opts := scm.CheckoutOptions{
		Dir:         checkoutDir,
		Branch:      checkoutBranch,
		Refspec:     checkoutRefspec,
		LocalBranch: checkoutLocalBranch,
		Merge:       checkoutMerge,
		Wipe:        checkoutWipe,
		Depth:       checkoutDepth,
		Timeout:     checkoutTimeout,
	}
	cfg, err := scm.BuildCheckoutConfig(conn, ev, opts)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would check out %s from %s into %s", cfg.Refspec, cfg.URL, cfg.Dir)
		if cfg.Wipe {
			fmt.Fprintf(ui.Out, "  wipe %s\n", cfg.Dir)
		}
		for _, args := range cfg.Plan() {
			fmt.Fprintf(ui.Out, "  git %s\n", strings.Join(args, " "))
		}
		return nil
	}

	ui.Info("Checking out %s from %s", cfg.Refspec, cfg.URL)
	if err := scm.NewGitRunner().Checkout(cmd.Context(), cfg); err != nil {
		return err
	}

	recordHistory(&store.Record{
		Kind:     store.RecordCheckout,
		Project:  conn.Project,
		Change:   ev.ChangeNumber,
		Patchset: ev.PatchsetNumber,
		Detail:   cfg.Refspec,
	})

	ui.Success("Checked out %s into %s", cfg.Refspec, cfg.Dir)
	return nil
}
