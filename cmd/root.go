package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cihelpers/gerritci/internal/output"
	"github.com/cihelpers/gerritci/internal/store"
	"github.com/cihelpers/gerritci/internal/trigger"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool

	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   "gerritci",
	Short: "Gerrit/Jenkins glue - checkout patchsets, query changes, correlate builds",
	Long: `gerritci wires Jenkins builds to Gerrit code review.
It builds SCM checkouts from Gerrit Trigger environment variables, queries
change metadata over Gerrit's SSH interface, and filters Jenkins build
history by change and patchset.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/gerritci/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "gerritci")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GERRITCI")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "gerritci")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "gerritci.db"))
	viper.SetDefault("gerrit.scheme", "ssh")
	viper.SetDefault("gerrit.host", "")
	viper.SetDefault("gerrit.port", "29418")
	viper.SetDefault("gerrit.user", "")
	viper.SetDefault("gerrit.ssh_key", "")
	viper.SetDefault("gerrit.known_hosts", "")
	viper.SetDefault("gerrit.insecure", false)
	viper.SetDefault("jenkins.url", "")
	viper.SetDefault("jenkins.user", "")
	viper.SetDefault("jenkins.token", "")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Library packages log through zerolog; surface their debug output
	// only under --verbose.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	// Initialize store lazily, only when commands actually need it.
	// This allows config/version commands to run without a db.
}

// rootRun handles `gerritci` with no subcommand: inside a Gerrit-triggered
// build, show the detected event; otherwise show help.
func rootRun(cmd *cobra.Command) error {
	ev := trigger.FromEnv(nil)
	if !ev.Present() {
		return cmd.Help()
	}
	return envShowRun(ev)
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// recordHistory logs an operation to the local store, best-effort. History
// must never fail the operation it records.
func recordHistory(r *store.Record) {
	s, err := getStore()
	if err != nil {
		ui.VerboseLog("history not recorded: %v", err)
		return
	}
	if err := s.AddRecord(rootCmd.Context(), r); err != nil {
		ui.VerboseLog("history not recorded: %v", err)
	}
}
