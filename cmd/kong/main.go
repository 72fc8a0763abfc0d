package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kong-job/kong/pkg/config"
	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/grid"
	"github.com/kong-job/kong/pkg/driver/htcondor"
	"github.com/kong-job/kong/pkg/driver/local"
	"github.com/kong-job/kong/pkg/driver/slurm"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/notify"
	"github.com/kong-job/kong/pkg/session"
	"github.com/kong-job/kong/pkg/storage"
)

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kong",
	Short:   "Kong - a hierarchical job orchestrator over pluggable batch back-ends",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("kong version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs as JSON")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(
		mkdirCmd,
		lsCmd,
		createJobCmd,
		submitCmd,
		killCmd,
		resubmitCmd,
		waitCmd,
		statusCmd,
		rmCmd,
		mvCmd,
	)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kong.yaml"
	}
	return filepath.Join(home, ".kong", "kong.yaml")
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	asJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: asJSON})
}

// buildSession wires a Session from the config file named by
// --config: the SQLite store under the application directory, every
// driver the config carries enough settings to construct, and the
// console notifier.
func buildSession(cmd *cobra.Command) (*session.Session, func() error, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	appDir := filepath.Dir(cfgPath)
	store, err := storage.NewSQLiteStore(appDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	closeFn := store.Close

	registry := driver.NewRegistry()
	registry.Register(local.New(store, cfg.JobDir, cfg.JobOutputDir))

	if cfg.Slurm.Account != "" {
		opts := slurm.Options{Account: cfg.Slurm.Account, Queue: cfg.Slurm.DefaultQueue}
		registry.Register(slurm.New(store, slurm.NewBackend(), cfg.JobDir, cfg.JobOutputDir, opts))
	}
	if cfg.HTCondor.DefaultUniverse != "" {
		logFile := filepath.Join(appDir, "htcondor.log")
		opts := htcondor.Options{Universe: cfg.HTCondor.DefaultUniverse, SubmitFileExtra: cfg.HTCondor.SubmitFileExtra}
		registry.Register(htcondor.New(store, htcondor.NewBackend(logFile), cfg.JobDir, cfg.JobOutputDir, opts))
	}
	if cfg.Prun.EMIPath != "" {
		registry.Register(grid.New(store, grid.NewBackend("https://panda.cern.ch"), cfg.JobDir, cfg.JobOutputDir))
	}

	s, err := session.New(cmd.Context(), session.Options{
		Store:      store,
		Drivers:    registry,
		DefaultTag: cfg.DefaultDriver,
		Notifier:   notify.Console{},
	})
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}
