package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/logsubsys/catalog"
	"github.com/yanet-platform/logsubsys/logging"
	"github.com/yanet-platform/logsubsys/subsys"
)

var cmd Cmd

// Cmd is the command line arguments shared by all subcommands.
type Cmd struct {
	// ConfigPath is the path to the logging configuration file.
	ConfigPath string
	// CatalogPath is the path to the subsystem catalog. The built-in catalog
	// is used when empty.
	CatalogPath string
}

var rootCmd = &cobra.Command{
	Use:           "subsysctl",
	Short:         "Inspect and apply per-subsystem logging levels",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the logging configuration file")
	rootCmd.PersistentFlags().StringVar(&cmd.CatalogPath, "catalog", "", "Path to the subsystem catalog (built-in if empty)")

	rootCmd.AddCommand(newShowCmd(&cmd))
	rootCmd.AddCommand(newCheckCmd(&cmd))
	rootCmd.AddCommand(newWatchCmd(&cmd))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func (m *Cmd) loadConfig() (*logging.Config, error) {
	if m.ConfigPath == "" {
		return logging.DefaultConfig(), nil
	}

	cfg, err := logging.LoadConfig(m.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (m *Cmd) loadCatalog() ([]subsys.Descriptor, error) {
	if m.CatalogPath == "" {
		return catalog.Default(), nil
	}

	descs, err := catalog.Load(m.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return descs, nil
}

// loadMap builds the gating table with the configured levels applied.
func (m *Cmd) loadMap() (*subsys.Map, *logging.Config, error) {
	cfg, err := m.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	descs, err := m.loadCatalog()
	if err != nil {
		return nil, nil, err
	}

	subsystems, err := subsys.New(descs)
	if err != nil {
		return nil, nil, err
	}

	admin := logging.NewAdmin(subsystems, nil, logging.WithLog(zap.NewNop().Sugar()))
	if err := admin.Apply(cfg.Subsystems); err != nil {
		return nil, nil, fmt.Errorf("failed to apply subsystem levels: %w", err)
	}

	return subsystems, cfg, nil
}
