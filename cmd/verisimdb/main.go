// Command verisimdb is the administrative CLI for a VeriSimDB instance:
// write-ahead log inspection and replay, storage statistics, query plan
// explanation, and configuration management.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verisimdb/internal/config"
	"verisimdb/internal/obslog"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "verisimdb",
	Short: "Administrative CLI for a VeriSimDB instance",
	Long: `verisimdb is the operator-facing admin tool for a VeriSimDB instance:
inspecting and replaying the write-ahead log, checking storage
statistics, rendering query explain output, and managing configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		if verbose {
			log = obslog.NewDevelopment()
		} else {
			log = obslog.NewProduction()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "verisimdb.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (development) logging")

	rootCmd.AddCommand(walCmd, dbCmd, planCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
