package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"verisimdb/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or scaffold VeriSimDB configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration currently in effect",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the published default configuration to path",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}
