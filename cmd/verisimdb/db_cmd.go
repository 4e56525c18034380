package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"verisimdb/internal/config"
	"verisimdb/internal/storage"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the storage backend",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print storage backend size and limits from the loaded config",
	RunE:  runDBStats,
}

func init() {
	dbCmd.AddCommand(dbStatsCmd)
}

func openConfiguredBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "durable":
		return storage.OpenDurable(storage.DurableOptions{
			Path:          cfg.Storage.DurablePath,
			MaxKeyBytes:   cfg.Storage.MaxKeyBytes,
			MaxValueBytes: cfg.Storage.MaxValueBytes,
		}, log)
	default:
		return storage.NewMemoryBackend(log), nil
	}
}

func runDBStats(cmd *cobra.Command, args []string) error {
	backend, err := openConfiguredBackend(cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	maxKey, maxValue := backend.Limits()
	fmt.Printf("Backend: %s\n", cfg.Storage.Backend)
	if cfg.Storage.Backend == "durable" {
		fmt.Printf("Path: %s\n", cfg.Storage.DurablePath)
	}
	fmt.Printf("Max key bytes: %d\n", maxKey)
	fmt.Printf("Max value bytes: %d\n", maxValue)

	if size, ok := backend.ApproximateSize(context.Background()); ok {
		fmt.Printf("Approximate size: %d bytes\n", size)
	} else {
		fmt.Println("Approximate size: unavailable")
	}
	return nil
}
