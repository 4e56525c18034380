package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"verisimdb/internal/wal"
)

var walCmd = &cobra.Command{
	Use:   "wal",
	Short: "Inspect and replay the write-ahead log",
}

var walInspectCmd = &cobra.Command{
	Use:   "inspect <dir>",
	Short: "Summarize the segments found in a WAL directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWALInspect,
}

var walReplayCmd = &cobra.Command{
	Use:   "replay <dir>",
	Short: "Replay every record in a WAL directory to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runWALReplay,
}

func init() {
	walCmd.AddCommand(walInspectCmd, walReplayCmd)
}

func runWALInspect(cmd *cobra.Command, args []string) error {
	dir := args[0]
	reader, err := wal.OpenReader(dir)
	if err != nil {
		return fmt.Errorf("open wal reader: %w", err)
	}

	segments := reader.Segments()
	fmt.Printf("WAL directory: %s\n", dir)
	fmt.Printf("Segments: %d\n", len(segments))
	for _, start := range segments {
		fmt.Printf("  segment starting at sequence %d\n", start)
	}

	var records, crcErrors uint64
	var lastSequence uint64
	err = reader.Replay(func(rec wal.Record, crcErr error) error {
		records++
		if crcErr != nil {
			crcErrors++
		}
		lastSequence = rec.Sequence
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay wal: %w", err)
	}

	fmt.Printf("Records: %d\n", records)
	if crcErrors > 0 {
		fmt.Printf("CRC mismatches: %d\n", crcErrors)
	}
	if records > 0 {
		fmt.Printf("Last sequence: %d\n", lastSequence)
	}
	return nil
}

func runWALReplay(cmd *cobra.Command, args []string) error {
	dir := args[0]
	reader, err := wal.OpenReader(dir)
	if err != nil {
		return fmt.Errorf("open wal reader: %w", err)
	}

	return reader.Replay(func(rec wal.Record, crcErr error) error {
		status := "ok"
		if crcErr != nil {
			status = "CRC MISMATCH"
		}
		fmt.Printf("[%d] %s %s entity=%q modality=%s payload=%dB (%s)\n",
			rec.Sequence, rec.Timestamp.Format("2006-01-02T15:04:05.000Z"),
			operationName(rec.Operation), rec.EntityID, rec.Modality, len(rec.Payload), status)
		return nil
	})
}

func operationName(op wal.Operation) string {
	switch op {
	case wal.OpInsert:
		return "INSERT"
	case wal.OpUpdate:
		return "UPDATE"
	case wal.OpDelete:
		return "DELETE"
	case wal.OpCheckpoint:
		return "CHECKPOINT"
	default:
		return fmt.Sprintf("OP(%d)", op)
	}
}
