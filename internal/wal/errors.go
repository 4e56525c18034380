package wal

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by any writer operation after Close has run.
	ErrClosed = errors.New("wal: writer closed")
	// ErrNoSegments is returned when a reader finds an empty WAL directory.
	ErrNoSegments = errors.New("wal: no segments found")
)

// CrcMismatch reports a record whose stored CRC32 disagrees with the
// recomputed checksum over its body (spec.md §4.2). Non-fatal: callers may
// choose to skip the record and continue replay.
type CrcMismatch struct {
	Sequence uint64
	Expected uint32
	Actual   uint32
}

func (e *CrcMismatch) Error() string {
	return fmt.Sprintf("wal: crc mismatch at sequence %d: expected %08x, got %08x", e.Sequence, e.Expected, e.Actual)
}

// TruncatedRecordError marks a record body too short for its fixed header
// or for its own entity_id/payload length fields. Replay returns it as an
// error; a segment tail cut short mid-record is a separate case at which
// replay stops cleanly.
type TruncatedRecordError struct{}

func (e *TruncatedRecordError) Error() string { return "wal: truncated record" }

// EntryTooLargeError reports an entry_length exceeding MaxEntryLength.
type EntryTooLargeError struct {
	Length uint32
}

func (e *EntryTooLargeError) Error() string {
	return fmt.Sprintf("wal: entry length %d exceeds maximum %d", e.Length, MaxEntryLength)
}
