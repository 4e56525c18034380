package wal

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
)

// SyncKind selects how aggressively the writer fsyncs appended records.
type SyncKind int

const (
	// SyncFsync fsyncs after every append.
	SyncFsync SyncKind = iota
	// SyncPeriodic fsyncs at most once per Period.
	SyncPeriodic
	// SyncAsync relies on the OS page cache; data loss is possible on crash.
	SyncAsync
)

// SyncPolicy configures the writer's durability/throughput tradeoff
// (spec.md §4.2 "SyncMode").
type SyncPolicy struct {
	Kind   SyncKind
	Period time.Duration
}

const defaultMaxSegmentSize = 64 * 1024 * 1024

// Writer owns the current segment file for one WAL directory exclusively;
// spec.md §4.4 "a single writer per WAL directory".
type Writer struct {
	mu sync.Mutex

	dir            string
	policy         SyncPolicy
	maxSegmentSize int64
	log            *zap.Logger

	file          *os.File
	startSequence uint64
	nextSequence  uint64
	currentSize   int64
	lastSync      time.Time
}

// Open creates dir if absent, discovers existing segments, and resumes
// sequence numbering from the maximum observed sequence + 1 (spec.md §4.2
// "open(dir, SyncMode, max_segment_size)").
func Open(dir string, policy SyncPolicy, maxSegmentSize int64, log *zap.Logger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if maxSegmentSize <= 0 {
		maxSegmentSize = defaultMaxSegmentSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	segments, err := discoverSegments(dir)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		dir:            dir,
		policy:         policy,
		maxSegmentSize: maxSegmentSize,
		log:            log,
		lastSync:       time.Now(),
	}

	if len(segments) == 0 {
		if err := w.openNewSegment(0); err != nil {
			return nil, err
		}
		return w, nil
	}

	last := segments[len(segments)-1]
	maxSeq, size, err := scanSegmentForMaxSequence(last.Path)
	if err != nil {
		return nil, err
	}
	w.startSequence = last.StartSequence
	w.nextSequence = maxSeq + 1
	if size == 0 {
		// No readable record in the last segment: resume at its start sequence.
		w.nextSequence = last.StartSequence
	}
	w.currentSize = size

	f, err := os.OpenFile(last.Path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w.file = f

	log.Info("wal writer resumed", zap.String("dir", dir), zap.Uint64("next_sequence", w.nextSequence))
	return w, nil
}

func scanSegmentForMaxSequence(path string) (maxSeq uint64, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	r := newRawReader(f)
	var lastGood bool
	for {
		rec, consumed, rerr := r.next()
		if rerr == errEOF {
			break
		}
		if rerr == errTruncated {
			break
		}
		if _, ok := rerr.(*CrcMismatch); ok {
			size += consumed
			if rec.Sequence > maxSeq {
				maxSeq = rec.Sequence
			}
			lastGood = true
			continue
		}
		if rerr != nil {
			return 0, 0, rerr
		}
		size += consumed
		if rec.Sequence > maxSeq {
			maxSeq = rec.Sequence
		}
		lastGood = true
	}
	if !lastGood {
		return 0, size, nil
	}
	return maxSeq, size, nil
}

func (w *Writer) openNewSegment(startSequence uint64) error {
	path := filepath.Join(w.dir, segmentFileName(startSequence))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.startSequence = startSequence
	w.nextSequence = startSequence
	w.currentSize = 0
	return nil
}

// Append assigns the next sequence number to entry, rotating the segment
// first if the record would push it over the configured max size, writes
// it, then applies the sync policy (spec.md §4.2 "append").
func (w *Writer) Append(entry Record) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendLocked(entry)
}

func (w *Writer) appendLocked(entry Record) (uint64, error) {
	if w.file == nil {
		return 0, ErrClosed
	}

	entry.Sequence = w.nextSequence
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	buf := entry.encode()

	if w.currentSize+int64(len(buf)) > w.maxSegmentSize && w.currentSize > 0 {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	if _, err := w.file.Write(buf); err != nil {
		return 0, err
	}
	w.currentSize += int64(len(buf))
	w.nextSequence++

	if err := w.applySyncPolicyLocked(); err != nil {
		return 0, err
	}
	return entry.Sequence, nil
}

// AppendBatch appends entries atomically with respect to rotation: all
// records are written to one segment. If the batch would push a non-empty
// current segment over the max size, the segment is rotated before the
// first record; a batch larger than the max size is still written whole
// into one segment.
func (w *Writer) AppendBatch(entries []Record) ([]uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil, ErrClosed
	}

	var total int64
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		e.Sequence = w.nextSequence + uint64(i)
		tmp := e
		if tmp.Timestamp.IsZero() {
			tmp.Timestamp = time.Now().UTC()
		}
		encoded[i] = tmp.encode()
		total += int64(len(encoded[i]))
	}

	if w.currentSize > 0 && w.currentSize+total > w.maxSegmentSize {
		if err := w.rotateLocked(); err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Sequence = w.nextSequence + uint64(i)
			tmp := entries[i]
			if tmp.Timestamp.IsZero() {
				tmp.Timestamp = time.Now().UTC()
			}
			encoded[i] = tmp.encode()
		}
	}

	sequences := make([]uint64, len(entries))
	for i, buf := range encoded {
		if _, err := w.file.Write(buf); err != nil {
			return nil, err
		}
		w.currentSize += int64(len(buf))
		sequences[i] = w.nextSequence
		w.nextSequence++
	}

	if err := w.applySyncPolicyLocked(); err != nil {
		return nil, err
	}
	return sequences, nil
}

// Checkpoint appends a Checkpoint record with modality All and always
// fsyncs unconditionally afterward, regardless of SyncMode.
func (w *Writer) Checkpoint() (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seq, err := w.appendLocked(Record{Operation: OpCheckpoint, Modality: modality.All})
	if err != nil {
		return 0, err
	}
	if err := w.file.Sync(); err != nil {
		return 0, err
	}
	w.lastSync = time.Now()
	return seq, nil
}

// Rotate fsyncs the current segment and opens a new one starting at the
// current next_sequence (spec.md §4.2 "rotate").
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	return w.rotateLocked()
}

func (w *Writer) rotateLocked() error {
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	w.log.Info("wal segment rotated", zap.Uint64("next_start_sequence", w.nextSequence))
	return w.openNewSegment(w.nextSequence)
}

// Sync forces an fsync on demand regardless of the configured policy.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.lastSync = time.Now()
	return nil
}

func (w *Writer) applySyncPolicyLocked() error {
	switch w.policy.Kind {
	case SyncFsync:
		if err := w.file.Sync(); err != nil {
			return err
		}
		w.lastSync = time.Now()
	case SyncPeriodic:
		if time.Since(w.lastSync) >= w.policy.Period {
			if err := w.file.Sync(); err != nil {
				return err
			}
			w.lastSync = time.Now()
		}
	case SyncAsync:
		// rely on the OS page cache
	}
	return nil
}

// NextSequence reports the sequence that will be assigned to the next
// appended record.
func (w *Writer) NextSequence() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextSequence
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Sync()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}
