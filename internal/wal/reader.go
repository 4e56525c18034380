package wal

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
)

var (
	errEOF       = errors.New("wal: end of segment")
	errTruncated = errors.New("wal: truncated tail")
)

// rawReader reads consecutive records from one open segment file, used both
// by the writer (to resume sequence numbering) and by Reader (to replay).
type rawReader struct {
	r io.Reader
}

func newRawReader(r io.Reader) *rawReader {
	return &rawReader{r: r}
}

// next reads one record. consumed is the number of bytes read from the
// stream for this record (valid even when err is a *CrcMismatch, since the
// bytes were still consumed). err is errEOF at a clean end-of-stream,
// errTruncated at a short tail, *CrcMismatch for a checksum failure, or
// *EntryTooLargeError for an oversized declared length.
func (rr *rawReader) next() (Record, int64, error) {
	var lengthBuf [4]byte
	n, err := io.ReadFull(rr.r, lengthBuf[:])
	if err == io.EOF && n == 0 {
		return Record{}, 0, errEOF
	}
	if err != nil {
		return Record{}, int64(n), errTruncated
	}

	entryLength := binary.LittleEndian.Uint32(lengthBuf[:])
	if entryLength > MaxEntryLength {
		return Record{}, 4, &EntryTooLargeError{Length: entryLength}
	}

	body := make([]byte, entryLength)
	n, err = io.ReadFull(rr.r, body)
	if err != nil {
		return Record{}, int64(4 + n), errTruncated
	}

	rec, derr := decodeRecord(0, body)
	consumed := int64(4 + len(body))
	if derr != nil {
		return rec, consumed, derr
	}
	return rec, consumed, nil
}

// Reader replays segments in a WAL directory in ascending sequence order.
type Reader struct {
	segments []segmentInfo
}

// OpenReader lists and sorts the segments found in dir.
func OpenReader(dir string) (*Reader, error) {
	segments, err := discoverSegments(dir)
	if err != nil {
		return nil, err
	}
	return &Reader{segments: segments}, nil
}

// ReplayFunc is invoked once per successfully or partially decoded record.
// crcErr is non-nil (a *CrcMismatch) when the record's checksum disagreed;
// the record fields are still populated from the raw bytes in that case.
// Returning a non-nil error stops replay early.
type ReplayFunc func(rec Record, crcErr error) error

// Replay streams every record across all segments, in order, to fn. It
// stops cleanly at a truncated tail (spec.md §4.2 "benign at end-of-segment,
// treated as a clean crash boundary").
func (r *Reader) Replay(fn ReplayFunc) error {
	for _, seg := range r.segments {
		if err := replaySegment(seg.Path, fn); err != nil {
			return err
		}
	}
	return nil
}

func replaySegment(path string, fn ReplayFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rr := newRawReader(f)
	for {
		rec, _, err := rr.next()
		switch {
		case err == errEOF:
			return nil
		case err == errTruncated:
			return nil
		default:
		}
		if crcErr, ok := err.(*CrcMismatch); ok {
			if cbErr := fn(rec, crcErr); cbErr != nil {
				return cbErr
			}
			continue
		}
		if err != nil {
			return err
		}
		if cbErr := fn(rec, nil); cbErr != nil {
			return cbErr
		}
	}
}

// Segments exposes the discovered segment start sequences, ascending.
func (r *Reader) Segments() []uint64 {
	out := make([]uint64, len(r.segments))
	for i, s := range r.segments {
		out[i] = s.StartSequence
	}
	return out
}

// PruneBefore deletes segments whose start sequence is less than
// checkpointSequence, but only when at least one later segment would still
// remain (spec.md §4.2 "Pruning": never remove the only remaining segment).
func PruneBefore(dir string, checkpointSequence uint64) ([]uint64, error) {
	segments, err := discoverSegments(dir)
	if err != nil {
		return nil, err
	}
	if len(segments) <= 1 {
		return nil, nil
	}

	var toDelete []segmentInfo
	for i, s := range segments {
		if i == len(segments)-1 {
			break // never delete the last segment
		}
		next := segments[i+1]
		if next.StartSequence <= checkpointSequence {
			toDelete = append(toDelete, s)
		}
	}

	var pruned []uint64
	for _, s := range toDelete {
		if err := os.Remove(s.Path); err != nil {
			return pruned, err
		}
		pruned = append(pruned, s.StartSequence)
	}
	return pruned, nil
}
