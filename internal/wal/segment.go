package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const segmentExt = ".log"

// segmentFileName formats the file name encoding a segment's start sequence
// (spec.md §3 "WAL segment": "wal-{start_sequence:016}.{ext}").
func segmentFileName(startSequence uint64) string {
	return fmt.Sprintf("wal-%016d%s", startSequence, segmentExt)
}

// segmentInfo describes one discovered segment file.
type segmentInfo struct {
	StartSequence uint64
	Path          string
}

// discoverSegments lists and sorts segment files in dir by ascending start
// sequence. Non-matching files are ignored.
func discoverSegments(dir string) ([]segmentInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []segmentInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "wal-") || !strings.HasSuffix(name, segmentExt) {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(name, "wal-"), segmentExt)
		seq, err := strconv.ParseUint(numPart, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, segmentInfo{StartSequence: seq, Path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartSequence < out[j].StartSequence })
	return out, nil
}

// segmentForSequence returns the segment whose start sequence is the
// largest one not greater than target (spec.md §3 "WAL segment").
func segmentForSequence(segments []segmentInfo, target uint64) (segmentInfo, bool) {
	var best segmentInfo
	found := false
	for _, s := range segments {
		if s.StartSequence <= target {
			best = s
			found = true
		} else {
			break
		}
	}
	return best, found
}
