package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
)

func TestSlowQueryLogRecordBelowThresholdIsSkipped(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	recorded := l.Record("SELECT 1", 10, samplePhysicalPlan(), nil)
	require.False(t, recorded)
	require.Equal(t, 0, l.Count())
}

func TestSlowQueryLogRecordAboveThresholdIsKept(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	recorded := l.Record("SELECT 1", 500, samplePhysicalPlan(), []StepTiming{
		{Modality: modality.Vector, TimeMs: 100, Rows: 10},
		{Modality: modality.Graph, TimeMs: 400, Rows: 5},
	})
	require.True(t, recorded)
	require.Equal(t, 1, l.Count())

	entry := l.All()[0]
	require.Equal(t, "SELECT 1", entry.QueryText)
	require.NotNil(t, entry.Bottleneck)
	require.Equal(t, modality.Graph, entry.Bottleneck.Modality)
	require.InDelta(t, 80, entry.Bottleneck.Percentage, 1e-9)
}

func TestSlowQueryLogDisabledNeverRecords(t *testing.T) {
	cfg := DefaultSlowQueryConfig()
	cfg.Enabled = false
	l := NewSlowQueryLog(cfg, nil)
	recorded := l.Record("SELECT 1", 9999, samplePhysicalPlan(), nil)
	require.False(t, recorded)
}

func TestSlowQueryLogMultiModalityThresholdTripsRegardlessOfTime(t *testing.T) {
	cfg := DefaultSlowQueryConfig()
	cfg.ThresholdMs = 10000
	cfg.MultiModalityThreshold = 2
	l := NewSlowQueryLog(cfg, nil)
	recorded := l.Record("SELECT 1", 1, samplePhysicalPlan(), nil)
	require.True(t, recorded)
}

func TestSlowQueryLogRingBufferEvictsOldest(t *testing.T) {
	cfg := DefaultSlowQueryConfig()
	cfg.MaxEntries = 2
	l := NewSlowQueryLog(cfg, nil)
	l.Record("q1", 200, samplePhysicalPlan(), nil)
	l.Record("q2", 300, samplePhysicalPlan(), nil)
	l.Record("q3", 400, samplePhysicalPlan(), nil)

	require.Equal(t, 2, l.Count())
	all := l.All()
	require.Equal(t, "q2", all[0].QueryText)
	require.Equal(t, "q3", all[1].QueryText)
}

func TestSlowQueryLogRecentIsNewestFirst(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	l.Record("q1", 200, samplePhysicalPlan(), nil)
	l.Record("q2", 300, samplePhysicalPlan(), nil)

	recent := l.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, "q2", recent[0].QueryText)
}

func TestSlowQueryLogClear(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	l.Record("q1", 200, samplePhysicalPlan(), nil)
	l.Clear()
	require.Equal(t, 0, l.Count())
}

func TestSlowQueryLogSummaryAggregatesStatistics(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	l.Record("q1", 200, samplePhysicalPlan(), []StepTiming{{Modality: modality.Vector, TimeMs: 200, Rows: 1}})
	l.Record("q2", 400, samplePhysicalPlan(), []StepTiming{{Modality: modality.Graph, TimeMs: 400, Rows: 1}})

	summary := l.Summary()
	require.Equal(t, 2, summary.TotalCount)
	require.InDelta(t, 300, summary.AvgMs, 1e-9)
	require.InDelta(t, 400, summary.MaxMs, 1e-9)
	require.InDelta(t, 200, summary.MinMs, 1e-9)
	require.NotNil(t, summary.TopBottleneckModality)
}

func TestSlowQueryLogSummaryEmptyIsZeroValue(t *testing.T) {
	l := NewSlowQueryLog(DefaultSlowQueryConfig(), nil)
	summary := l.Summary()
	require.Equal(t, 0, summary.TotalCount)
	require.Nil(t, summary.TopBottleneckModality)
}
