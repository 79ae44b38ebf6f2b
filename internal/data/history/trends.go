package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns a chronological snapshot slice into per-scan deltas
// plus moving averages over the given window.
func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:      current.Timestamp,
			ScanID:         current.ScanID,
			ModuleCount:    current.ModuleCount,
			ClassCount:     current.ClassCount,
			EdgeCount:      current.EdgeCount,
			DuplicateCount: current.DuplicateCount,
			CycleCount:     current.CycleCount,
			ViolationCount: current.ViolationCount,
			DurationMS:     current.DurationMS,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaModules = current.ModuleCount - prev.ModuleCount
			point.DeltaClasses = current.ClassCount - prev.ClassCount
			point.DeltaEdges = current.EdgeCount - prev.EdgeCount
			point.DeltaDuplicates = current.DuplicateCount - prev.DuplicateCount
			point.DeltaCycles = current.CycleCount - prev.CycleCount
			point.DeltaViolations = current.ViolationCount - prev.ViolationCount
			if prev.ClassCount > 0 {
				point.ClassGrowthPct = (float64(point.DeltaClasses) / float64(prev.ClassCount)) * 100
			}
		}

		avgCycles, avgViolations := movingAverages(snapshots, i, window)
		point.AvgCycles = round2(avgCycles)
		point.AvgViolations = round2(avgViolations)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].CycleCount), float64(snapshots[index].ViolationCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var cyclesTotal int
	var violationsTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		cyclesTotal += snapshots[i].CycleCount
		violationsTotal += snapshots[i].ViolationCount
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(cyclesTotal) / float64(count), float64(violationsTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
