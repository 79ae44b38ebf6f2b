package history

import "time"

const SchemaVersion = 1

// Snapshot is one completed scan's summary row. ScanID is assigned on save
// when empty.
type Snapshot struct {
	SchemaVersion  int       `json:"schema_version"`
	ScanID         string    `json:"scan_id"`
	ProjectKey     string    `json:"project_key,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ModuleCount    int       `json:"module_count"`
	ClassCount     int       `json:"class_count"`
	EdgeCount      int       `json:"edge_count"`
	DuplicateCount int       `json:"duplicate_count"`
	CycleCount     int       `json:"cycle_count"`
	ViolationCount int       `json:"violation_count"`
	DurationMS     int64     `json:"duration_ms"`
}

type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	ScanID          string    `json:"scan_id"`
	ModuleCount     int       `json:"module_count"`
	ClassCount      int       `json:"class_count"`
	EdgeCount       int       `json:"edge_count"`
	DuplicateCount  int       `json:"duplicate_count"`
	CycleCount      int       `json:"cycle_count"`
	ViolationCount  int       `json:"violation_count"`
	DurationMS      int64     `json:"duration_ms"`
	DeltaModules    int       `json:"delta_modules"`
	DeltaClasses    int       `json:"delta_classes"`
	DeltaEdges      int       `json:"delta_edges"`
	DeltaDuplicates int       `json:"delta_duplicates"`
	DeltaCycles     int       `json:"delta_cycles"`
	DeltaViolations int       `json:"delta_violations"`
	ClassGrowthPct  float64   `json:"class_growth_pct"`
	AvgCycles       float64   `json:"avg_cycles"`
	AvgViolations   float64   `json:"avg_violations"`
	WindowHours     float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
