package client

// UsageRecord mirrors the daemon's usage record payload.
type UsageRecord struct {
	Name          string `json:"name"`
	Executable    string `json:"executable,omitempty"`
	TotalActiveMs int64  `json:"totalActiveMs"`
	LastSeenAtMs  int64  `json:"lastSeenAtMs"`
	FirstSeenAtMs int64  `json:"firstSeenAtMs"`
	Active        bool   `json:"active"`
}

// StartupRecord mirrors one recorded startup measurement.
type StartupRecord struct {
	RecordedAtMs int64  `json:"recordedAtMs"`
	DurationMs   int64  `json:"durationMs"`
	Launcher     string `json:"launcher"`
}

// UsageTile is one ranked entry of the summary's usage grid.
type UsageTile struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Subtitle string `json:"subtitle"`
	Active   bool   `json:"active"`
}

// ChartPoint is one bar of the summary's startup chart, oldest first.
type ChartPoint struct {
	Label      string `json:"label"`
	DurationMs int64  `json:"durationMs"`
}

// Bucket summarizes the startup runs in one speed band.
type Bucket struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Summary mirrors the daemon's dashboard summary payload.
type Summary struct {
	ActiveApps   int          `json:"activeApps"`
	Tiles        []UsageTile  `json:"tiles"`
	StartupRuns  int          `json:"startupRuns"`
	StartupTotal string       `json:"startupTotal"`
	Chart        []ChartPoint `json:"chart"`
	Buckets      []Bucket     `json:"buckets"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
