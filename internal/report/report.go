// Package report derives the dashboard summary served by the query API:
// ranked usage tiles, startup chart points, speed buckets, and the duration
// formatting they share.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/9renpoto/time-wise/internal/startup"
	"github.com/9renpoto/time-wise/internal/usage"
)

const (
	// TileLimit caps the number of usage tiles in a summary.
	TileLimit = 6
	// ChartSize is the fixed number of startup chart points.
	ChartSize = 5

	fastMaxMs   = 500
	steadyMaxMs = 1500
)

// UsageTile is one ranked entry of the usage grid.
type UsageTile struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Subtitle string `json:"subtitle"`
	Active   bool   `json:"active"`
}

// ChartPoint is one bar of the startup chart. Points are ordered oldest
// first; padding points carry the label "-" and a zero duration.
type ChartPoint struct {
	Label      string `json:"label"`
	DurationMs int64  `json:"durationMs"`
}

// Bucket summarizes the startup runs falling into one speed band.
type Bucket struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Summary is the assembled dashboard payload.
type Summary struct {
	ActiveApps   int          `json:"activeApps"`
	Tiles        []UsageTile  `json:"tiles"`
	StartupRuns  int          `json:"startupRuns"`
	StartupTotal string       `json:"startupTotal"`
	Chart        []ChartPoint `json:"chart"`
	Buckets      []Bucket     `json:"buckets"`
}

// Build assembles the full summary. Startup records are expected newest
// first, which is the order stores return them in.
func Build(usageRecs []usage.Record, startupRecs []startup.Record) Summary {
	var totalMs int64
	for _, r := range startupRecs {
		totalMs += r.DurationMs
	}
	return Summary{
		ActiveApps:   ActiveCount(usageRecs),
		Tiles:        UsageTiles(usageRecs),
		StartupRuns:  len(startupRecs),
		StartupTotal: FormatTotalDuration(totalMs),
		Chart:        ChartPoints(startupRecs),
		Buckets:      Buckets(startupRecs),
	}
}

// UsageTiles ranks usage records (active first, then most accumulated time,
// then most recently seen) and renders the top TileLimit as tiles.
func UsageTiles(records []usage.Record) []UsageTile {
	sorted := append([]usage.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Active != b.Active {
			return a.Active
		}
		if a.TotalActiveMs != b.TotalActiveMs {
			return a.TotalActiveMs > b.TotalActiveMs
		}
		return a.LastSeenAtMs > b.LastSeenAtMs
	})
	if len(sorted) > TileLimit {
		sorted = sorted[:TileLimit]
	}
	tiles := make([]UsageTile, 0, len(sorted))
	for _, r := range sorted {
		subtitle := "Active now"
		if !r.Active {
			subtitle = "Last active " + formatTimestamp(r.LastSeenAtMs)
		}
		tiles = append(tiles, UsageTile{
			Name:     r.Name,
			Duration: FormatDuration(r.TotalActiveMs),
			Subtitle: subtitle,
			Active:   r.Active,
		})
	}
	return tiles
}

// ActiveCount counts records currently marked active.
func ActiveCount(records []usage.Record) int {
	n := 0
	for _, r := range records {
		if r.Active {
			n++
		}
	}
	return n
}

// ChartPoints renders the latest ChartSize startup runs oldest first,
// left-padding with empty points when fewer runs exist.
func ChartPoints(records []startup.Record) []ChartPoint {
	n := len(records)
	if n > ChartSize {
		n = ChartSize
	}
	points := make([]ChartPoint, 0, ChartSize)
	for i := 0; i < ChartSize-n; i++ {
		points = append(points, ChartPoint{Label: "-"})
	}
	for i := n - 1; i >= 0; i-- {
		points = append(points, ChartPoint{
			Label:      formatTimeOfDay(records[i].RecordedAtMs),
			DurationMs: records[i].DurationMs,
		})
	}
	return points
}

// Buckets splits startup runs into fast, steady and slow bands. Band names
// and the "avg · n runs" summaries are the dashboard's display strings.
func Buckets(records []startup.Record) []Bucket {
	type band struct {
		totalMs int64
		count   int
	}
	var fast, steady, slow band
	for _, r := range records {
		switch {
		case r.DurationMs <= fastMaxMs:
			fast.totalMs += r.DurationMs
			fast.count++
		case r.DurationMs <= steadyMaxMs:
			steady.totalMs += r.DurationMs
			steady.count++
		default:
			slow.totalMs += r.DurationMs
			slow.count++
		}
	}
	return []Bucket{
		{Name: "Fast starts (<0.5s)", Summary: summarizeBand(fast.totalMs, fast.count)},
		{Name: "Steady starts (0.5–1.5s)", Summary: summarizeBand(steady.totalMs, steady.count)},
		{Name: "Slow starts (>1.5s)", Summary: summarizeBand(slow.totalMs, slow.count)},
	}
}

func summarizeBand(totalMs int64, count int) string {
	if count == 0 {
		return "No runs yet"
	}
	avg := totalMs / int64(count)
	runs := "runs"
	if count == 1 {
		runs = "run"
	}
	return fmt.Sprintf("%s avg · %d %s", FormatDuration(avg), count, runs)
}

// FormatDuration renders milliseconds as "1.25 s" from one second up and
// "480 ms" below.
func FormatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", float64(ms)/1000.0)
	}
	return fmt.Sprintf("%d ms", ms)
}

// FormatDurationCompact renders short axis annotations: "0", "950 ms",
// "1.5 s", "2.0 m".
func FormatDurationCompact(ms int64) string {
	switch {
	case ms == 0:
		return "0"
	case ms >= 60_000:
		return fmt.Sprintf("%.1f m", float64(ms)/60_000.0)
	case ms >= 1000:
		return fmt.Sprintf("%.1f s", float64(ms)/1000.0)
	default:
		return fmt.Sprintf("%d ms", ms)
	}
}

// FormatTotalDuration renders an accumulated total with hour and minute
// steps for the header figure.
func FormatTotalDuration(ms int64) string {
	switch {
	case ms == 0:
		return "0 ms"
	case ms >= 3_600_000:
		return fmt.Sprintf("%.1f h", float64(ms)/3_600_000.0)
	case ms >= 60_000:
		return fmt.Sprintf("%.1f m", float64(ms)/60_000.0)
	case ms >= 1000:
		return fmt.Sprintf("%.1f s", float64(ms)/1000.0)
	default:
		return fmt.Sprintf("%d ms", ms)
	}
}

// Timestamps render in UTC so summaries are stable regardless of the host
// timezone.
func formatTimeOfDay(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("15:04")
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("Jan 2 15:04")
}
