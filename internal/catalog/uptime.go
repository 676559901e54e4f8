package catalog

import (
	"math"
	"sort"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

// UptimeWindow is a reporting period split into equal buckets.
type UptimeWindow struct {
	Name     string
	Duration time.Duration
	Bucket   time.Duration
}

// UptimeWindows lists the supported windows by name.
var UptimeWindows = map[string]UptimeWindow{
	"24h": {Name: "24h", Duration: 24 * time.Hour, Bucket: time.Hour},
	"7d":  {Name: "7d", Duration: 7 * 24 * time.Hour, Bucket: 6 * time.Hour},
	"30d": {Name: "30d", Duration: 30 * 24 * time.Hour, Bucket: 24 * time.Hour},
}

// UptimeBucket summarizes one bucket. Status and Uptime are nil when the
// component did not exist during the bucket.
type UptimeBucket struct {
	Start  time.Time               `json:"start"`
	End    time.Time               `json:"end"`
	Status *domain.ComponentStatus `json:"status"`
	Uptime *float64                `json:"uptime"`
}

// UptimeReport is the uptime of a component over a window.
type UptimeReport struct {
	ComponentID string         `json:"component_id"`
	Window      string         `json:"window"`
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	Uptime      float64        `json:"uptime"`
	Buckets     []UptimeBucket `json:"buckets"`
}

type segment struct {
	start, end time.Time
	status     domain.ComponentStatus
}

// ComputeUptime derives per-bucket worst status and operational share from
// the status log. Time before the component was created is not counted.
func ComputeUptime(component *domain.Component, entries []domain.ComponentStatusLogEntry, w UptimeWindow, now time.Time) UptimeReport {
	from := now.Add(-w.Duration)
	segments := buildSegments(component, entries, now)

	report := UptimeReport{
		ComponentID: component.ID,
		Window:      w.Name,
		From:        from,
		To:          now,
		Uptime:      100,
		Buckets:     make([]UptimeBucket, 0, int(w.Duration/w.Bucket)),
	}

	var totalObserved, totalOperational time.Duration
	for start := from; start.Before(now); start = start.Add(w.Bucket) {
		end := start.Add(w.Bucket)
		if end.After(now) {
			end = now
		}
		bucket := UptimeBucket{Start: start, End: end}

		var observed, operational time.Duration
		var worst domain.ComponentStatus
		for _, seg := range segments {
			overlap := overlapOf(seg.start, seg.end, start, end)
			if overlap <= 0 {
				continue
			}
			observed += overlap
			if seg.status == domain.ComponentStatusOperational {
				operational += overlap
			}
			if worst == "" {
				worst = seg.status
			} else {
				worst = worst.Worse(seg.status)
			}
		}

		if observed > 0 {
			pct := percent(operational, observed)
			bucket.Status = &worst
			bucket.Uptime = &pct
			totalObserved += observed
			totalOperational += operational
		}
		report.Buckets = append(report.Buckets, bucket)
	}

	if totalObserved > 0 {
		report.Uptime = percent(totalOperational, totalObserved)
	}
	return report
}

// buildSegments turns the status log into contiguous [start, end) intervals
// beginning no earlier than the component's creation.
func buildSegments(component *domain.Component, entries []domain.ComponentStatusLogEntry, now time.Time) []segment {
	sorted := make([]domain.ComponentStatusLogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	if len(sorted) == 0 {
		return []segment{{start: component.CreatedAt, end: now, status: component.Status}}
	}

	segments := make([]segment, 0, len(sorted))
	for i, e := range sorted {
		start := e.CreatedAt
		if start.Before(component.CreatedAt) {
			start = component.CreatedAt
		}
		end := now
		if i+1 < len(sorted) {
			end = sorted[i+1].CreatedAt
		}
		if !end.After(start) {
			continue
		}
		segments = append(segments, segment{start: start, end: end, status: e.NewStatus})
	}
	return segments
}

func overlapOf(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return end.Sub(start)
}

// percent returns part/whole as a percentage rounded to two decimals.
func percent(part, whole time.Duration) float64 {
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
