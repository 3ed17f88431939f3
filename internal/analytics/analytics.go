// Package analytics derives percentages, aggregates and trend series from
// scored attempts. Every function is total: empty input yields zero values or
// nil, never an error.
package analytics

import (
	"fmt"
	"sort"
	"time"
)

// Percent is round(score/total*100) with half-up rounding, 0 when total <= 0.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	// floor((200*score + total) / (2*total)) == floor(100*score/total + 0.5)
	return floorDiv(200*score+total, 2*total)
}

// Point is one completed attempt as seen by the analytics layer.
type Point struct {
	Label string
	Score int
	Total int
	At    time.Time // completion time
}

func (p Point) Percent() int { return Percent(p.Score, p.Total) }

type Aggregate struct {
	Count   int `json:"count"`
	Average int `json:"average"`
	Highest int `json:"highest"`
	Lowest  int `json:"lowest"`
}

// Summarize averages the per-attempt (already rounded) percentages and rounds
// the mean half-up.
func Summarize(points []Point) Aggregate {
	if len(points) == 0 {
		return Aggregate{}
	}
	agg := Aggregate{Count: len(points), Highest: points[0].Percent(), Lowest: points[0].Percent()}
	sum := 0
	for _, p := range points {
		pc := p.Percent()
		sum += pc
		if pc > agg.Highest {
			agg.Highest = pc
		}
		if pc < agg.Lowest {
			agg.Lowest = pc
		}
	}
	agg.Average = floorDiv(2*sum+len(points), 2*len(points))
	return agg
}

// Improvement is the newest percentage minus the one before it. Nil when
// fewer than two points exist.
func Improvement(points []Point) *int {
	if len(points) < 2 {
		return nil
	}
	sorted := newestFirst(points)
	d := sorted[0].Percent() - sorted[1].Percent()
	return &d
}

type ChartPoint struct {
	Label   string    `json:"label"`
	Percent int       `json:"percent"`
	At      time.Time `json:"at"`
}

// ChartSeries returns the last n points ordered oldest to newest. n <= 0 means all.
func ChartSeries(points []Point, n int) []ChartPoint {
	sorted := newestFirst(points)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]ChartPoint, len(sorted))
	for i, p := range sorted {
		out[len(sorted)-1-i] = ChartPoint{Label: p.Label, Percent: p.Percent(), At: p.At}
	}
	return out
}

type Band string

const (
	BandNone      Band = ""
	BandExcellent Band = "excellent"
	BandGreat     Band = "great"
	BandSolid     Band = "solid"
	BandPractice  Band = "keep-practicing"
)

// PerformanceBand grades a best score. attempts == 0 yields BandNone.
func PerformanceBand(highest, attempts int) Band {
	switch {
	case attempts == 0:
		return BandNone
	case highest >= 90:
		return BandExcellent
	case highest >= 75:
		return BandGreat
	case highest >= 50:
		return BandSolid
	default:
		return BandPractice
	}
}

func (b Band) Message() string {
	switch b {
	case BandExcellent:
		return "Excellent work! You have mastered this topic."
	case BandGreat:
		return "Great job! A little more practice and you'll be a pro."
	case BandSolid:
		return "Solid effort! Keep practicing to solidify your knowledge."
	case BandPractice:
		return "Keep practicing! Review the explanations and try again."
	default:
		return "Take the test to see how you are doing."
	}
}

// FormatDuration renders d as "Mm Ss"; negative durations render as "0m 0s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

func newestFirst(points []Point) []Point {
	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.After(sorted[j].At) })
	return sorted
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
