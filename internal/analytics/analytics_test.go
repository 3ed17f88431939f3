package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mockprep/internal/analytics"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestPercent(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{3, 4, 75},
		{1, 8, 13}, // 12.5 rounds up
		{1, 3, 33},
		{2, 3, 67},
		{0, 5, 0},
		{5, 5, 100},
		{1, 200, 1}, // 0.5
		{1, 201, 0}, // 0.497...
		{3, 0, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, analytics.Percent(tc.score, tc.total), "%d/%d", tc.score, tc.total)
	}
}

func TestTwoAttemptsFiftyThenSeventyFive(t *testing.T) {
	pts := []analytics.Point{
		{Score: 2, Total: 4, At: t0},
		{Score: 3, Total: 4, At: t0.Add(time.Hour)},
	}
	imp := analytics.Improvement(pts)
	require.NotNil(t, imp)
	assert.Equal(t, 25, *imp)

	agg := analytics.Summarize(pts)
	assert.Equal(t, analytics.Aggregate{Count: 2, Average: 63, Highest: 75, Lowest: 50}, agg)
}

func TestImprovementOrdersByTime(t *testing.T) {
	// input order must not matter
	pts := []analytics.Point{
		{Score: 4, Total: 4, At: t0.Add(2 * time.Hour)},
		{Score: 1, Total: 4, At: t0},
		{Score: 3, Total: 4, At: t0.Add(time.Hour)},
	}
	imp := analytics.Improvement(pts)
	require.NotNil(t, imp)
	assert.Equal(t, 25, *imp) // 100 - 75

	assert.Nil(t, analytics.Improvement(pts[:1]))
	assert.Nil(t, analytics.Improvement(nil))
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, analytics.Aggregate{}, analytics.Summarize(nil))
}

func TestChartSeries(t *testing.T) {
	var pts []analytics.Point
	for i := 0; i < 7; i++ {
		pts = append(pts, analytics.Point{Label: string(rune('A' + i)), Score: i, Total: 10, At: t0.Add(time.Duration(i) * time.Minute)})
	}

	got := analytics.ChartSeries(pts, 5)
	require.Len(t, got, 5)
	assert.Equal(t, "C", got[0].Label)
	assert.Equal(t, "G", got[4].Label)
	assert.Equal(t, 60, got[4].Percent)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].At.Before(got[i].At), "oldest to newest")
	}

	assert.Len(t, analytics.ChartSeries(pts, 0), 7)
	assert.Empty(t, analytics.ChartSeries(nil, 5))
}

func TestPerformanceBand(t *testing.T) {
	assert.Equal(t, analytics.BandNone, analytics.PerformanceBand(100, 0))
	assert.Equal(t, analytics.BandExcellent, analytics.PerformanceBand(90, 1))
	assert.Equal(t, analytics.BandGreat, analytics.PerformanceBand(89, 3))
	assert.Equal(t, analytics.BandGreat, analytics.PerformanceBand(75, 3))
	assert.Equal(t, analytics.BandSolid, analytics.PerformanceBand(50, 2))
	assert.Equal(t, analytics.BandPractice, analytics.PerformanceBand(49, 2))
	assert.NotEmpty(t, analytics.BandNone.Message())
	assert.NotEqual(t, analytics.BandSolid.Message(), analytics.BandGreat.Message())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 0s", analytics.FormatDuration(0))
	assert.Equal(t, "2m 5s", analytics.FormatDuration(125*time.Second+400*time.Millisecond))
	assert.Equal(t, "61m 0s", analytics.FormatDuration(61*time.Minute))
	assert.Equal(t, "0m 0s", analytics.FormatDuration(-time.Second))
}
