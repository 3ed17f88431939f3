package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mind-engage/mockprep/internal/analytics"
	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/exam"
	"github.com/mind-engage/mockprep/internal/grading"
)

const titleLimit = 15

// AttemptView is an attempt with its derived percentage and duration.
type AttemptView struct {
	exam.Attempt
	Percent  int    `json:"percent"`
	Duration string `json:"duration,omitempty"` // "Mm Ss", completed attempts only
}

type SessionHistory struct {
	Session     exam.Session  `json:"session"`
	Current     *AttemptView  `json:"current,omitempty"`
	Completed   []AttemptView `json:"completed"` // newest first
	Improvement *int          `json:"improvement,omitempty"`
}

type TestStats struct {
	Attempts            int                    `json:"attempts"`
	AverageScorePerTest int                    `json:"average_score_per_test"`
	HighestScore        int                    `json:"highest_score"`
	LowestScore         int                    `json:"lowest_score"`
	Improvement         *int                   `json:"improvement,omitempty"`
	Chart               []analytics.ChartPoint `json:"chart"`
	Subjects            []grading.SubjectScore `json:"subjects,omitempty"`
	Band                analytics.Band         `json:"band"`
	BandMessage         string                 `json:"band_message"`
}

type HistoryView struct {
	Test     *catalog.Test    `json:"test,omitempty"`
	Sessions []SessionHistory `json:"sessions"` // newest first
	Stats    TestStats        `json:"stats"`
}

type TestCard struct {
	TestID          string    `json:"test_id"`
	Title           string    `json:"title"`
	Attempts        int       `json:"attempts"`
	LatestPercent   int       `json:"latest_percent"`
	Improvement     *int      `json:"improvement,omitempty"`
	LastCompletedAt time.Time `json:"last_completed_at"`
}

type SummaryView struct {
	TotalCompletedTests int                    `json:"total_completed_tests"`
	AverageScoreGlobal  int                    `json:"average_score_global"`
	HighestScore        int                    `json:"highest_score"`
	Chart               []analytics.ChartPoint `json:"chart"`
	Recent              []TestCard             `json:"recent"` // newest first
}

// Service is a read-only composition over the catalog and the exam store.
type Service struct {
	catalog     catalog.Catalog
	store       exam.Store
	chartPoints int
}

type Option func(*Service)

// WithChartPoints sets how many trailing attempts chart series keep.
func WithChartPoints(n int) Option { return func(s *Service) { s.chartPoints = n } }

func NewService(c catalog.Catalog, st exam.Store, opts ...Option) *Service {
	s := &Service{catalog: c, store: st, chartPoints: 5}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetTestHistory lists the sessions of testID that have attempts, newest
// first, with per-session and per-test statistics. An unknown test yields an
// empty view.
func (s *Service) GetTestHistory(ctx context.Context, testID string) (HistoryView, error) {
	view := HistoryView{Sessions: []SessionHistory{}, Stats: emptyStats()}
	test, ok := s.catalog.FindTestByID(testID)
	if !ok {
		return view, nil
	}
	view.Test = &test

	sessions, err := s.store.ListSessions(ctx, testID)
	if err != nil {
		return view, fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return view, nil
	}
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	attempts, err := s.store.ListAttempts(ctx, exam.AttemptListOpts{SessionIDs: ids})
	if err != nil {
		return view, fmt.Errorf("list attempts: %w", err)
	}
	bySession := map[string][]exam.Attempt{}
	for _, a := range attempts {
		bySession[a.SessionID] = append(bySession[a.SessionID], a)
	}

	var all []exam.Attempt
	drawn := make(map[string][]string, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		sess := sessions[i]
		drawn[sess.ID] = sess.QuestionIDs
		list := bySession[sess.ID]
		if len(list) == 0 {
			continue
		}
		h := SessionHistory{Session: sess, Completed: []AttemptView{}}
		var done []exam.Attempt
		for _, a := range list {
			if a.Completed() {
				done = append(done, a)
				continue
			}
			// newest in-progress wins; list is oldest first
			v := viewOf(a)
			h.Current = &v
		}
		sortNewestFirst(done)
		for _, a := range done {
			h.Completed = append(h.Completed, viewOf(a))
		}
		h.Improvement = analytics.Improvement(points(done, nil))
		all = append(all, done...)
		view.Sessions = append(view.Sessions, h)
	}

	view.Stats = s.testStats(test, all, drawn)
	return view, nil
}

// testStats aggregates completed attempts. drawn maps session id to the
// session's question ids.
func (s *Service) testStats(test catalog.Test, done []exam.Attempt, drawn map[string][]string) TestStats {
	stats := emptyStats()
	if len(done) == 0 {
		return stats
	}
	sortNewestFirst(done)
	n := len(done)
	pts := points(done, func(i int, _ exam.Attempt) string {
		return fmt.Sprintf("Attempt %d", n-i)
	})
	agg := analytics.Summarize(pts)
	stats.Attempts = agg.Count
	stats.AverageScorePerTest = agg.Average
	stats.HighestScore = agg.Highest
	stats.LowestScore = agg.Lowest
	stats.Improvement = analytics.Improvement(pts)
	stats.Chart = analytics.ChartSeries(pts, s.chartPoints)
	stats.Subjects = grading.SubjectBreakdown(s.catalog, test, drawn[done[0].SessionID], done[0].Answers)
	stats.Band = analytics.PerformanceBand(agg.Highest, agg.Count)
	stats.BandMessage = stats.Band.Message()
	return stats
}

// GetUserSummary aggregates every completed attempt across all tests.
func (s *Service) GetUserSummary(ctx context.Context) (SummaryView, error) {
	view := SummaryView{Chart: []analytics.ChartPoint{}, Recent: []TestCard{}}

	sessions, err := s.store.ListSessions(ctx, "")
	if err != nil {
		return view, fmt.Errorf("list sessions: %w", err)
	}
	testOf := make(map[string]string, len(sessions))
	for _, sess := range sessions {
		testOf[sess.ID] = sess.TestID
	}
	done, err := s.store.ListAttempts(ctx, exam.AttemptListOpts{Status: exam.StatusCompleted})
	if err != nil {
		return view, fmt.Errorf("list attempts: %w", err)
	}
	if len(done) == 0 {
		return view, nil
	}
	sortNewestFirst(done)

	pts := points(done, func(_ int, a exam.Attempt) string {
		return truncate(s.title(testOf[a.SessionID]), titleLimit)
	})
	agg := analytics.Summarize(pts)
	view.TotalCompletedTests = agg.Count
	view.AverageScoreGlobal = agg.Average
	view.HighestScore = agg.Highest
	view.Chart = analytics.ChartSeries(pts, s.chartPoints)

	byTest := map[string][]analytics.Point{}
	var order []string
	for i, a := range done {
		tid := testOf[a.SessionID]
		if _, seen := byTest[tid]; !seen {
			order = append(order, tid)
		}
		byTest[tid] = append(byTest[tid], pts[i])
	}
	for _, tid := range order {
		tp := byTest[tid]
		view.Recent = append(view.Recent, TestCard{
			TestID:          tid,
			Title:           s.title(tid),
			Attempts:        len(tp),
			LatestPercent:   tp[0].Percent(),
			Improvement:     analytics.Improvement(tp),
			LastCompletedAt: tp[0].At,
		})
	}
	return view, nil
}

func (s *Service) title(testID string) string {
	if t, ok := s.catalog.FindTestByID(testID); ok && t.Title != "" {
		return t.Title
	}
	return testID
}

func emptyStats() TestStats {
	return TestStats{Chart: []analytics.ChartPoint{}, Band: analytics.BandNone, BandMessage: analytics.BandNone.Message()}
}

func viewOf(a exam.Attempt) AttemptView {
	v := AttemptView{Attempt: a, Percent: analytics.Percent(a.Score, a.TotalQuestions)}
	if d, ok := a.Duration(); ok {
		v.Duration = analytics.FormatDuration(d)
	}
	return v
}

func points(done []exam.Attempt, label func(int, exam.Attempt) string) []analytics.Point {
	out := make([]analytics.Point, len(done))
	for i, a := range done {
		p := analytics.Point{Score: a.Score, Total: a.TotalQuestions, At: completedAt(a)}
		if label != nil {
			p.Label = label(i, a)
		}
		out[i] = p
	}
	return out
}

func completedAt(a exam.Attempt) time.Time {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.StartedAt
}

func sortNewestFirst(list []exam.Attempt) {
	sort.SliceStable(list, func(i, j int) bool { return completedAt(list[i]).After(completedAt(list[j])) })
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
