package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/engine"
	"github.com/mind-engage/mockprep/internal/exam"
	"github.com/mind-engage/mockprep/internal/metrics"
	syncx "github.com/mind-engage/mockprep/internal/sync"
)

type recorder struct {
	mu     sync.Mutex
	events []syncx.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e syncx.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newEngine(pub syncx.Publisher, m *metrics.Metrics) *engine.Engine {
	return engine.New(catalog.NewMemoryCatalog(catalog.Sample()), exam.NewInMemoryStore(),
		engine.WithPublisher(pub), engine.WithMetrics(m))
}

func TestEngine_TakeTest(t *testing.T) {
	ctx := context.Background()
	pub := &recorder{}
	m := metrics.New(nil)
	e := newEngine(pub, m)

	asm, err := e.CreateOrResumeSession(ctx, "3", "")
	require.NoError(t, err)
	sessID := asm.Session.ID

	qs, err := e.GetSessionQuestions(ctx, sessID)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	for i, q := range qs {
		assert.Equal(t, asm.Session.QuestionIDs[i], q.ID, "session order")
		assert.Empty(t, q.CorrectChoiceID, "answer key stripped")
		assert.Empty(t, q.Explanation)
	}

	groups, err := e.GetSessionGroups(ctx, sessID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.NotEmpty(t, groups[0].ReferenceText)

	a, err := e.StartAttempt(ctx, sessID)
	require.NoError(t, err)

	_, err = e.RecordAnswer(ctx, a.ID, "q4", "q4c3")
	require.NoError(t, err)
	_, err = e.SaveAnswers(ctx, a.ID, exam.Answers{"q6": "q6c1"})
	require.NoError(t, err)

	inProgress, err := e.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, inProgress.Review, "no answer key while in progress")

	done, err := e.CompleteAttempt(ctx, a.ID, exam.Answers{"q7": "q7c1"})
	require.NoError(t, err)
	assert.Equal(t, 2, done.Attempt.Score)
	assert.Equal(t, 3, done.Attempt.TotalQuestions)
	assert.Equal(t, 67, done.Percent)
	require.NotNil(t, done.Review)
	assert.Len(t, done.Review.Questions, 3)
	require.Len(t, done.Subjects, 2)
	assert.Equal(t, 1, done.Subjects[1].Correct)
	assert.Equal(t, 2, done.Subjects[1].Attempted)

	again, err := e.CompleteAttempt(ctx, a.ID, exam.Answers{"q7": "q7c2"})
	require.ErrorIs(t, err, exam.ErrAlreadyCompleted)
	assert.Equal(t, done.Attempt, again.Attempt)
	assert.Equal(t, 67, again.Percent)

	got, err := e.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, got.Percent)
	require.NotNil(t, got.Review)

	assert.Equal(t, []string{syncx.TypeSessionCreated, syncx.TypeAttemptStarted, syncx.TypeAttemptCompleted}, pub.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreated.WithLabelValues("subjects")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsCompleted))

	hist, err := e.GetTestHistory(ctx, "3")
	require.NoError(t, err)
	require.Len(t, hist.Sessions, 1)
	assert.Equal(t, 67, hist.Stats.HighestScore)

	sum, err := e.GetUserSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalCompletedTests)
}

func TestEngine_ResumeDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recorder{}
	e := newEngine(pub, nil)

	first, err := e.CreateOrResumeSession(ctx, "1", "")
	require.NoError(t, err)
	again, err := e.CreateOrResumeSession(ctx, "1", first.Session.ID)
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, first.Session.QuestionIDs, again.Session.QuestionIDs)
	assert.Len(t, pub.events, 1)
}

func TestEngine_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&recorder{err: errors.New("broker down")}, nil)

	asm, err := e.CreateOrResumeSession(ctx, "2", "")
	require.NoError(t, err)
	_, err = e.StartAttempt(ctx, asm.Session.ID)
	assert.NoError(t, err)
}

func TestEngine_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	e := newEngine(nil, nil)

	qs, err := e.GetSessionQuestions(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)

	gs, err := e.GetSessionGroups(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, gs)

	_, err = e.CreateOrResumeSession(ctx, "404", "")
	assert.ErrorIs(t, err, exam.ErrNotFound)
	_, err = e.StartAttempt(ctx, "missing")
	assert.ErrorIs(t, err, exam.ErrNotFound)
	_, err = e.GetAttempt(ctx, "missing")
	assert.ErrorIs(t, err, exam.ErrNotFound)
	_, err = e.RecordAnswer(ctx, "missing", "q1", "q1c1")
	assert.ErrorIs(t, err, exam.ErrNotFound)

	assert.Len(t, e.ListTests(), 4)
}
