package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/grading"
)

// Tracker drives the attempt lifecycle: in-progress -> completed, once.
type Tracker struct {
	catalog catalog.Catalog
	store   Store
	now     func() time.Time
	newID   func() string
}

type TrackerOption func(*Tracker)

func WithTrackerClock(now func() time.Time) TrackerOption { return func(t *Tracker) { t.now = now } }
func WithTrackerIDs(f func() string) TrackerOption        { return func(t *Tracker) { t.newID = f } }

func NewTracker(c catalog.Catalog, s Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		catalog: c,
		store:   s,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// StartAttempt opens an in-progress attempt on an existing session.
func (t *Tracker) StartAttempt(ctx context.Context, sessionID string) (Attempt, error) {
	sess, err := t.store.GetSession(ctx, sessionID)
	if err != nil {
		return Attempt{}, err
	}
	a := Attempt{
		ID:             t.newID(),
		SessionID:      sess.ID,
		Status:         StatusInProgress,
		TotalQuestions: len(sess.QuestionIDs),
		Answers:        Answers{},
		StartedAt:      t.now(),
	}
	if err := t.store.PutAttempt(ctx, a); err != nil {
		return Attempt{}, fmt.Errorf("store attempt: %w", err)
	}
	return a, nil
}

// RecordAnswer upserts one answer. Any choice id is accepted; scoring treats
// unknown ids as wrong.
func (t *Tracker) RecordAnswer(ctx context.Context, attemptID, questionID, choiceID string) (Attempt, error) {
	return t.store.SaveAnswers(ctx, attemptID, Answers{questionID: choiceID})
}

// SaveAnswers merges a partial answer sheet into the attempt (save progress).
func (t *Tracker) SaveAnswers(ctx context.Context, attemptID string, answers Answers) (Attempt, error) {
	return t.store.SaveAnswers(ctx, attemptID, answers)
}

// CompleteAttempt scores the attempt over its session's exact question list
// and marks it completed. finalAnswers are merged over the saved snapshot;
// nil scores the snapshot as is. Completing twice returns the stored attempt
// together with ErrAlreadyCompleted.
func (t *Tracker) CompleteAttempt(ctx context.Context, attemptID string, finalAnswers Answers) (Attempt, grading.Result, error) {
	a, err := t.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, grading.Result{}, err
	}
	if a.Completed() {
		return a, t.review(ctx, a), fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadyCompleted)
	}
	sess, err := t.store.GetSession(ctx, a.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Attempt{}, grading.Result{}, fmt.Errorf("attempt %s: %w", attemptID, ErrSessionMissing)
		}
		return Attempt{}, grading.Result{}, err
	}

	answers := a.Answers.merge(finalAnswers)
	res := grading.Score(t.catalog, sess.QuestionIDs, answers)

	done, err := t.store.Complete(ctx, attemptID, answers, res.Correct, t.now())
	if err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			// lost the race to another completer; report what they stored
			return done, t.review(ctx, done), err
		}
		return Attempt{}, grading.Result{}, err
	}
	return done, res, nil
}

// CurrentAttempt returns the newest in-progress attempt on a session.
func (t *Tracker) CurrentAttempt(ctx context.Context, sessionID string) (Attempt, bool, error) {
	list, err := t.store.ListAttempts(ctx, AttemptListOpts{SessionIDs: []string{sessionID}, Status: StatusInProgress})
	if err != nil || len(list) == 0 {
		return Attempt{}, false, err
	}
	return list[len(list)-1], true, nil
}

// Review re-scores a stored attempt for display. Completed attempts keep
// their stored score; the review only adds per-question detail.
func (t *Tracker) Review(ctx context.Context, attemptID string) (Attempt, grading.Result, error) {
	a, err := t.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, grading.Result{}, err
	}
	return a, t.review(ctx, a), nil
}

func (t *Tracker) review(ctx context.Context, a Attempt) grading.Result {
	sess, err := t.store.GetSession(ctx, a.SessionID)
	if err != nil {
		return grading.Result{Correct: a.Score, Total: a.TotalQuestions}
	}
	return grading.Score(t.catalog, sess.QuestionIDs, a.Answers)
}
