// Package engine is the single entry point the presentation layer talks to.
// It wires the assembler, tracker and history layer together and adds
// logging, metrics and event publication around every mutation.
package engine

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/exam"
	"github.com/mind-engage/mockprep/internal/grading"
	"github.com/mind-engage/mockprep/internal/history"
	"github.com/mind-engage/mockprep/internal/logging"
	"github.com/mind-engage/mockprep/internal/metrics"
	syncx "github.com/mind-engage/mockprep/internal/sync"
)

// Completion is an attempt together with its percentage and, once the
// attempt is completed, the per-question review.
type Completion struct {
	Attempt  exam.Attempt           `json:"attempt"`
	Percent  int                    `json:"percent"`
	Review   *grading.Result        `json:"review,omitempty"`
	Subjects []grading.SubjectScore `json:"subjects,omitempty"`
}

type Engine struct {
	catalog   catalog.Catalog
	store     exam.Store
	assembler *exam.Assembler
	tracker   *exam.Tracker
	history   *history.Service

	log     *logging.Logger
	metrics *metrics.Metrics
	events  syncx.Publisher

	assemblerOpts []exam.AssemblerOption
	trackerOpts   []exam.TrackerOption
	historyOpts   []history.Option
}

type Option func(*Engine)

func WithLogger(l *logging.Logger) Option    { return func(e *Engine) { e.log = l } }
func WithMetrics(m *metrics.Metrics) Option  { return func(e *Engine) { e.metrics = m } }
func WithPublisher(p syncx.Publisher) Option { return func(e *Engine) { e.events = p } }
func WithAssembler(o ...exam.AssemblerOption) Option {
	return func(e *Engine) { e.assemblerOpts = append(e.assemblerOpts, o...) }
}
func WithTracker(o ...exam.TrackerOption) Option {
	return func(e *Engine) { e.trackerOpts = append(e.trackerOpts, o...) }
}
func WithHistory(o ...history.Option) Option {
	return func(e *Engine) { e.historyOpts = append(e.historyOpts, o...) }
}

func New(c catalog.Catalog, store exam.Store, opts ...Option) *Engine {
	e := &Engine{catalog: c, store: store}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	e.assembler = exam.NewAssembler(c, store, e.assemblerOpts...)
	e.tracker = exam.NewTracker(c, store, e.trackerOpts...)
	e.history = history.NewService(c, store, e.historyOpts...)
	return e
}

func (e *Engine) ListTests() []catalog.Test { return e.catalog.ListTests() }

func (e *Engine) CreateOrResumeSession(ctx context.Context, testID, existingSessionID string) (exam.Assembly, error) {
	asm, err := e.assembler.CreateOrResumeSession(ctx, testID, existingSessionID)
	if err != nil {
		return exam.Assembly{}, err
	}
	fields := logrus.Fields{"test_id": testID, "session_id": asm.Session.ID, "mode": asm.Mode}
	if asm.Resumed {
		e.log.WithFields(fields).Info("session resumed")
		return asm, nil
	}

	e.log.WithFields(fields).WithField("questions", len(asm.Session.QuestionIDs)).Info("session created")
	for _, f := range asm.Fill {
		if f.Underfilled() {
			e.log.WithFields(fields).WithFields(logrus.Fields{
				"subject_id": f.SubjectID,
				"requested":  f.Requested,
				"selected":   f.Selected,
			}).Warn("question pool smaller than requested")
		}
	}
	e.metrics.SessionCreated(asm.Mode, asm.Underfilled())
	e.publish(ctx, syncx.TypeSessionCreated, asm.Session.ID, asm.Session)
	return asm, nil
}

func (e *Engine) StartAttempt(ctx context.Context, sessionID string) (exam.Attempt, error) {
	a, err := e.tracker.StartAttempt(ctx, sessionID)
	if err != nil {
		return exam.Attempt{}, err
	}
	e.log.WithFields(logrus.Fields{"session_id": sessionID, "attempt_id": a.ID}).Info("attempt started")
	e.metrics.AttemptStarted()
	e.publish(ctx, syncx.TypeAttemptStarted, a.ID, a)
	return a, nil
}

// CurrentAttempt returns the session's in-progress attempt, if any.
func (e *Engine) CurrentAttempt(ctx context.Context, sessionID string) (exam.Attempt, bool, error) {
	return e.tracker.CurrentAttempt(ctx, sessionID)
}

func (e *Engine) RecordAnswer(ctx context.Context, attemptID, questionID, choiceID string) (exam.Attempt, error) {
	return e.tracker.RecordAnswer(ctx, attemptID, questionID, choiceID)
}

func (e *Engine) SaveAnswers(ctx context.Context, attemptID string, answers exam.Answers) (exam.Attempt, error) {
	return e.tracker.SaveAnswers(ctx, attemptID, answers)
}

// CompleteAttempt scores and closes the attempt. On ErrAlreadyCompleted the
// returned Completion still carries the persisted result.
func (e *Engine) CompleteAttempt(ctx context.Context, attemptID string, answers exam.Answers) (Completion, error) {
	a, res, err := e.tracker.CompleteAttempt(ctx, attemptID, answers)
	if err != nil {
		if errors.Is(err, exam.ErrAlreadyCompleted) {
			e.log.WithField("attempt_id", attemptID).Warn("attempt already completed")
			return e.completion(ctx, a, &res), err
		}
		return Completion{}, err
	}
	c := e.completion(ctx, a, &res)
	e.log.WithFields(logrus.Fields{
		"attempt_id": a.ID,
		"session_id": a.SessionID,
		"score":      a.Score,
		"total":      a.TotalQuestions,
		"percent":    c.Percent,
	}).Info("attempt completed")
	e.metrics.AttemptCompleted(c.Percent)
	e.publish(ctx, syncx.TypeAttemptCompleted, a.ID, c)
	return c, nil
}

// GetAttempt returns an attempt; completed attempts include their review.
func (e *Engine) GetAttempt(ctx context.Context, attemptID string) (Completion, error) {
	a, res, err := e.tracker.Review(ctx, attemptID)
	if err != nil {
		return Completion{}, err
	}
	if !a.Completed() {
		return Completion{Attempt: a}, nil
	}
	return e.completion(ctx, a, &res), nil
}

func (e *Engine) completion(ctx context.Context, a exam.Attempt, res *grading.Result) Completion {
	c := Completion{Attempt: a, Percent: res.Percent(), Review: res}
	if a.Completed() {
		c.Percent = grading.Result{Correct: a.Score, Total: a.TotalQuestions}.Percent()
	}
	if sess, err := e.store.GetSession(ctx, a.SessionID); err == nil {
		if test, ok := e.catalog.FindTestByID(sess.TestID); ok {
			c.Subjects = grading.SubjectBreakdown(e.catalog, test, sess.QuestionIDs, a.Answers)
		}
	}
	return c
}

// GetSessionQuestions returns the session's questions in session order with
// answer keys removed. Unknown sessions yield an empty list.
func (e *Engine) GetSessionQuestions(ctx context.Context, sessionID string) ([]catalog.Question, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil || sess == nil {
		return []catalog.Question{}, err
	}
	out := make([]catalog.Question, 0, len(sess.QuestionIDs))
	for _, id := range sess.QuestionIDs {
		if q, ok := e.catalog.FindQuestionByID(id); ok {
			out = append(out, q.Redacted())
		}
	}
	return out, nil
}

// GetSessionGroups returns the groups referenced by the session, in order.
func (e *Engine) GetSessionGroups(ctx context.Context, sessionID string) ([]catalog.QuestionGroup, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil || sess == nil {
		return []catalog.QuestionGroup{}, err
	}
	out := make([]catalog.QuestionGroup, 0, len(sess.QuestionGroupIDs))
	for _, id := range sess.QuestionGroupIDs {
		if g, ok := e.catalog.FindGroupByID(id); ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (e *Engine) GetTestHistory(ctx context.Context, testID string) (history.HistoryView, error) {
	return e.history.GetTestHistory(ctx, testID)
}

func (e *Engine) GetUserSummary(ctx context.Context) (history.SummaryView, error) {
	return e.history.GetUserSummary(ctx)
}

// session maps ErrNotFound to a nil session.
func (e *Engine) session(ctx context.Context, id string) (*exam.Session, error) {
	sess, err := e.store.GetSession(ctx, id)
	if errors.Is(err, exam.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (e *Engine) publish(ctx context.Context, typ, key string, payload any) {
	if e.events == nil {
		return
	}
	ev, err := syncx.NewEvent(typ, key, payload)
	if err == nil {
		err = e.events.Publish(ctx, ev)
	}
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{"type": typ, "key": key}).Error("event publish failed")
	}
}
