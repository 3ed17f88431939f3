package exam

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCompleted = errors.New("attempt already completed")
	// ErrSessionMissing is returned when an attempt outlived its session.
	ErrSessionMissing = errors.New("session missing for attempt")
)

type AttemptListOpts struct {
	SessionIDs []string // empty = any session
	Status     Status   // optional: in-progress|completed
}

// Store persists sessions and attempts. Sessions are append-only; attempts
// are appended and then changed only through SaveAnswers (while in progress)
// and Complete (once).
type Store interface {
	PutSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// ListSessions returns sessions for testID ("" = all), oldest first.
	ListSessions(ctx context.Context, testID string) ([]Session, error)

	PutAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// SaveAnswers merges answers into an in-progress attempt's snapshot.
	SaveAnswers(ctx context.Context, attemptID string, answers Answers) (Attempt, error)
	// Complete flips an in-progress attempt to completed, storing the final
	// answer sheet and score. A second call fails with ErrAlreadyCompleted.
	Complete(ctx context.Context, attemptID string, answers Answers, score int, at time.Time) (Attempt, error)
	// ListAttempts returns matching attempts, oldest start first.
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}
