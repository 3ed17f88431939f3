package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mockprep/internal/db"
)

type SQLStore struct {
	db     *sql.DB
	driver db.Driver // sqlite|postgres|mysql
}

func NewSQLStore(dbh *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: dbh, driver: driver}
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func (s *SQLStore) PutSession(ctx context.Context, sess Session) error {
	qj, err := json.Marshal(nonNil(sess.QuestionIDs))
	if err != nil {
		return err
	}
	gj, err := json.Marshal(nonNil(sess.QuestionGroupIDs))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO test_sessions (id,test_id,question_ids,question_group_ids,started_at)
		VALUES (?,?,?,?,?)`),
		sess.ID, sess.TestID, string(qj), string(gj), sess.StartedAt.UnixNano())
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id,test_id,question_ids,question_group_ids,started_at
		FROM test_sessions WHERE id=?`), id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, testID string) ([]Session, error) {
	query := `SELECT id,test_id,question_ids,question_group_ids,started_at FROM test_sessions`
	var args []any
	if testID != "" {
		query += ` WHERE test_id=?`
		args = append(args, testID)
	}
	query += ` ORDER BY started_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Session, 0, 8)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	if a.Answers == nil {
		a.Answers = Answers{}
	}
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	status := a.Status
	if status == "" {
		status = StatusInProgress
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO test_attempts
		(id,session_id,status,score,total_questions,answers,started_at,completed_at)
		VALUES (?,?,?,?,?,?,?,?)`),
		a.ID, a.SessionID, string(status), a.Score, a.TotalQuestions, string(aj),
		a.StartedAt.UnixNano(), nullTime(a.CompletedAt))
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id,session_id,status,score,total_questions,answers,started_at,completed_at
		FROM test_attempts WHERE id=?`), id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers Answers) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Completed() {
		return a, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadyCompleted)
	}
	merged := a.Answers.merge(answers)
	buf, err := json.Marshal(merged)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE test_attempts SET answers=? WHERE id=? AND status=?`),
		string(buf), attemptID, string(StatusInProgress))
	if err != nil {
		return Attempt{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// completed between our read and write, or unchanged
		return s.conflict(ctx, attemptID)
	}
	a.Answers = merged
	return a, nil
}

func (s *SQLStore) Complete(ctx context.Context, attemptID string, answers Answers, score int, at time.Time) (Attempt, error) {
	if answers == nil {
		answers = Answers{}
	}
	buf, err := json.Marshal(answers)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE test_attempts SET status=?, score=?, answers=?, completed_at=?
		WHERE id=? AND status=?`),
		string(StatusCompleted), score, string(buf), at.UnixNano(), attemptID, string(StatusInProgress))
	if err != nil {
		return Attempt{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Attempt{}, err
	}
	if n == 0 {
		a, err := s.conflict(ctx, attemptID)
		if err == nil {
			err = fmt.Errorf("attempt %s: completion not applied", attemptID)
		}
		return a, err
	}
	return s.GetAttempt(ctx, attemptID)
}

// conflict explains a guarded UPDATE that touched no rows. MySQL reports
// changed rows, not matched ones, so an unchanged in-progress row also lands
// here and is not a conflict.
func (s *SQLStore) conflict(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if !a.Completed() {
		return a, nil
	}
	return a, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadyCompleted)
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	if len(opts.SessionIDs) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(opts.SessionIDs)), ",")
		where = append(where, "session_id IN ("+ph+")")
		for _, id := range opts.SessionIDs {
			args = append(args, id)
		}
	}
	if opts.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(opts.Status))
	}
	query := `SELECT id,session_id,status,score,total_questions,answers,started_at,completed_at FROM test_attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attempt, 0, 8)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess      Session
		qj, gj    string
		startedAt int64
	)
	if err := row.Scan(&sess.ID, &sess.TestID, &qj, &gj, &startedAt); err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(qj), &sess.QuestionIDs); err != nil {
		return Session{}, fmt.Errorf("session %s: decode question ids: %w", sess.ID, err)
	}
	if err := json.Unmarshal([]byte(gj), &sess.QuestionGroupIDs); err != nil {
		return Session{}, fmt.Errorf("session %s: decode group ids: %w", sess.ID, err)
	}
	sess.StartedAt = time.Unix(0, startedAt).UTC()
	return sess, nil
}

func scanAttempt(row scanner) (Attempt, error) {
	var (
		a           Attempt
		status, aj  string
		startedAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.SessionID, &status, &a.Score, &a.TotalQuestions, &aj, &startedAt, &completedAt); err != nil {
		return Attempt{}, err
	}
	a.Status = Status(status)
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil || a.Answers == nil {
		a.Answers = Answers{}
	}
	a.StartedAt = time.Unix(0, startedAt).UTC()
	if completedAt.Valid {
		t := time.Unix(0, completedAt.Int64).UTC()
		a.CompletedAt = &t
	}
	return a, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
