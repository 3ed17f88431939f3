package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mockprep/internal/db"
)

const (
	TypeSessionCreated   = "SessionCreated"
	TypeAttemptStarted   = "AttemptStarted"
	TypeAttemptCompleted = "AttemptCompleted"
)

type Event struct {
	Seq       int64  `json:"seq,omitempty"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: session or attempt id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// NewEvent encodes payload as the event data.
func NewEvent(typ, key string, payload any) (Event, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{SiteID: "local", Type: typ, Key: key, DataJSON: string(buf), CreatedAt: time.Now().Unix()}, nil
}

// Publisher delivers events somewhere durable or observable.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type EventRepo struct {
	db     *sql.DB
	driver db.Driver
}

func NewEventRepo(dbh *sql.DB, driver db.Driver) *EventRepo {
	return &EventRepo{db: dbh, driver: driver}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver,
		`INSERT INTO event_log (site_id, typ, event_key, data, created_at)
		 VALUES (?,?,?,?,?)`),
		e.SiteID, e.Type, e.Key, e.DataJSON, e.CreatedAt)
	return err
}

func (r *EventRepo) Publish(ctx context.Context, e Event) error { return r.Append(ctx, e) }

// ListByKey returns the events recorded for key, oldest first.
func (r *EventRepo) ListByKey(ctx context.Context, key string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver,
		`SELECT seq, site_id, typ, event_key, data, created_at FROM event_log WHERE event_key=? ORDER BY seq`), key)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListAfter returns up to limit events with seq greater than after, oldest first.
func (r *EventRepo) ListAfter(ctx context.Context, after int64, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver,
		`SELECT seq, site_id, typ, event_key, data, created_at FROM event_log WHERE seq>? ORDER BY seq LIMIT ?`), after, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// Cursor returns the last seq delivered by the named relay, 0 if none.
func (r *EventRepo) Cursor(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx, db.Rebind(r.driver,
		`SELECT seq FROM relay_cursor WHERE name=?`), name).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return seq, err
}

func (r *EventRepo) SetCursor(ctx context.Context, name string, seq int64) error {
	res, err := r.db.ExecContext(ctx, db.Rebind(r.driver,
		`UPDATE relay_cursor SET seq=? WHERE name=?`), seq, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, db.Rebind(r.driver,
		`INSERT INTO relay_cursor (name, seq) VALUES (?,?)`), name, seq)
	return err
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
