package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mockprep/internal/db"
)

// SQLStore persists catalog reference data. Reads load the whole catalog into
// a MemoryCatalog; the data is append-only reference data so a snapshot is
// served for the life of the process.
type SQLStore struct {
	db     *sql.DB
	driver db.Driver
}

func NewSQLStore(dbh *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: dbh, driver: driver}
}

// Import validates seed and writes it, replacing rows with the same ids.
func (s *SQLStore) Import(ctx context.Context, seed Seed) error {
	if err := Validate(seed); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	base, err := s.nextSeq(ctx, tx)
	if err != nil {
		return err
	}

	for i, t := range seed.Tags {
		if err := s.replace(ctx, tx, "tags", t.ID,
			`INSERT INTO tags (id,name,seq) VALUES (?,?,?)`, t.ID, t.Name, base+i); err != nil {
			return fmt.Errorf("tag %s: %w", t.ID, err)
		}
	}
	for i, g := range seed.Groups {
		if err := s.replaceBody(ctx, tx, "question_groups", g.ID, g, base+i); err != nil {
			return fmt.Errorf("group %s: %w", g.ID, err)
		}
	}
	for i, q := range seed.Questions {
		if err := s.replaceBody(ctx, tx, "questions", q.ID, q, base+i); err != nil {
			return fmt.Errorf("question %s: %w", q.ID, err)
		}
	}
	for i, t := range seed.Tests {
		if err := s.replaceBody(ctx, tx, "tests", t.ID, t, base+i); err != nil {
			return fmt.Errorf("test %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads every table, in insertion order, into a MemoryCatalog.
func (s *SQLStore) Load(ctx context.Context) (*MemoryCatalog, error) {
	var seed Seed

	rows, err := s.db.QueryContext(ctx, `SELECT id,name FROM tags ORDER BY seq, id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, err
		}
		seed.Tags = append(seed.Tags, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	if err := loadBodies(ctx, s.db, "question_groups", &seed.Groups); err != nil {
		return nil, err
	}
	if err := loadBodies(ctx, s.db, "questions", &seed.Questions); err != nil {
		return nil, err
	}
	if err := loadBodies(ctx, s.db, "tests", &seed.Tests); err != nil {
		return nil, err
	}
	return NewMemoryCatalog(seed), nil
}

func (s *SQLStore) nextSeq(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), -1) + 1 FROM (
  SELECT seq FROM tags UNION ALL SELECT seq FROM questions
  UNION ALL SELECT seq FROM question_groups UNION ALL SELECT seq FROM tests
) AS all_seq`).Scan(&n)
	return n, err
}

func (s *SQLStore) replace(ctx context.Context, tx *sql.Tx, table, id, insert string, args ...any) error {
	if _, err := tx.ExecContext(ctx, db.Rebind(s.driver, `DELETE FROM `+table+` WHERE id=?`), id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, db.Rebind(s.driver, insert), args...)
	return err
}

func (s *SQLStore) replaceBody(ctx context.Context, tx *sql.Tx, table, id string, v any, seq int) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.replace(ctx, tx, table, id,
		`INSERT INTO `+table+` (id,body,seq) VALUES (?,?,?)`, id, string(body), seq)
}

func loadBodies[T any](ctx context.Context, dbh *sql.DB, table string, out *[]T) error {
	rows, err := dbh.QueryContext(ctx, `SELECT body FROM `+table+` ORDER BY seq, id`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			rows.Close()
			return err
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			rows.Close()
			return fmt.Errorf("%s: decode body: %w", table, err)
		}
		*out = append(*out, v)
	}
	return closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
