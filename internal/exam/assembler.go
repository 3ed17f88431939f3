package exam

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mockprep/internal/catalog"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it with an
// unbiased Fisher-Yates shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SubjectFill reports how many questions a subject (or the whole flat/legacy
// test) asked for and how many the draw produced.
type SubjectFill struct {
	SubjectID string `json:"subject_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Selected  int    `json:"selected"`
}

func (f SubjectFill) Underfilled() bool { return f.Selected < f.Requested }

// Assembly is a created or resumed session plus draw diagnostics.
type Assembly struct {
	Session Session       `json:"session"`
	Mode    string        `json:"mode"`
	Fill    []SubjectFill `json:"fill,omitempty"` // empty when resumed
	Resumed bool          `json:"resumed"`
}

func (a Assembly) Underfilled() bool {
	for _, f := range a.Fill {
		if f.Underfilled() {
			return true
		}
	}
	return false
}

type Assembler struct {
	catalog catalog.Catalog
	store   Store

	mu    sync.Mutex // guards rng
	rng   Shuffler
	now   func() time.Time
	newID func() string
	dedup bool
}

type AssemblerOption func(*Assembler)

func WithShuffler(s Shuffler) AssemblerOption        { return func(a *Assembler) { a.rng = s } }
func WithClock(now func() time.Time) AssemblerOption { return func(a *Assembler) { a.now = now } }
func WithIDs(f func() string) AssemblerOption        { return func(a *Assembler) { a.newID = f } }

// WithDedup controls cross-subject deduplication. When on (the default) a
// subject skips questions already drawn by earlier subjects and backfills
// from the rest of its own pool.
func WithDedup(on bool) AssemblerOption { return func(a *Assembler) { a.dedup = on } }

func NewAssembler(c catalog.Catalog, s Store, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		catalog: c,
		store:   s,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		dedup:   true,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// CreateSession draws a fresh, shuffled question set for test and persists it.
// Pools smaller than requested under-fill silently; see Assembly.Fill.
func (a *Assembler) CreateSession(ctx context.Context, test catalog.Test) (Assembly, error) {
	st := test.Structure()
	ids, fill := a.draw(st)
	ids = a.shuffled(ids)

	sess := Session{
		ID:               a.newID(),
		TestID:           test.ID,
		QuestionIDs:      ids,
		QuestionGroupIDs: a.groupsOf(ids),
		StartedAt:        a.now(),
	}
	if err := a.store.PutSession(ctx, sess); err != nil {
		return Assembly{}, fmt.Errorf("store session: %w", err)
	}
	return Assembly{Session: sess, Mode: catalog.Mode(st), Fill: fill}, nil
}

// CreateOrResumeSession returns the session named by existingSessionID when it
// belongs to testID, unchanged. Otherwise a new session is drawn. An unknown
// test is ErrNotFound.
func (a *Assembler) CreateOrResumeSession(ctx context.Context, testID, existingSessionID string) (Assembly, error) {
	test, ok := a.catalog.FindTestByID(testID)
	if !ok {
		return Assembly{}, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if existingSessionID != "" {
		sess, err := a.store.GetSession(ctx, existingSessionID)
		switch {
		case err == nil && sess.TestID == testID:
			return Assembly{Session: sess, Mode: catalog.Mode(test.Structure()), Resumed: true}, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return Assembly{}, err
		}
	}
	return a.CreateSession(ctx, test)
}

func (a *Assembler) draw(st catalog.Structure) ([]string, []SubjectFill) {
	switch s := st.(type) {
	case catalog.SubjectStructure:
		var (
			ids    []string
			fill   = make([]SubjectFill, 0, len(s.Subjects))
			chosen = map[string]bool{}
		)
		for _, sub := range s.Subjects {
			picked := a.pick(catalog.QuestionIDs(a.catalog.FindQuestionsByTags(sub.Tags)), sub.QuestionCount, chosen)
			ids = append(ids, picked...)
			fill = append(fill, SubjectFill{SubjectID: sub.ID, Name: sub.Name, Requested: sub.QuestionCount, Selected: len(picked)})
		}
		return ids, fill
	case catalog.FlatStructure:
		picked := a.pick(catalog.QuestionIDs(a.catalog.FindQuestionsByTags(s.Tags)), s.QuestionCount, map[string]bool{})
		return picked, []SubjectFill{{Requested: s.QuestionCount, Selected: len(picked)}}
	case catalog.LegacyStructure:
		ids := make([]string, 0, len(s.QuestionIDs))
		for _, id := range s.QuestionIDs {
			if _, ok := a.catalog.FindQuestionByID(id); ok {
				ids = append(ids, id)
			}
		}
		return ids, []SubjectFill{{Requested: len(s.QuestionIDs), Selected: len(ids)}}
	default:
		panic(fmt.Sprintf("exam: unhandled test structure %T", st))
	}
}

// pick shuffles pool and takes up to n ids, skipping (when dedup is on) ids
// already in chosen. Picked ids are added to chosen.
func (a *Assembler) pick(pool []string, n int, chosen map[string]bool) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, id := range a.shuffled(pool) {
		if len(out) == n {
			break
		}
		if a.dedup && chosen[id] {
			continue
		}
		chosen[id] = true
		out = append(out, id)
	}
	return out
}

func (a *Assembler) shuffled(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	a.mu.Lock()
	a.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	a.mu.Unlock()
	return out
}

// groupsOf lists the distinct group ids of ids, in order of first appearance.
func (a *Assembler) groupsOf(ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		q, ok := a.catalog.FindQuestionByID(id)
		if !ok || q.GroupID == "" || seen[q.GroupID] {
			continue
		}
		seen[q.GroupID] = true
		out = append(out, q.GroupID)
	}
	return out
}
