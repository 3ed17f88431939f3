package exam_test

import (
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mockprep/internal/catalog"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// keepOrder is a Shuffler that leaves input order untouched.
type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

// seqIDs returns a generator of prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// tickingClock advances one minute per call.
func tickingClock() func() time.Time {
	var (
		mu sync.Mutex
		at = t0
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Minute)
		return at
	}
}

func mcq(id string, tags ...string) catalog.Question {
	return catalog.Question{
		ID:              id,
		Text:            "question " + id,
		Choices:         []catalog.Choice{{ID: id + "-a"}, {ID: id + "-b"}},
		CorrectChoiceID: id + "-a",
		Tags:            tags,
	}
}

func right(id string) string { return id + "-a" }
func wrong(id string) string { return id + "-b" }

func tags(ids ...string) []catalog.Tag {
	out := make([]catalog.Tag, len(ids))
	for i, id := range ids {
		out[i] = catalog.Tag{ID: id, Name: "tag " + id}
	}
	return out
}
