package catalog

// Catalog is the read-only query surface over questions, tags, tests and
// question groups. Lookups report absence with ok=false and never fail.
type Catalog interface {
	FindQuestionByID(id string) (Question, bool)
	// FindQuestionsByTags returns every question carrying all of tagIDs,
	// in catalog order.
	FindQuestionsByTags(tagIDs []string) []Question
	FindTestByID(id string) (Test, bool)
	FindGroupByID(id string) (QuestionGroup, bool)
	// FindQuestionsInGroup returns the group's members in the group's order.
	FindQuestionsInGroup(groupID string) []Question
	FindTagByID(id string) (Tag, bool)
	ListTests() []Test
	ListTags() []Tag
}

// MemoryCatalog is an immutable Catalog built from a Seed.
type MemoryCatalog struct {
	tags      []Tag
	groups    []QuestionGroup
	questions []Question
	tests     []Test

	tagIdx      map[string]int
	groupIdx    map[string]int
	questionIdx map[string]int
	testIdx     map[string]int
}

// NewMemoryCatalog indexes seed. Later duplicates of an id replace earlier ones
// in place; run Validate first to reject them instead.
func NewMemoryCatalog(seed Seed) *MemoryCatalog {
	c := &MemoryCatalog{
		tagIdx:      map[string]int{},
		groupIdx:    map[string]int{},
		questionIdx: map[string]int{},
		testIdx:     map[string]int{},
	}
	for _, t := range seed.Tags {
		if i, ok := c.tagIdx[t.ID]; ok {
			c.tags[i] = t
			continue
		}
		c.tagIdx[t.ID] = len(c.tags)
		c.tags = append(c.tags, t)
	}
	for _, g := range seed.Groups {
		if i, ok := c.groupIdx[g.ID]; ok {
			c.groups[i] = g
			continue
		}
		c.groupIdx[g.ID] = len(c.groups)
		c.groups = append(c.groups, g)
	}
	for _, q := range seed.Questions {
		if i, ok := c.questionIdx[q.ID]; ok {
			c.questions[i] = q
			continue
		}
		c.questionIdx[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	for _, t := range seed.Tests {
		if i, ok := c.testIdx[t.ID]; ok {
			c.tests[i] = t
			continue
		}
		c.testIdx[t.ID] = len(c.tests)
		c.tests = append(c.tests, t)
	}
	return c
}

func (c *MemoryCatalog) FindQuestionByID(id string) (Question, bool) {
	i, ok := c.questionIdx[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

func (c *MemoryCatalog) FindQuestionsByTags(tagIDs []string) []Question {
	out := make([]Question, 0, 16)
	for _, q := range c.questions {
		if q.HasTags(tagIDs) {
			out = append(out, q)
		}
	}
	return out
}

func (c *MemoryCatalog) FindTestByID(id string) (Test, bool) {
	i, ok := c.testIdx[id]
	if !ok {
		return Test{}, false
	}
	return c.tests[i], true
}

func (c *MemoryCatalog) FindGroupByID(id string) (QuestionGroup, bool) {
	i, ok := c.groupIdx[id]
	if !ok {
		return QuestionGroup{}, false
	}
	return c.groups[i], true
}

func (c *MemoryCatalog) FindQuestionsInGroup(groupID string) []Question {
	g, ok := c.FindGroupByID(groupID)
	if !ok {
		return nil
	}
	out := make([]Question, 0, len(g.QuestionIDs))
	for _, id := range g.QuestionIDs {
		if q, ok := c.FindQuestionByID(id); ok {
			out = append(out, q)
		}
	}
	return out
}

func (c *MemoryCatalog) FindTagByID(id string) (Tag, bool) {
	i, ok := c.tagIdx[id]
	if !ok {
		return Tag{}, false
	}
	return c.tags[i], true
}

func (c *MemoryCatalog) ListTests() []Test {
	return append([]Test(nil), c.tests...)
}

func (c *MemoryCatalog) ListTags() []Tag {
	return append([]Tag(nil), c.tags...)
}

// Seed returns the catalog contents in insertion order.
func (c *MemoryCatalog) Seed() Seed {
	return Seed{
		Tags:      append([]Tag(nil), c.tags...),
		Groups:    append([]QuestionGroup(nil), c.groups...),
		Questions: append([]Question(nil), c.questions...),
		Tests:     append([]Test(nil), c.tests...),
	}
}

// QuestionIDs projects questions onto their ids, preserving order.
func QuestionIDs(qs []Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
