package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mockprep/internal/catalog"
)

func sampleCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	return catalog.NewMemoryCatalog(catalog.Sample())
}

func TestSampleLoads(t *testing.T) {
	seed := catalog.Sample()
	assert.Len(t, seed.Tags, 5)
	assert.Len(t, seed.Groups, 1)
	assert.Len(t, seed.Questions, 7)
	assert.Len(t, seed.Tests, 4)
	require.NoError(t, catalog.Validate(seed))
}

func TestFindQuestionsByTags(t *testing.T) {
	c := sampleCatalog(t)

	t.Run("AND semantics in catalog order", func(t *testing.T) {
		assert.Equal(t, []string{"q1", "q2", "q5"}, catalog.QuestionIDs(c.FindQuestionsByTags([]string{"t1"})))
		assert.Equal(t, []string{"q5"}, catalog.QuestionIDs(c.FindQuestionsByTags([]string{"t1", "t3"})))
		assert.Equal(t, []string{"q5"}, catalog.QuestionIDs(c.FindQuestionsByTags([]string{"t3", "t1"})))
	})
	t.Run("no match is empty, not nil", func(t *testing.T) {
		got := c.FindQuestionsByTags([]string{"t2", "t4"})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
	t.Run("empty tag set matches everything", func(t *testing.T) {
		assert.Len(t, c.FindQuestionsByTags(nil), 7)
	})
}

func TestLookups(t *testing.T) {
	c := sampleCatalog(t)

	q, ok := c.FindQuestionByID("q4")
	require.True(t, ok)
	assert.Equal(t, "q4c3", q.CorrectChoiceID)

	_, ok = c.FindQuestionByID("nope")
	assert.False(t, ok)
	_, ok = c.FindTestByID("nope")
	assert.False(t, ok)
	_, ok = c.FindGroupByID("nope")
	assert.False(t, ok)
	assert.Empty(t, c.FindQuestionsInGroup("nope"))

	g, ok := c.FindGroupByID("g1")
	require.True(t, ok)
	assert.Equal(t, []string{"q6", "q7"}, g.QuestionIDs)
	assert.Equal(t, []string{"q6", "q7"}, catalog.QuestionIDs(c.FindQuestionsInGroup("g1")))

	tag, ok := c.FindTagByID("t5")
	require.True(t, ok)
	assert.Equal(t, "Reading Comprehension", tag.Name)

	var ids []string
	for _, tt := range c.ListTests() {
		ids = append(ids, tt.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestLaterDuplicateReplacesInPlace(t *testing.T) {
	c := catalog.NewMemoryCatalog(catalog.Seed{
		Tags: []catalog.Tag{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "a", Name: "A2"}},
	})
	tags := c.ListTags()
	require.Len(t, tags, 2)
	assert.Equal(t, "A2", tags[0].Name)
	assert.Equal(t, "b", tags[1].ID)
}

func TestTestStructure(t *testing.T) {
	c := sampleCatalog(t)
	cases := map[string]string{"1": "flat", "2": "flat", "3": "subjects", "4": "legacy"}
	for id, want := range cases {
		tt, ok := c.FindTestByID(id)
		require.True(t, ok, id)
		assert.Equal(t, want, catalog.Mode(tt.Structure()), id)
	}

	tt, _ := c.FindTestByID("3")
	st, ok := tt.Structure().(catalog.SubjectStructure)
	require.True(t, ok)
	assert.Len(t, st.Subjects, 2)

	sub, ok := tt.Subject("s2")
	require.True(t, ok)
	assert.Equal(t, 2, sub.QuestionCount)
	_, ok = tt.Subject("s9")
	assert.False(t, ok)

	legacy, _ := c.FindTestByID("4")
	assert.Equal(t, catalog.LegacyStructure{QuestionIDs: []string{"q3", "q4", "q5"}}, legacy.Structure())

	t.Run("a count without tags keeps the test's own question list", func(t *testing.T) {
		tt := catalog.Test{ID: "x", Title: "X", AllQuestionIDs: []string{"q1", "q2"}, QuestionCount: 1}
		assert.Equal(t, catalog.LegacyStructure{QuestionIDs: []string{"q1", "q2"}}, tt.Structure())
	})
}

func TestRedacted(t *testing.T) {
	c := sampleCatalog(t)
	q, _ := c.FindQuestionByID("q1")
	r := q.Redacted()
	assert.Empty(t, r.CorrectChoiceID)
	assert.Empty(t, r.Explanation)
	assert.Equal(t, q.Choices, r.Choices)
	assert.Equal(t, "q1c2", q.CorrectChoiceID, "original untouched")
}
