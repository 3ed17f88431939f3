package catalog

type Choice struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Text string `json:"text" yaml:"text"`
}

type Question struct {
	ID              string   `json:"id" yaml:"id" validate:"required"`
	Text            string   `json:"text" yaml:"text" validate:"required"`
	Choices         []Choice `json:"choices" yaml:"choices" validate:"min=2,dive"`
	CorrectChoiceID string   `json:"correct_choice_id,omitempty" yaml:"correct_choice_id" validate:"required"`
	Explanation     string   `json:"explanation,omitempty" yaml:"explanation"`
	Tags            []string `json:"tags" yaml:"tags"`
	ImageURL        string   `json:"image_url,omitempty" yaml:"image_url"`
	GroupID         string   `json:"group_id,omitempty" yaml:"group_id"` // back-reference, the group owns membership
}

// HasTags reports whether q carries every tag in tags. An empty set matches.
func (q Question) HasTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range q.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (q Question) HasChoice(id string) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Redacted strips the answer key and explanation for delivery to a test taker.
func (q Question) Redacted() Question {
	q.CorrectChoiceID = ""
	q.Explanation = ""
	return q
}

// QuestionGroup is a shared stimulus (passage, figure) rendered once for its members.
type QuestionGroup struct {
	ID                string   `json:"id" yaml:"id" validate:"required"`
	Title             string   `json:"title,omitempty" yaml:"title"`
	ReferenceText     string   `json:"reference_text,omitempty" yaml:"reference_text"`
	ReferenceImageURL string   `json:"reference_image_url,omitempty" yaml:"reference_image_url"`
	QuestionIDs       []string `json:"question_ids" yaml:"question_ids"`
}

type Tag struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

type TestSubject struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Tags          []string `json:"tags" yaml:"tags"`
	QuestionCount int      `json:"question_count" yaml:"question_count" validate:"gte=0"`
}

// Test is a test definition. Subjects, the flat Tags/QuestionCount pair and
// AllQuestionIDs are alternative structures; see Structure.
type Test struct {
	ID             string        `json:"id" yaml:"id" validate:"required"`
	Title          string        `json:"title" yaml:"title" validate:"required"`
	Description    string        `json:"description,omitempty" yaml:"description"`
	ImageURL       string        `json:"image_url,omitempty" yaml:"image_url"`
	AllQuestionIDs []string      `json:"all_question_ids,omitempty" yaml:"all_question_ids"`
	Duration       int           `json:"duration,omitempty" yaml:"duration" validate:"gte=0"` // minutes, 0 = untimed
	Subjects       []TestSubject `json:"subjects,omitempty" yaml:"subjects" validate:"omitempty,dive"`
	Tags           []string      `json:"tags,omitempty" yaml:"tags"`
	QuestionCount  int           `json:"question_count,omitempty" yaml:"question_count" validate:"gte=0"`
}

// Structure is the tagged variant describing how a Test draws its questions.
// Exactly one of FlatStructure, SubjectStructure or LegacyStructure.
type Structure interface {
	mode() string
}

type FlatStructure struct {
	Tags          []string
	QuestionCount int
}

type SubjectStructure struct {
	Subjects []TestSubject
}

// LegacyStructure serves AllQuestionIDs verbatim.
type LegacyStructure struct {
	QuestionIDs []string
}

func (FlatStructure) mode() string    { return "flat" }
func (SubjectStructure) mode() string { return "subjects" }
func (LegacyStructure) mode() string  { return "legacy" }

// Mode names the structure for logs and metrics.
func Mode(s Structure) string { return s.mode() }

func (t Test) Structure() Structure {
	switch {
	case len(t.Subjects) > 0:
		return SubjectStructure{Subjects: t.Subjects}
	case len(t.Tags) > 0 && t.QuestionCount > 0:
		return FlatStructure{Tags: t.Tags, QuestionCount: t.QuestionCount}
	default:
		return LegacyStructure{QuestionIDs: t.AllQuestionIDs}
	}
}

// Subject returns the subject with id, if the test is subject-structured.
func (t Test) Subject(id string) (TestSubject, bool) {
	for _, s := range t.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return TestSubject{}, false
}

// Seed is the on-disk / on-wire shape of a whole catalog.
type Seed struct {
	Tags      []Tag           `json:"tags" yaml:"tags" validate:"omitempty,dive"`
	Groups    []QuestionGroup `json:"groups" yaml:"groups" validate:"omitempty,dive"`
	Questions []Question      `json:"questions" yaml:"questions" validate:"omitempty,dive"`
	Tests     []Test          `json:"tests" yaml:"tests" validate:"omitempty,dive"`
}
