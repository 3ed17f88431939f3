package exam

import "time"

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Session is a frozen draw of questions for one test. It is never mutated
// after creation; repeat attempts reuse it.
type Session struct {
	ID               string    `json:"id"`
	TestID           string    `json:"test_id"`
	QuestionIDs      []string  `json:"question_ids"`
	QuestionGroupIDs []string  `json:"question_group_ids"`
	StartedAt        time.Time `json:"started_at"`
}

func (s Session) clone() Session {
	s.QuestionIDs = copyIDs(s.QuestionIDs)
	s.QuestionGroupIDs = copyIDs(s.QuestionGroupIDs)
	return s
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Answers maps question id to chosen choice id.
type Answers map[string]string

func (a Answers) clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// merge overlays src onto a copy of a.
func (a Answers) merge(src Answers) Answers {
	out := a.clone()
	for k, v := range src {
		out[k] = v
	}
	return out
}

type Attempt struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	Status         Status     `json:"status"` // in-progress|completed
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Answers        Answers    `json:"answers"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func (a Attempt) Completed() bool { return a.Status == StatusCompleted }

// Duration is the time between start and completion; ok is false while in progress.
func (a Attempt) Duration() (time.Duration, bool) {
	if a.CompletedAt == nil {
		return 0, false
	}
	return a.CompletedAt.Sub(a.StartedAt), true
}

func (a Attempt) clone() Attempt {
	a.Answers = a.Answers.clone()
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		a.CompletedAt = &t
	}
	return a
}
