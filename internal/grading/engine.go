package grading

import (
	"github.com/mind-engage/mockprep/internal/analytics"
	"github.com/mind-engage/mockprep/internal/catalog"
)

// QuestionResult is the review line for one question of a scored attempt.
type QuestionResult struct {
	QuestionID      string `json:"question_id"`
	ChosenChoiceID  string `json:"chosen_choice_id,omitempty"`
	CorrectChoiceID string `json:"correct_choice_id,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
	Answered        bool   `json:"answered"`
	Correct         bool   `json:"correct"`
	Missing         bool   `json:"missing,omitempty"` // id no longer in the catalog
}

// Result is the outcome of scoring an answer sheet against a question list.
type Result struct {
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

func (r Result) Percent() int { return analytics.Percent(r.Correct, r.Total) }

// Score grades answers against questionIDs, in order. Total is always
// len(questionIDs); unanswered, unknown-choice and missing questions score 0.
func Score(c catalog.Catalog, questionIDs []string, answers map[string]string) Result {
	res := Result{Total: len(questionIDs), Questions: make([]QuestionResult, 0, len(questionIDs))}
	for _, id := range questionIDs {
		qr := QuestionResult{QuestionID: id}
		chosen, answered := answers[id]
		qr.Answered = answered && chosen != ""
		qr.ChosenChoiceID = chosen

		q, ok := c.FindQuestionByID(id)
		if !ok {
			qr.Missing = true
			res.Questions = append(res.Questions, qr)
			continue
		}
		qr.CorrectChoiceID = q.CorrectChoiceID
		qr.Explanation = q.Explanation
		if IsCorrect(q, chosen) {
			qr.Correct = true
			res.Correct++
		}
		res.Questions = append(res.Questions, qr)
	}
	return res
}

// IsCorrect compares a chosen choice id with the question's key. An empty
// choice never matches, even against a malformed question with no key.
func IsCorrect(q catalog.Question, choiceID string) bool {
	return choiceID != "" && choiceID == q.CorrectChoiceID
}
