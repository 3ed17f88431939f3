package grading

import (
	"github.com/mind-engage/mockprep/internal/analytics"
	"github.com/mind-engage/mockprep/internal/catalog"
)

type SubjectScore struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Correct   int    `json:"correct"`
	Attempted int    `json:"attempted"`
}

func (s SubjectScore) Percent() int { return analytics.Percent(s.Correct, s.Attempted) }

// SubjectBreakdown scores answers per subject of a subject-structured test.
// Each subject's pool is rebuilt with the same tag filter used when drawing,
// intersected with the session's answered question ids. Answers to questions
// outside questionIDs are ignored. Subjects with nothing attempted are left
// out. Non-subject tests yield nil.
func SubjectBreakdown(c catalog.Catalog, test catalog.Test, questionIDs []string, answers map[string]string) []SubjectScore {
	st, ok := test.Structure().(catalog.SubjectStructure)
	if !ok {
		return nil
	}

	answered := make([]string, 0, len(questionIDs))
	seen := make(map[string]bool, len(questionIDs))
	for _, qid := range questionIDs {
		if seen[qid] || answers[qid] == "" {
			continue
		}
		seen[qid] = true
		answered = append(answered, qid)
	}

	var out []SubjectScore
	for _, sub := range st.Subjects {
		score := SubjectScore{SubjectID: sub.ID, Name: sub.Name}
		for _, qid := range answered {
			q, ok := c.FindQuestionByID(qid)
			if !ok || !q.HasTags(sub.Tags) {
				continue
			}
			score.Attempted++
			if IsCorrect(q, answers[qid]) {
				score.Correct++
			}
		}
		if score.Attempted > 0 {
			out = append(out, score)
		}
	}
	return out
}
