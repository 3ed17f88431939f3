package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field constraints and cross references of a seed and
// returns every problem found, joined.
func Validate(seed Seed) error {
	var errs []error
	if err := validate.Struct(seed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	tags := map[string]bool{}
	for _, t := range seed.Tags {
		if tags[t.ID] {
			errs = append(errs, fmt.Errorf("tag %q: duplicate id", t.ID))
		}
		tags[t.ID] = true
	}
	names := map[string]string{}
	for _, t := range seed.Tags {
		if other, ok := names[t.Name]; ok && other != t.ID {
			errs = append(errs, fmt.Errorf("tag %q: name %q already used by %q", t.ID, t.Name, other))
		}
		names[t.Name] = t.ID
	}

	groups := map[string]QuestionGroup{}
	for _, g := range seed.Groups {
		if _, dup := groups[g.ID]; dup {
			errs = append(errs, fmt.Errorf("group %q: duplicate id", g.ID))
		}
		groups[g.ID] = g
	}

	questions := map[string]Question{}
	for _, q := range seed.Questions {
		if _, dup := questions[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %q: duplicate id", q.ID))
		}
		questions[q.ID] = q
		if q.CorrectChoiceID != "" && !q.HasChoice(q.CorrectChoiceID) {
			errs = append(errs, fmt.Errorf("question %q: correct choice %q is not one of its choices", q.ID, q.CorrectChoiceID))
		}
		seen := map[string]bool{}
		for _, c := range q.Choices {
			if seen[c.ID] {
				errs = append(errs, fmt.Errorf("question %q: duplicate choice id %q", q.ID, c.ID))
			}
			seen[c.ID] = true
		}
		for _, tid := range q.Tags {
			if !tags[tid] {
				errs = append(errs, fmt.Errorf("question %q: unknown tag %q", q.ID, tid))
			}
		}
		if q.GroupID != "" {
			g, ok := groups[q.GroupID]
			if !ok {
				errs = append(errs, fmt.Errorf("question %q: unknown group %q", q.ID, q.GroupID))
			} else if !contains(g.QuestionIDs, q.ID) {
				errs = append(errs, fmt.Errorf("question %q: not listed by its group %q", q.ID, q.GroupID))
			}
		}
	}

	for _, g := range seed.Groups {
		for _, qid := range g.QuestionIDs {
			q, ok := questions[qid]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("group %q: unknown question %q", g.ID, qid))
			case q.GroupID != g.ID:
				errs = append(errs, fmt.Errorf("group %q: question %q points at group %q", g.ID, qid, q.GroupID))
			}
		}
	}

	testIDs := map[string]bool{}
	for _, t := range seed.Tests {
		if testIDs[t.ID] {
			errs = append(errs, fmt.Errorf("test %q: duplicate id", t.ID))
		}
		testIDs[t.ID] = true
		if len(t.Subjects) > 0 && (len(t.Tags) > 0 || t.QuestionCount > 0) {
			errs = append(errs, fmt.Errorf("test %q: subjects and flat tags/question_count are mutually exclusive", t.ID))
		}
		for _, tid := range t.Tags {
			if !tags[tid] {
				errs = append(errs, fmt.Errorf("test %q: unknown tag %q", t.ID, tid))
			}
		}
		subjects := map[string]bool{}
		for _, s := range t.Subjects {
			if subjects[s.ID] {
				errs = append(errs, fmt.Errorf("test %q: duplicate subject id %q", t.ID, s.ID))
			}
			subjects[s.ID] = true
			for _, tid := range s.Tags {
				if !tags[tid] {
					errs = append(errs, fmt.Errorf("test %q subject %q: unknown tag %q", t.ID, s.ID, tid))
				}
			}
		}
		for _, qid := range t.AllQuestionIDs {
			if _, ok := questions[qid]; !ok {
				errs = append(errs, fmt.Errorf("test %q: unknown question %q", t.ID, qid))
			}
		}
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
