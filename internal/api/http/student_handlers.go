package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mockprep/internal/exam"
)

// POST /sessions/{sessionID}/attempts
func StartAttemptHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.StartAttempt(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, a)
	}
}

// GET /sessions/{sessionID}/attempts/current
func CurrentAttemptHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok, err := svc.CurrentAttempt(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, err)
			return
		}
		if !ok {
			respondJSON(w, http.StatusNotFound, errorBody{Error: "no attempt in progress"})
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}

type recordAnswerRequest struct {
	ChoiceID string `json:"choice_id" validate:"required"`
}

// PUT /attempts/{attemptID}/answers/{questionID}
func RecordAnswerHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordAnswerRequest
		if err := decodeBody(r, &req, false); err != nil {
			badRequest(w, err)
			return
		}
		a, err := svc.RecordAnswer(r.Context(), chi.URLParam(r, "attemptID"), chi.URLParam(r, "questionID"), req.ChoiceID)
		if err != nil {
			respondAttemptError(w, a, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}

type answersRequest struct {
	Answers map[string]string `json:"answers" validate:"omitempty,dive,keys,required,endkeys"`
}

// PUT /attempts/{attemptID}/answers  body {"answers": {"q1": "q1c2"}}
func SaveAnswersHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answersRequest
		if err := decodeBody(r, &req, false); err != nil {
			badRequest(w, err)
			return
		}
		a, err := svc.SaveAnswers(r.Context(), chi.URLParam(r, "attemptID"), req.Answers)
		if err != nil {
			respondAttemptError(w, a, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/complete  body {"answers": {...}} optional
func CompleteAttemptHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answersRequest
		if err := decodeBody(r, &req, true); err != nil {
			badRequest(w, err)
			return
		}
		c, err := svc.CompleteAttempt(r.Context(), chi.URLParam(r, "attemptID"), req.Answers)
		if err != nil {
			if errors.Is(err, exam.ErrAlreadyCompleted) {
				// the stored result stands; hand it back alongside the conflict
				respondJSON(w, http.StatusConflict, struct {
					errorBody
					Result any `json:"result"`
				}{errorBody{Error: err.Error()}, c})
				return
			}
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// respondAttemptError returns the persisted attempt with a 409 when it is
// already completed.
func respondAttemptError(w http.ResponseWriter, a exam.Attempt, err error) {
	if errors.Is(err, exam.ErrAlreadyCompleted) {
		respondJSON(w, http.StatusConflict, struct {
			errorBody
			Result exam.Attempt `json:"result"`
		}{errorBody{Error: err.Error()}, a})
		return
	}
	respondError(w, err)
}
