package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
}

// POST /tests/{testID}/sessions  body {"session_id": "..."} optional
func CreateSessionHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := decodeBody(r, &req, true); err != nil {
			badRequest(w, err)
			return
		}
		asm, err := svc.CreateOrResumeSession(r.Context(), chi.URLParam(r, "testID"), req.SessionID)
		if err != nil {
			respondError(w, err)
			return
		}
		status := http.StatusCreated
		if asm.Resumed {
			status = http.StatusOK
		}
		respondJSON(w, status, asm)
	}
}

// GET /sessions/{sessionID}/questions
func SessionQuestionsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.GetSessionQuestions(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, qs)
	}
}

// GET /sessions/{sessionID}/groups
func SessionGroupsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, err := svc.GetSessionGroups(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, gs)
	}
}
