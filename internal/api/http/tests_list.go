package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mockprep/internal/catalog"
)

// GET /tests?q=...&limit=50&offset=0
func ListTestsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		list := make([]catalog.Test, 0)
		for _, t := range svc.ListTests() {
			if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
				continue
			}
			list = append(list, t)
		}
		if offset >= len(list) {
			list = list[:0]
		} else {
			list = list[offset:]
		}
		if limit > 0 && len(list) > limit {
			list = list[:limit]
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /tests/{testID}/history
func TestHistoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetTestHistory(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

// GET /summary
func SummaryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetUserSummary(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
