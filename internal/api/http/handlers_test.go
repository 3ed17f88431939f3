package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mockprep/internal/api/http"
	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/engine"
	"github.com/mind-engage/mockprep/internal/exam"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng := engine.New(catalog.NewMemoryCatalog(catalog.Sample()), exam.NewInMemoryStore())
	r := chi.NewRouter()
	api.Mount(r, eng)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestTakeTestOverHTTP(t *testing.T) {
	srv := newServer(t)

	var asm exam.Assembly
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/tests/3/sessions", "", &asm))
	require.Len(t, asm.Session.QuestionIDs, 3)
	sessID := asm.Session.ID

	var resumed exam.Assembly
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/tests/3/sessions", `{"session_id":"`+sessID+`"}`, &resumed))
	assert.True(t, resumed.Resumed)
	assert.Equal(t, asm.Session.QuestionIDs, resumed.Session.QuestionIDs)

	var raw []map[string]any
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sessions/"+sessID+"/questions", "", &raw))
	require.Len(t, raw, 3)
	for i, q := range raw {
		assert.Equal(t, asm.Session.QuestionIDs[i], q["id"])
		assert.NotContains(t, q, "correct_choice_id")
	}

	var groups []catalog.QuestionGroup
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sessions/"+sessID+"/groups", "", &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)

	var a exam.Attempt
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/sessions/"+sessID+"/attempts", "", &a))
	assert.Equal(t, exam.StatusInProgress, a.Status)

	var cur exam.Attempt
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sessions/"+sessID+"/attempts/current", "", &cur))
	assert.Equal(t, a.ID, cur.ID)

	var rec exam.Attempt
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/attempts/"+a.ID+"/answers/q4", `{"choice_id":"q4c3"}`, &rec))
	assert.Equal(t, "q4c3", rec.Answers["q4"])
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/attempts/"+a.ID+"/answers", `{"answers":{"q6":"q6c1"}}`, &rec))
	assert.Len(t, rec.Answers, 2)

	var done engine.Completion
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/attempts/"+a.ID+"/complete", `{"answers":{"q7":"q7c2"}}`, &done))
	assert.Equal(t, exam.StatusCompleted, done.Attempt.Status)
	assert.Equal(t, 3, done.Attempt.Score)
	assert.Equal(t, 100, done.Percent)
	require.NotNil(t, done.Review)
	assert.Len(t, done.Review.Questions, 3)

	var conflict struct {
		Error  string            `json:"error"`
		Result engine.Completion `json:"result"`
	}
	require.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/attempts/"+a.ID+"/complete", "", &conflict))
	assert.NotEmpty(t, conflict.Error)
	assert.Equal(t, 3, conflict.Result.Attempt.Score)
	assert.Equal(t, 100, conflict.Result.Percent)

	var late struct {
		Error  string       `json:"error"`
		Result exam.Attempt `json:"result"`
	}
	require.Equal(t, http.StatusConflict, do(t, srv, http.MethodPut, "/attempts/"+a.ID+"/answers/q4", `{"choice_id":"q4c1"}`, &late))
	assert.Equal(t, "q4c3", late.Result.Answers["q4"])

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/sessions/"+sessID+"/attempts/current", "", &errBody))

	var got engine.Completion
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/attempts/"+a.ID, "", &got))
	assert.Equal(t, 100, got.Percent)

	var hist struct {
		Sessions []json.RawMessage `json:"sessions"`
		Stats    struct {
			Attempts     int `json:"attempts"`
			HighestScore int `json:"highest_score"`
		} `json:"stats"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tests/3/history", "", &hist))
	assert.Len(t, hist.Sessions, 1)
	assert.Equal(t, 1, hist.Stats.Attempts)
	assert.Equal(t, 100, hist.Stats.HighestScore)

	var sum struct {
		TotalCompletedTests int `json:"total_completed_tests"`
		AverageScoreGlobal  int `json:"average_score_global"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/summary", "", &sum))
	assert.Equal(t, 1, sum.TotalCompletedTests)
	assert.Equal(t, 100, sum.AverageScoreGlobal)
}

func TestListTests(t *testing.T) {
	srv := newServer(t)

	var all []catalog.Test
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tests", "", &all))
	assert.Len(t, all, 4)

	var web []catalog.Test
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tests?q=WEB", "", &web))
	require.Len(t, web, 1)
	assert.Equal(t, "1", web[0].ID)

	var page []catalog.Test
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tests?limit=2&offset=3", "", &page))
	assert.Len(t, page, 1)

	var none []catalog.Test
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tests?offset=10", "", &none))
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestErrorStatuses(t *testing.T) {
	srv := newServer(t)
	var body map[string]string

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/tests/404/sessions", "", &body))
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/sessions/nope/attempts", "", &body))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/attempts/nope", "", &body))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/attempts/nope/complete", "", &body))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/tests/1/sessions", "{", &body))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/attempts/nope/answers/q1", `{}`, &body))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/attempts/nope/answers", "", &body))

	var qs []catalog.Question
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sessions/nope/questions", "", &qs))
	assert.Empty(t, qs)
}
