package http

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/engine"
	"github.com/mind-engage/mockprep/internal/exam"
	"github.com/mind-engage/mockprep/internal/history"
)

// Service is the engine surface the handlers need. *engine.Engine implements it.
type Service interface {
	ListTests() []catalog.Test
	CreateOrResumeSession(ctx context.Context, testID, existingSessionID string) (exam.Assembly, error)
	GetSessionQuestions(ctx context.Context, sessionID string) ([]catalog.Question, error)
	GetSessionGroups(ctx context.Context, sessionID string) ([]catalog.QuestionGroup, error)

	StartAttempt(ctx context.Context, sessionID string) (exam.Attempt, error)
	CurrentAttempt(ctx context.Context, sessionID string) (exam.Attempt, bool, error)
	RecordAnswer(ctx context.Context, attemptID, questionID, choiceID string) (exam.Attempt, error)
	SaveAnswers(ctx context.Context, attemptID string, answers exam.Answers) (exam.Attempt, error)
	CompleteAttempt(ctx context.Context, attemptID string, answers exam.Answers) (engine.Completion, error)
	GetAttempt(ctx context.Context, attemptID string) (engine.Completion, error)

	GetTestHistory(ctx context.Context, testID string) (history.HistoryView, error)
	GetUserSummary(ctx context.Context) (history.SummaryView, error)
}

var _ Service = (*engine.Engine)(nil)

// Mount registers the API routes on r.
func Mount(r chi.Router, svc Service) {
	r.Get("/tests", ListTestsHandler(svc))
	r.Get("/tests/{testID}/history", TestHistoryHandler(svc))
	r.Post("/tests/{testID}/sessions", CreateSessionHandler(svc))

	r.Get("/sessions/{sessionID}/questions", SessionQuestionsHandler(svc))
	r.Get("/sessions/{sessionID}/groups", SessionGroupsHandler(svc))
	r.Post("/sessions/{sessionID}/attempts", StartAttemptHandler(svc))
	r.Get("/sessions/{sessionID}/attempts/current", CurrentAttemptHandler(svc))

	r.Get("/attempts/{attemptID}", GetAttemptHandler(svc))
	r.Put("/attempts/{attemptID}/answers", SaveAnswersHandler(svc))
	r.Put("/attempts/{attemptID}/answers/{questionID}", RecordAnswerHandler(svc))
	r.Post("/attempts/{attemptID}/complete", CompleteAttemptHandler(svc))

	r.Get("/summary", SummaryHandler(svc))
}
