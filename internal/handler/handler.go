package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/backend/internal/exam"
	appI18n "github.com/eduai/backend/internal/i18n"
	"github.com/eduai/backend/internal/model"
	"github.com/eduai/backend/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	service *exam.Service
}

// New creates a new Handler.
func New(s *store.Store, svc *exam.Service) *Handler {
	return &Handler{store: s, service: svc}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/auth/logout", h.handleLogout)
			r.Get("/me", h.handleMe)

			r.Post("/exams", h.handleCreateExam)
			r.Get("/exams", h.handleListExams)
			r.Get("/exams/{examID}", h.handleGetExam)
			r.Post("/exams/{examID}/submit", h.handleSubmitExam)
			r.Delete("/exams/{examID}", h.handleDeleteExam)
			r.Post("/exams/{examID}/evaluate", h.handleEvaluateAnswer)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createExamRequest struct {
	Title        string           `json:"title"`
	Subject      string           `json:"subject"`
	Topic        string           `json:"topic"`
	Difficulty   model.Difficulty `json:"difficulty"`
	ExamType     model.ExamType   `json:"exam_type"`
	NumQuestions int              `json:"num_questions"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	e, err := h.service.Create(r.Context(), user.ID, model.ExamParams{
		Title:        req.Title,
		Subject:      req.Subject,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		ExamType:     req.ExamType,
		NumQuestions: req.NumQuestions,
	})
	if errors.Is(err, exam.ErrInvalidParams) {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if err != nil {
		slog.Error("failed to create exam", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	writeJSON(w, http.StatusCreated, e.Redacted())
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	exams, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list exams", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	redacted := make([]model.Exam, 0, len(exams))
	for _, e := range exams {
		redacted = append(redacted, e.Redacted())
	}
	writeJSON(w, http.StatusOK, redacted)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	e, err := h.service.Get(r.Context(), chi.URLParam(r, "examID"), user.ID)
	if errors.Is(err, exam.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "ErrExamNotFound")
		return
	}
	if err != nil {
		slog.Error("failed to get exam", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	writeJSON(w, http.StatusOK, e.Redacted())
}

type submitExamRequest struct {
	Answers []model.Answer `json:"answers"`
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req submitExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	e, err := h.service.Submit(r.Context(), chi.URLParam(r, "examID"), user.ID, req.Answers)
	switch {
	case errors.Is(err, exam.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "ErrExamNotFound")
		return
	case errors.Is(err, exam.ErrAlreadyCompleted):
		writeError(w, r, http.StatusConflict, "ErrExamAlreadyCompleted")
		return
	case err != nil:
		slog.Error("failed to submit exam", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	// Completed exams are never redacted; the full key comes back with
	// the results.
	writeJSON(w, http.StatusOK, e.Redacted())
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	err := h.service.Delete(r.Context(), chi.URLParam(r, "examID"), user.ID)
	if errors.Is(err, exam.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "ErrExamNotFound")
		return
	}
	if err != nil {
		slog.Error("failed to delete exam", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type evaluateAnswerRequest struct {
	QuestionID string `json:"question_id"`
	AnswerText string `json:"answer_text"`
}

func (h *Handler) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req evaluateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == "" {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	result, err := h.service.EvaluateAnswer(r.Context(), chi.URLParam(r, "examID"), user.ID, req.QuestionID, req.AnswerText)
	if errors.Is(err, exam.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "ErrExamNotFound")
		return
	}
	if err != nil {
		slog.Error("failed to evaluate answer", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error": appI18n.T(r.Context(), msgID)})
}
