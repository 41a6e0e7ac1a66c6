package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appI18n "github.com/eduai/backend/internal/i18n"
	"github.com/eduai/backend/internal/llm"
	"github.com/eduai/backend/internal/model"
	"github.com/eduai/backend/internal/store"
)

var (
	// ErrNotFound is returned when no exam matches (examID, userID).
	ErrNotFound = errors.New("exam not found")
	// ErrAlreadyCompleted is returned on submit against a completed exam.
	ErrAlreadyCompleted = errors.New("exam already completed")
	// ErrInvalidParams is returned for unusable exam parameters.
	ErrInvalidParams = errors.New("invalid exam parameters")
)

const (
	defaultNumQuestions = 5
	maxNumQuestions     = 50
)

// Config holds runtime service parameters.
type Config struct {
	// CreateTimeout bounds the AI call during exam creation. Zero means
	// no timeout.
	CreateTimeout time.Duration
	// Language is recorded on created exams for client display purposes.
	Language string
}

// Service orchestrates creation, retrieval, submission, and deletion of
// exams. It holds a transient working copy of an exam during an operation
// and reconciles it back to the store; the store owns the persisted state.
type Service struct {
	store    *store.Store
	provider llm.Provider
	grader   *Grader
	config   Config
}

// NewService creates an exam service.
func NewService(st *store.Store, provider llm.Provider, cfg Config) *Service {
	return &Service{
		store:    st,
		provider: provider,
		grader:   NewGrader(provider),
		config:   cfg,
	}
}

// Create generates a new exam for the user: prompt, AI call, parse, persist
// in in_progress state with empty answers and results. An unreachable AI or
// an unparseable reply degrades to the placeholder question set rather than
// failing; the returned exam's Degraded flag reports that.
func (s *Service) Create(ctx context.Context, userID int64, params model.ExamParams) (model.Exam, error) {
	params, err := normalizeParams(params)
	if err != nil {
		return model.Exam{}, err
	}

	cctx := ctx
	if s.config.CreateTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.config.CreateTimeout)
		defer cancel()
	}

	var questions []model.Question
	var degraded bool

	reply, err := s.provider.Complete(cctx, BuildGenerationPrompt(params))
	if err != nil {
		slog.Warn("AI question generation failed, using placeholder",
			"subject", params.Subject, "exam_type", params.ExamType, "error", err)
		questions, degraded = placeholderQuestions(params.ExamType), true
	} else {
		questions, degraded = ParseQuestions(reply, params.ExamType)
	}

	now := time.Now()
	e := model.Exam{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      params.Title,
		Subject:    params.Subject,
		Topic:      params.Topic,
		Difficulty: params.Difficulty,
		ExamType:   params.ExamType,
		Status:     model.StatusInProgress,
		Degraded:   degraded,
		Language:   s.config.Language,
		Questions:  questions,
		MaxScore:   model.ComputeMaxScore(params.ExamType, questions),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateExam(e); err != nil {
		return model.Exam{}, fmt.Errorf("persist exam: %w", err)
	}

	slog.Info("created exam",
		"exam_id", e.ID, "user_id", userID, "exam_type", e.ExamType,
		"questions", len(questions), "max_score", e.MaxScore, "degraded", degraded)
	return e, nil
}

// Get returns the exam for (examID, userID).
func (s *Service) Get(_ context.Context, examID string, userID int64) (model.Exam, error) {
	e, err := s.store.GetExam(examID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, ErrNotFound
	}
	if err != nil {
		return model.Exam{}, fmt.Errorf("load exam: %w", err)
	}
	return e, nil
}

// List returns all exams owned by the user, newest first.
func (s *Service) List(_ context.Context, userID int64) ([]model.Exam, error) {
	exams, err := s.store.ListExams(userID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Submit grades the answer set against the exam's questions, persists the
// answers and results, and transitions the exam to completed. The transition
// is one-shot: the store update is conditional on in_progress status, so a
// repeated or racing submission gets ErrAlreadyCompleted.
func (s *Service) Submit(ctx context.Context, examID string, userID int64, answers []model.Answer) (model.Exam, error) {
	e, err := s.Get(ctx, examID, userID)
	if err != nil {
		return model.Exam{}, err
	}
	if e.Status != model.StatusInProgress {
		return model.Exam{}, ErrAlreadyCompleted
	}

	results := s.grader.Grade(gradingContext(ctx, e.Language), e.ExamType, e.Questions, answers)

	e.Answers = answers
	e.Results = &results

	updated, err := s.store.CompleteExam(e)
	if err != nil {
		return model.Exam{}, fmt.Errorf("persist results: %w", err)
	}
	if !updated {
		return model.Exam{}, ErrAlreadyCompleted
	}

	e.Status = model.StatusCompleted
	e.UpdatedAt = time.Now()

	slog.Info("graded exam",
		"exam_id", e.ID, "user_id", userID, "score", results.TotalScore,
		"max_score", results.MaxScore, "percentage", results.Percentage)
	return e, nil
}

// Delete removes the exam entirely; irreversible.
func (s *Service) Delete(_ context.Context, examID string, userID int64) error {
	deleted, err := s.store.DeleteExam(examID, userID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// EvaluateAnswer grades a single answer against one of the exam's questions
// without submitting the exam. Practice-mode helper; no state transition.
func (s *Service) EvaluateAnswer(ctx context.Context, examID string, userID int64, questionID, answerText string) (model.QuestionResult, error) {
	e, err := s.Get(ctx, examID, userID)
	if err != nil {
		return model.QuestionResult{}, err
	}

	for _, q := range e.Questions {
		if q.ID != questionID {
			continue
		}
		answers := []model.Answer{{QuestionID: questionID, AnswerText: answerText}}
		results := s.grader.Grade(gradingContext(ctx, e.Language), e.ExamType, []model.Question{q}, answers)
		return results.QuestionResults[0], nil
	}
	return model.QuestionResult{}, ErrNotFound
}

// gradingContext installs a localizer for the exam's language so grading
// feedback comes out in the language the exam was created with, regardless
// of the submitting request's Accept-Language.
func gradingContext(ctx context.Context, lang string) context.Context {
	if lang == "" {
		lang = "en"
	}
	return appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang, "en"))
}

func normalizeParams(p model.ExamParams) (model.ExamParams, error) {
	if p.Subject == "" {
		return p, fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	switch p.ExamType {
	case model.ExamTypeMCQ, model.ExamTypeWritten:
	default:
		return p, fmt.Errorf("%w: unknown exam type %q", ErrInvalidParams, p.ExamType)
	}
	if p.NumQuestions <= 0 {
		p.NumQuestions = defaultNumQuestions
	}
	if p.NumQuestions > maxNumQuestions {
		return p, fmt.Errorf("%w: at most %d questions per exam", ErrInvalidParams, maxNumQuestions)
	}
	if p.Difficulty == "" {
		p.Difficulty = model.DifficultyMedium
	}
	if p.Title == "" {
		p.Title = p.Subject + " Exam"
	}
	return p, nil
}
