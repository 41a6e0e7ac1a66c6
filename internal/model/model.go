package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ExamType represents the question format of an exam.
type ExamType string

const (
	ExamTypeMCQ     ExamType = "mcq"
	ExamTypeWritten ExamType = "written"
)

// ExamStatus represents the lifecycle status of an exam.
type ExamStatus string

const (
	StatusInProgress ExamStatus = "in_progress"
	StatusCompleted  ExamStatus = "completed"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MCQOption is one of the four choices on a multiple-choice question.
type MCQOption struct {
	OptionID  string `json:"option_id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is one assessment item. MCQ questions carry options, a correct
// option ID and an explanation; written questions carry a point allocation
// and a sample answer used only as a grading reference.
type Question struct {
	ID            string      `json:"id"`
	QuestionText  string      `json:"question_text"`
	Options       []MCQOption `json:"options,omitempty"`
	CorrectAnswer string      `json:"correct_answer,omitempty"`
	Explanation   string      `json:"explanation,omitempty"`
	MaxPoints     int         `json:"max_points,omitempty"`
	SampleAnswer  string      `json:"sample_answer,omitempty"`
}

// Answer is one user response, immutable once submitted.
type Answer struct {
	QuestionID string `json:"question_id"`
	AnswerText string `json:"answer_text"`
}

// QuestionResult is the graded outcome for a single question.
type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	AnswerText string  `json:"answer_text"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
	Score      float64 `json:"score"`
	MaxPoints  int     `json:"max_points"`
	Feedback   string  `json:"feedback"`
}

// Results is the graded outcome of an exam submission. Computed exactly
// once, at submission time.
type Results struct {
	TotalScore      float64          `json:"total_score"`
	MaxScore        float64          `json:"max_score"`
	Percentage      float64          `json:"percentage"`
	ExamType        ExamType         `json:"exam_type"`
	QuestionResults []QuestionResult `json:"question_results"`
}

// Exam represents one generated assessment bound to a single user.
type Exam struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Title      string     `json:"title"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	ExamType   ExamType   `json:"exam_type"`
	Status     ExamStatus `json:"status"`
	// Degraded is set when the AI reply could not be parsed and the
	// placeholder question set was substituted.
	Degraded  bool       `json:"degraded"`
	Language  string     `json:"language,omitempty"`
	Questions []Question `json:"questions"`
	Answers   []Answer   `json:"answers,omitempty"`
	Results   *Results   `json:"results,omitempty"`
	MaxScore  float64    `json:"max_score"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ExamParams holds the caller-supplied parameters for exam generation.
type ExamParams struct {
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	Topic        string     `json:"topic"`
	Difficulty   Difficulty `json:"difficulty"`
	ExamType     ExamType   `json:"exam_type"`
	NumQuestions int        `json:"num_questions"`
}

// ExamExport is the JSON envelope written by the export command: all of one
// user's exams with their questions, answers, and results.
type ExamExport struct {
	Username   string    `json:"username"`
	UserID     int64     `json:"user_id"`
	ExportedAt time.Time `json:"exported_at"`
	ExamCount  int       `json:"exam_count"`
	Exams      []Exam    `json:"exams"`
}

// Redacted returns a copy of the exam with the answer key stripped while
// the exam is still in progress. Completed exams are returned as-is so the
// student can review correct answers and explanations.
func (e Exam) Redacted() Exam {
	if e.Status == StatusCompleted {
		return e
	}
	questions := make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		rq := Question{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			MaxPoints:    q.MaxPoints,
		}
		for _, opt := range q.Options {
			rq.Options = append(rq.Options, MCQOption{
				OptionID: opt.OptionID,
				Text:     opt.Text,
			})
		}
		questions[i] = rq
	}
	e.Questions = questions
	return e
}

// ComputeMaxScore derives the maximum attainable score from a question
// sequence: one point per MCQ question, the sum of point allocations for
// written questions.
func ComputeMaxScore(examType ExamType, questions []Question) float64 {
	if examType == ExamTypeMCQ {
		return float64(len(questions))
	}
	var total float64
	for _, q := range questions {
		total += float64(q.MaxPoints)
	}
	return total
}
