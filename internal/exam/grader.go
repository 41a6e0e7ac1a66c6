package exam

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	appI18n "github.com/eduai/backend/internal/i18n"
	"github.com/eduai/backend/internal/llm"
	"github.com/eduai/backend/internal/model"
)

var decimalRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Grader computes a Results record from a question sequence and a submitted
// answer sequence. MCQ grading is fully deterministic; written grading calls
// the AI provider per question and falls back to heuristics so that every
// question always receives a numeric score.
//
// Feedback strings are localized through the localizer carried on the
// context; the service installs one for the exam's language before grading.
type Grader struct {
	provider llm.Provider
}

// NewGrader creates a Grader backed by the given provider.
func NewGrader(provider llm.Provider) *Grader {
	return &Grader{provider: provider}
}

// Grade scores the submitted answers against the questions. Unanswered
// questions are scored as wrong/zero, never as an error. Grade itself never
// fails: upstream AI errors are absorbed by per-question fallbacks.
func (g *Grader) Grade(ctx context.Context, examType model.ExamType, questions []model.Question, answers []model.Answer) model.Results {
	if examType == model.ExamTypeMCQ {
		return GradeMCQ(ctx, questions, answers)
	}
	return g.gradeWritten(ctx, questions, answers)
}

// GradeMCQ grades a multiple-choice answer set: one point per submitted
// option ID matching the correct option ID under case-insensitive
// comparison. No AI calls; re-grading identical input yields identical
// results.
func GradeMCQ(ctx context.Context, questions []model.Question, answers []model.Answer) model.Results {
	submitted := answerMap(answers)

	results := model.Results{
		ExamType: model.ExamTypeMCQ,
		MaxScore: float64(len(questions)),
	}

	matches := 0
	for _, q := range questions {
		answer := submitted[q.ID]
		trimmed := strings.TrimSpace(answer)
		correct := trimmed != "" && strings.EqualFold(trimmed, q.CorrectAnswer)
		if correct {
			matches++
		}

		var feedback string
		switch {
		case correct:
			feedback = appI18n.T(ctx, "FeedbackCorrect")
		case trimmed == "":
			feedback = appI18n.Td(ctx, "FeedbackNoAnswerOption", map[string]any{"Answer": q.CorrectAnswer})
		default:
			feedback = appI18n.Td(ctx, "FeedbackIncorrect", map[string]any{"Answer": q.CorrectAnswer})
		}

		isCorrect := correct
		score := 0.0
		if correct {
			score = 1.0
		}
		results.QuestionResults = append(results.QuestionResults, model.QuestionResult{
			QuestionID: q.ID,
			AnswerText: answer,
			IsCorrect:  &isCorrect,
			Score:      score,
			MaxPoints:  1,
			Feedback:   feedback,
		})
	}

	results.TotalScore = float64(matches)
	if len(questions) > 0 {
		results.Percentage = round2(100 * float64(matches) / float64(len(questions)))
	}
	return results
}

// gradeWritten grades free-text answers one question at a time, in question
// order. Each grading call consumes a rate-limited upstream resource, so the
// calls are deliberately sequential.
func (g *Grader) gradeWritten(ctx context.Context, questions []model.Question, answers []model.Answer) model.Results {
	submitted := answerMap(answers)

	results := model.Results{ExamType: model.ExamTypeWritten}

	var total, maxTotal float64
	for _, q := range questions {
		answer := submitted[q.ID]
		score, feedback := g.scoreWritten(ctx, q, answer)

		total += score
		maxTotal += float64(q.MaxPoints)

		results.QuestionResults = append(results.QuestionResults, model.QuestionResult{
			QuestionID: q.ID,
			AnswerText: answer,
			Score:      round2(score),
			MaxPoints:  q.MaxPoints,
			Feedback:   feedback,
		})
	}

	results.TotalScore = round2(total)
	results.MaxScore = maxTotal
	if maxTotal > 0 {
		results.Percentage = round2(100 * total / maxTotal)
	}
	return results
}

// scoreWritten scores a single free-text answer. It returns a score in
// [0, q.MaxPoints] and feedback text, and never fails.
func (g *Grader) scoreWritten(ctx context.Context, q model.Question, answer string) (float64, string) {
	if strings.TrimSpace(answer) == "" {
		return 0, appI18n.T(ctx, "FeedbackNoAnswer")
	}

	maxPoints := float64(q.MaxPoints)

	reply, err := g.provider.Complete(ctx, BuildWrittenGradingPrompt(q, answer))
	if err != nil {
		score := lengthHeuristicScore(answer, maxPoints)
		slog.Warn("AI grading failed, using length heuristic",
			"question_id", q.ID, "score", score, "error", err)
		return score, appI18n.T(ctx, "FeedbackUnavailable")
	}

	token := decimalRegex.FindString(reply)
	if token == "" {
		slog.Warn("no numeric grade in AI reply, awarding half credit",
			"question_id", q.ID, "reply", reply)
		return maxPoints * 0.5, appI18n.T(ctx, "FeedbackHalfCredit")
	}

	score, err := strconv.ParseFloat(token, 64)
	if err != nil {
		slog.Warn("unparseable numeric grade, awarding half credit",
			"question_id", q.ID, "token", token, "error", err)
		return maxPoints * 0.5, appI18n.T(ctx, "FeedbackHalfCredit")
	}

	return clamp(score, 0, maxPoints), appI18n.T(ctx, "FeedbackScored")
}

// lengthHeuristicScore estimates a score from answer length when the AI
// grader is unreachable. Longer answers earn a larger share of the points.
func lengthHeuristicScore(answer string, maxPoints float64) float64 {
	n := utf8.RuneCountInString(answer)
	switch {
	case n >= 100:
		return maxPoints * 0.8
	case n >= 50:
		return maxPoints * 0.6
	case n >= 20:
		return maxPoints * 0.4
	default:
		return maxPoints * 0.2
	}
}

// answerMap keeps the answer text verbatim; emptiness checks and option
// comparisons trim on their own so the stored record echoes exactly what the
// student submitted.
func answerMap(answers []model.Answer) map[string]string {
	m := make(map[string]string, len(answers))
	for _, a := range answers {
		m[a.QuestionID] = a.AnswerText
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
