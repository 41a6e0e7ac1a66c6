package exam

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	appI18n "github.com/eduai/backend/internal/i18n"
	"github.com/eduai/backend/internal/llm"
	"github.com/eduai/backend/internal/model"
)

func localizedContext(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	return appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang, "en"))
}

func mcqQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", CorrectAnswer: "A"},
		{ID: "q2", CorrectAnswer: "B"},
		{ID: "q3", CorrectAnswer: "C"},
	}
}

func TestGradeMCQ(t *testing.T) {
	ctx := localizedContext(t, "en")

	tests := []struct {
		name           string
		answers        []model.Answer
		wantScore      float64
		wantPercentage float64
	}{
		{
			name: "all correct",
			answers: []model.Answer{
				{QuestionID: "q1", AnswerText: "A"},
				{QuestionID: "q2", AnswerText: "B"},
				{QuestionID: "q3", AnswerText: "C"},
			},
			wantScore:      3,
			wantPercentage: 100,
		},
		{
			name: "case insensitive match",
			answers: []model.Answer{
				{QuestionID: "q1", AnswerText: "a"},
				{QuestionID: "q2", AnswerText: "b"},
				{QuestionID: "q3", AnswerText: "c"},
			},
			wantScore:      3,
			wantPercentage: 100,
		},
		{
			name: "one wrong",
			answers: []model.Answer{
				{QuestionID: "q1", AnswerText: "A"},
				{QuestionID: "q2", AnswerText: "D"},
				{QuestionID: "q3", AnswerText: "C"},
			},
			wantScore:      2,
			wantPercentage: 66.67,
		},
		{
			name: "unanswered scores zero",
			answers: []model.Answer{
				{QuestionID: "q1", AnswerText: "A"},
			},
			wantScore:      1,
			wantPercentage: 33.33,
		},
		{
			name:           "no answers at all",
			answers:        nil,
			wantScore:      0,
			wantPercentage: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := GradeMCQ(ctx, mcqQuestions(), tt.answers)

			if results.TotalScore != tt.wantScore {
				t.Errorf("TotalScore = %v, want %v", results.TotalScore, tt.wantScore)
			}
			if results.MaxScore != 3 {
				t.Errorf("MaxScore = %v, want 3", results.MaxScore)
			}
			if results.Percentage != tt.wantPercentage {
				t.Errorf("Percentage = %v, want %v", results.Percentage, tt.wantPercentage)
			}
			if len(results.QuestionResults) != 3 {
				t.Fatalf("expected 3 question results, got %d", len(results.QuestionResults))
			}
			for _, qr := range results.QuestionResults {
				if qr.IsCorrect == nil {
					t.Errorf("question %s missing correctness flag", qr.QuestionID)
				}
				if qr.Feedback == "" {
					t.Errorf("question %s missing feedback", qr.QuestionID)
				}
			}
		})
	}
}

func TestGradeMCQDeterministic(t *testing.T) {
	ctx := localizedContext(t, "en")
	answers := []model.Answer{
		{QuestionID: "q1", AnswerText: "a"},
		{QuestionID: "q2", AnswerText: "X"},
	}

	first := GradeMCQ(ctx, mcqQuestions(), answers)
	second := GradeMCQ(ctx, mcqQuestions(), answers)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-grading identical input differed:\n%+v\n%+v", first, second)
	}
}

func TestGradeMCQEmptyQuestions(t *testing.T) {
	ctx := localizedContext(t, "en")

	results := GradeMCQ(ctx, nil, nil)
	if results.Percentage != 0 {
		t.Errorf("Percentage for empty exam = %v, want 0", results.Percentage)
	}
	if results.TotalScore != 0 || results.MaxScore != 0 {
		t.Errorf("scores for empty exam = %v/%v, want 0/0", results.TotalScore, results.MaxScore)
	}
}

func TestGradeMCQFeedbackLanguage(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", AnswerText: "A"},
		{QuestionID: "q2", AnswerText: "D"},
	}

	en := GradeMCQ(localizedContext(t, "en"), mcqQuestions(), answers)
	if en.QuestionResults[0].Feedback != "Correct!" {
		t.Errorf("en correct feedback = %q", en.QuestionResults[0].Feedback)
	}
	if en.QuestionResults[1].Feedback != "Incorrect. The correct answer is B." {
		t.Errorf("en incorrect feedback = %q", en.QuestionResults[1].Feedback)
	}
	if en.QuestionResults[2].Feedback != "No answer provided. The correct answer is C." {
		t.Errorf("en unanswered feedback = %q", en.QuestionResults[2].Feedback)
	}

	ru := GradeMCQ(localizedContext(t, "ru"), mcqQuestions(), answers)
	if ru.QuestionResults[0].Feedback != "Правильно!" {
		t.Errorf("ru correct feedback = %q", ru.QuestionResults[0].Feedback)
	}
	if ru.QuestionResults[1].Feedback != "Неправильно. Правильный ответ: B." {
		t.Errorf("ru incorrect feedback = %q", ru.QuestionResults[1].Feedback)
	}

	// Scores are language-independent.
	if en.TotalScore != ru.TotalScore {
		t.Errorf("scores differ across languages: %v vs %v", en.TotalScore, ru.TotalScore)
	}
}

func TestGradeMCQEchoesRawAnswer(t *testing.T) {
	ctx := localizedContext(t, "en")

	results := GradeMCQ(ctx, []model.Question{{ID: "q1", CorrectAnswer: "B"}},
		[]model.Answer{{QuestionID: "q1", AnswerText: " b "}})

	qr := results.QuestionResults[0]
	if qr.IsCorrect == nil || !*qr.IsCorrect {
		t.Errorf("padded answer not matched: %+v", qr)
	}
	// The submitted text is echoed verbatim, not a trimmed copy.
	if qr.AnswerText != " b " {
		t.Errorf("AnswerText = %q, want %q", qr.AnswerText, " b ")
	}
}

func TestGradeWrittenEmptyAnswerSkipsAI(t *testing.T) {
	ctx := localizedContext(t, "en")
	mock := llm.NewMockProvider()
	g := NewGrader(mock)

	questions := []model.Question{
		{ID: "q1", QuestionText: "Explain photosynthesis.", MaxPoints: 50},
		{ID: "q2", QuestionText: "Explain respiration.", MaxPoints: 50},
	}
	answers := []model.Answer{
		{QuestionID: "q1", AnswerText: ""},
		{QuestionID: "q2", AnswerText: "   "},
	}

	results := g.Grade(ctx, model.ExamTypeWritten, questions, answers)

	if mock.CallCount() != 0 {
		t.Errorf("expected no AI calls for empty answers, got %d", mock.CallCount())
	}
	if results.TotalScore != 0 {
		t.Errorf("TotalScore = %v, want 0", results.TotalScore)
	}
	if results.MaxScore != 100 {
		t.Errorf("MaxScore = %v, want 100", results.MaxScore)
	}
	for _, qr := range results.QuestionResults {
		if qr.Score != 0 {
			t.Errorf("question %s score = %v, want 0", qr.QuestionID, qr.Score)
		}
		if qr.Feedback != "No answer provided." {
			t.Errorf("question %s feedback = %q", qr.QuestionID, qr.Feedback)
		}
	}
	// The whitespace answer is stored as submitted.
	if results.QuestionResults[1].AnswerText != "   " {
		t.Errorf("AnswerText = %q, want the raw whitespace", results.QuestionResults[1].AnswerText)
	}
}

func TestGradeWrittenNumericExtraction(t *testing.T) {
	ctx := localizedContext(t, "en")

	tests := []struct {
		name      string
		reply     string
		maxPoints int
		want      float64
	}{
		{"bare number", "42", 50, 42},
		{"number with prose", "I would give this answer 8.5 points.", 10, 8.5},
		{"score slash max", "Score: 7/10", 10, 7},
		{"above max clamps", "150", 100, 100},
		{"negative clamps to zero", "-5", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Text: tt.reply})
			g := NewGrader(mock)

			q := model.Question{ID: "q1", QuestionText: "Explain.", MaxPoints: tt.maxPoints, SampleAnswer: "key points"}
			results := g.Grade(ctx, model.ExamTypeWritten,
				[]model.Question{q}, []model.Answer{{QuestionID: "q1", AnswerText: "my answer"}})

			if got := results.QuestionResults[0].Score; got != tt.want {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
			if mock.CallCount() != 1 {
				t.Errorf("expected 1 AI call, got %d", mock.CallCount())
			}
		})
	}
}

func TestGradeWrittenNonNumericReply(t *testing.T) {
	ctx := localizedContext(t, "en")
	mock := llm.NewMockProvider(llm.MockResponse{Text: "An excellent answer overall."})
	g := NewGrader(mock)

	q := model.Question{ID: "q1", QuestionText: "Explain.", MaxPoints: 40}
	results := g.Grade(ctx, model.ExamTypeWritten,
		[]model.Question{q}, []model.Answer{{QuestionID: "q1", AnswerText: "my answer"}})

	if got := results.QuestionResults[0].Score; got != 20 {
		t.Errorf("Score = %v, want half credit 20", got)
	}
	if got := results.QuestionResults[0].Feedback; got != "The grade could not be determined; half credit awarded." {
		t.Errorf("Feedback = %q", got)
	}
}

func TestGradeWrittenProviderErrorLengthHeuristic(t *testing.T) {
	ctx := localizedContext(t, "en")

	tests := []struct {
		name   string
		length int
		want   float64
	}{
		{"long answer", 120, 8},
		{"medium answer", 60, 6},
		{"short answer", 25, 4},
		{"very short answer", 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("upstream down")})
			g := NewGrader(mock)

			q := model.Question{ID: "q1", QuestionText: "Explain.", MaxPoints: 10}
			answer := strings.Repeat("x", tt.length)
			results := g.Grade(ctx, model.ExamTypeWritten,
				[]model.Question{q}, []model.Answer{{QuestionID: "q1", AnswerText: answer}})

			if got := results.QuestionResults[0].Score; got != tt.want {
				t.Errorf("Score for %d-char answer = %v, want %v", tt.length, got, tt.want)
			}
		})
	}
}

func TestGradeWrittenTotals(t *testing.T) {
	ctx := localizedContext(t, "en")
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: "33.333"},
		llm.MockResponse{Text: "50"},
	)
	g := NewGrader(mock)

	questions := []model.Question{
		{ID: "q1", QuestionText: "First.", MaxPoints: 50},
		{ID: "q2", QuestionText: "Second.", MaxPoints: 50},
	}
	answers := []model.Answer{
		{QuestionID: "q1", AnswerText: "answer one"},
		{QuestionID: "q2", AnswerText: "answer two"},
	}

	results := g.Grade(ctx, model.ExamTypeWritten, questions, answers)

	if results.TotalScore != 83.33 {
		t.Errorf("TotalScore = %v, want 83.33", results.TotalScore)
	}
	if results.MaxScore != 100 {
		t.Errorf("MaxScore = %v, want 100", results.MaxScore)
	}
	if results.Percentage != 83.33 {
		t.Errorf("Percentage = %v, want 83.33", results.Percentage)
	}
	if results.QuestionResults[0].Score != 33.33 {
		t.Errorf("q1 Score = %v, want 33.33", results.QuestionResults[0].Score)
	}
	// Written grading calls go out one question at a time, in order.
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 AI calls, got %d", mock.CallCount())
	}
	if !strings.Contains(mock.Prompts[0], "First.") || !strings.Contains(mock.Prompts[1], "Second.") {
		t.Errorf("grading prompts out of order: %q, %q", mock.Prompts[0], mock.Prompts[1])
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(5, 0, 10); got != 5 {
		t.Errorf("clamp(5,0,10) = %v", got)
	}
	if got := clamp(-1, 0, 10); got != 0 {
		t.Errorf("clamp(-1,0,10) = %v", got)
	}
	if got := clamp(11, 0, 10); got != 10 {
		t.Errorf("clamp(11,0,10) = %v", got)
	}
}
