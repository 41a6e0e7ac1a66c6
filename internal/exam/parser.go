package exam

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eduai/backend/internal/model"
)

// ParseQuestions extracts the question list from the raw AI reply. The reply
// may wrap the JSON array in arbitrary prose; the substring from the first
// '[' to the last ']' is treated as the array literal.
//
// Parse failures never propagate: the caller gets the fixed one-question
// placeholder set for the requested exam type and degraded=true, and the
// failure is logged for diagnostics.
func ParseQuestions(reply string, examType model.ExamType) (questions []model.Question, degraded bool) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start == -1 || end == -1 || end < start {
		slog.Warn("no question array found in AI reply, using placeholder",
			"exam_type", examType, "reply_len", len(reply))
		return placeholderQuestions(examType), true
	}

	if err := json.Unmarshal([]byte(reply[start:end+1]), &questions); err != nil {
		slog.Warn("failed to parse question array, using placeholder",
			"exam_type", examType, "error", err)
		return placeholderQuestions(examType), true
	}
	if len(questions) == 0 {
		slog.Warn("AI reply contained an empty question array, using placeholder",
			"exam_type", examType)
		return placeholderQuestions(examType), true
	}

	// The model sometimes omits IDs; answers are keyed by question ID, so
	// assign positional ones.
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}

	return questions, false
}

func placeholderQuestions(examType model.ExamType) []model.Question {
	if examType == model.ExamTypeMCQ {
		return []model.Question{{
			ID:           "q1",
			QuestionText: "Which option is labeled A?",
			Options: []model.MCQOption{
				{OptionID: "A", Text: "Option A", IsCorrect: true},
				{OptionID: "B", Text: "Option B"},
				{OptionID: "C", Text: "Option C"},
				{OptionID: "D", Text: "Option D"},
			},
			CorrectAnswer: "A",
			Explanation:   "Placeholder question generated because the exam content could not be produced.",
		}}
	}
	return []model.Question{{
		ID:           "q1",
		QuestionText: "Describe what you know about the requested topic.",
		MaxPoints:    writtenTotalPoints,
		SampleAnswer: "Placeholder question generated because the exam content could not be produced.",
	}}
}
