package exam

import (
	"fmt"
	"strings"

	"github.com/eduai/backend/internal/model"
)

// writtenTotalPoints is the nominal point total a written exam's question
// allocations are expected to sum to.
const writtenTotalPoints = 100

// BuildGenerationPrompt builds the question-generation prompt for the given
// exam parameters. The prompt pins down an exact JSON-array output shape so
// ParseQuestions can locate and decode it. Pure function of its inputs.
func BuildGenerationPrompt(p model.ExamParams) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate exactly %d %s level %s questions for the subject %q",
		p.NumQuestions, p.Difficulty, typeLabel(p.ExamType), p.Subject)
	if p.Topic != "" {
		fmt.Fprintf(&sb, ", topic %q", p.Topic)
	}
	sb.WriteString(".\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Questions must be educationally sound and test understanding.\n")
	sb.WriteString("- Avoid ambiguous or trick questions.\n")
	sb.WriteString("- Ensure questions are factually accurate.\n\n")

	switch p.ExamType {
	case model.ExamTypeMCQ:
		sb.WriteString("Each question has four options (A, B, C, D) with exactly one correct, and a brief explanation.\n\n")
		sb.WriteString("Respond with a JSON array in exactly this shape:\n")
		sb.WriteString(`[
  {
    "id": "q1",
    "question_text": "...",
    "options": [
      {"option_id": "A", "text": "...", "is_correct": false},
      {"option_id": "B", "text": "...", "is_correct": true},
      {"option_id": "C", "text": "...", "is_correct": false},
      {"option_id": "D", "text": "...", "is_correct": false}
    ],
    "correct_answer": "B",
    "explanation": "..."
  }
]`)
	default:
		fmt.Fprintf(&sb, "Each question has an integer point allocation (max_points) and a sample answer listing the key points expected. The point allocations across all %d questions must sum to %d.\n\n",
			p.NumQuestions, writtenTotalPoints)
		sb.WriteString("Respond with a JSON array in exactly this shape:\n")
		sb.WriteString(`[
  {
    "id": "q1",
    "question_text": "...",
    "max_points": 20,
    "sample_answer": "..."
  }
]`)
	}

	sb.WriteString("\n\nProvide only the JSON array, no additional text.\n")
	return sb.String()
}

// BuildWrittenGradingPrompt builds the prompt used to score one free-text
// answer. The model is instructed to reply with a single number so the
// grader can extract it reliably.
func BuildWrittenGradingPrompt(q model.Question, answer string) string {
	var sb strings.Builder

	sb.WriteString("You are grading one written exam answer.\n\n")
	sb.WriteString("QUESTION: " + q.QuestionText + "\n\n")
	fmt.Fprintf(&sb, "MAX POINTS: %d\n\n", q.MaxPoints)
	if q.SampleAnswer != "" {
		sb.WriteString("SAMPLE ANSWER / KEY POINTS (not shown to the student):\n" + q.SampleAnswer + "\n\n")
	}
	sb.WriteString("STUDENT ANSWER:\n" + answer + "\n\n")
	sb.WriteString("Score the student answer for accuracy, completeness, and understanding ")
	sb.WriteString("against the sample answer.\n")
	fmt.Fprintf(&sb, "Respond ONLY with a single number between 0 and %d. No other text.\n", q.MaxPoints)

	return sb.String()
}

func typeLabel(t model.ExamType) string {
	if t == model.ExamTypeMCQ {
		return "multiple-choice"
	}
	return "written"
}
