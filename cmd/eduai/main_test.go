package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eduai/backend/internal/model"
	"github.com/eduai/backend/internal/store"
)

func seedExportData(t *testing.T, dbPath string) {
	t.Helper()

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	id, err := st.CreateUser(model.User{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	now := time.Now()
	e := model.Exam{
		ID:         "exam-1",
		UserID:     id,
		Title:      "Chemistry Exam",
		Subject:    "Chemistry",
		Difficulty: model.DifficultyEasy,
		ExamType:   model.ExamTypeMCQ,
		Status:     model.StatusInProgress,
		Language:   "en",
		Questions: []model.Question{
			{
				ID:           "q1",
				QuestionText: "What is H2O?",
				Options: []model.MCQOption{
					{OptionID: "A", Text: "Water", IsCorrect: true},
					{OptionID: "B", Text: "Salt"},
				},
				CorrectAnswer: "A",
			},
		},
		MaxScore:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateExam(e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	seedExportData(t, dbPath)

	outPath := filepath.Join(dir, "export.json")
	cmd := exportCmd()
	cmd.SetArgs([]string{"--db", dbPath, "--user", "alice", "--output", outPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var export model.ExamExport
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if export.Username != "alice" {
		t.Errorf("username = %q, want alice", export.Username)
	}
	if export.ExamCount != 1 || len(export.Exams) != 1 {
		t.Fatalf("exam count = %d (%d exams), want 1", export.ExamCount, len(export.Exams))
	}
	e := export.Exams[0]
	if e.ID != "exam-1" || e.Subject != "Chemistry" {
		t.Errorf("exported exam = %+v", e)
	}
	// The export is a full dump, answer key included.
	if e.Questions[0].CorrectAnswer != "A" {
		t.Errorf("answer key missing from export: %+v", e.Questions[0])
	}
}

func TestExportCommandUnknownUser(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	seedExportData(t, dbPath)

	cmd := exportCmd()
	cmd.SetArgs([]string{"--db", dbPath, "--user", "nobody", "--output", "-"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
