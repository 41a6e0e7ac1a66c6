package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eduai/backend/internal/model"

	_ "modernc.org/sqlite"
)

// Store owns the persisted representation of users, auth sessions, and
// exams. Each exam mutation replaces the whole structured payload for a
// single (exam_id, user_id) row.
type Store struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, sessionTTL: defaultSessionTTL}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		subject TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL,
		exam_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		degraded INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT 'en',
		questions TEXT NOT NULL,
		answers TEXT NOT NULL DEFAULT '[]',
		results TEXT,
		max_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_exams_user ON exams(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

const examColumns = `id, user_id, title, subject, topic, difficulty, exam_type,
	status, degraded, language, questions, answers, results, max_score,
	created_at, updated_at`

// CreateExam inserts a new exam row with its full structured payload.
func (s *Store) CreateExam(e model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(e.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO exams (`+examColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Subject, e.Topic, e.Difficulty, e.ExamType,
		e.Status, e.Degraded, e.Language, string(questions), string(answers),
		e.MaxScore, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// GetExam returns the exam for (examID, userID). sql.ErrNoRows when missing
// or owned by a different user.
func (s *Store) GetExam(examID string, userID int64) (model.Exam, error) {
	row := s.db.QueryRow(
		`SELECT `+examColumns+` FROM exams WHERE id = ? AND user_id = ?`,
		examID, userID,
	)
	return scanExam(row)
}

// ListExams returns all exams for a user, newest first.
func (s *Store) ListExams(userID int64) ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT `+examColumns+` FROM exams WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// CompleteExam writes the submitted answers and results and transitions the
// exam to completed. The update is conditional on the row still being
// in_progress, so exactly one submission wins; it reports whether the row
// was updated.
func (s *Store) CompleteExam(e model.Exam) (bool, error) {
	answers, err := json.Marshal(e.Answers)
	if err != nil {
		return false, fmt.Errorf("marshal answers: %w", err)
	}
	results, err := json.Marshal(e.Results)
	if err != nil {
		return false, fmt.Errorf("marshal results: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE exams SET status = ?, answers = ?, results = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		model.StatusCompleted, string(answers), string(results), time.Now(),
		e.ID, e.UserID, model.StatusInProgress,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteExam removes the exam row entirely; reports whether a row matched.
func (s *Store) DeleteExam(examID string, userID int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM exams WHERE id = ? AND user_id = ?`, examID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ExamCount returns the number of exams for a user.
func (s *Store) ExamCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (model.Exam, error) {
	var e model.Exam
	var questions, answers string
	var results sql.NullString

	err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Subject, &e.Topic, &e.Difficulty,
		&e.ExamType, &e.Status, &e.Degraded, &e.Language, &questions,
		&answers, &results, &e.MaxScore, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}

	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return e, fmt.Errorf("unmarshal questions for exam %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(answers), &e.Answers); err != nil {
		return e, fmt.Errorf("unmarshal answers for exam %s: %w", e.ID, err)
	}
	if results.Valid && results.String != "" && results.String != "null" {
		e.Results = &model.Results{}
		if err := json.Unmarshal([]byte(results.String), e.Results); err != nil {
			return e, fmt.Errorf("unmarshal results for exam %s: %w", e.ID, err)
		}
	}
	return e, nil
}
