package models

import (
	"time"
)

// QuestionAttempt is a student's record for one question.
type QuestionAttempt struct {
	Answer  string  `json:"answer"`
	Tries   int     `json:"tries"`
	Correct bool    `json:"correct"`
	Points  float64 `json:"points"`
}

// ExerciseAttempt is a student's record for one exercise. Code holds the last
// saved or submitted files.
type ExerciseAttempt struct {
	Code    []CodeFile `json:"code"`
	Tries   int        `json:"tries"`
	Correct bool       `json:"correct"`
	Points  float64    `json:"points"`
}

type TeacherComment struct {
	// e.g. "question:2" or "exercise:0:Main.java:14"
	Location  string    `json:"location"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission is the single grade record of one student for one assignment.
type Submission struct {
	ID           string            `json:"id" db:"id"`
	StudentID    string            `json:"student_id" db:"student_id"`
	AssignmentID string            `json:"assignment_id" db:"assignment_id"`
	PointsEarned float64           `json:"points_earned" db:"points_earned"`
	IsLate       bool              `json:"is_late" db:"is_late"`
	Questions    []QuestionAttempt `json:"questions" db:"questions"`
	Exercises    []ExerciseAttempt `json:"exercises" db:"exercises"`
	Comments     []TeacherComment  `json:"comments" db:"comments"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

type SubmissionWithDetails struct {
	Submission
	StudentName  string `json:"student_name" db:"student_name"`
	StudentEmail string `json:"student_email" db:"student_email"`
}

// NewSubmission returns a zero-valued submission sized to the assignment.
func NewSubmission(id, studentID string, a *Assignment, now time.Time) *Submission {
	s := &Submission{
		ID:           id,
		StudentID:    studentID,
		AssignmentID: a.ID,
		Comments:     []TeacherComment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Fit(a)
	return s
}

// Fit grows the attempt records to the assignment's current question and
// exercise counts. Existing records are never dropped.
func (s *Submission) Fit(a *Assignment) {
	for len(s.Questions) < len(a.Questions) {
		s.Questions = append(s.Questions, QuestionAttempt{})
	}
	for len(s.Exercises) < len(a.Exercises) {
		s.Exercises = append(s.Exercises, ExerciseAttempt{Code: []CodeFile{}})
	}
	if s.Questions == nil {
		s.Questions = []QuestionAttempt{}
	}
	if s.Exercises == nil {
		s.Exercises = []ExerciseAttempt{}
	}
}
