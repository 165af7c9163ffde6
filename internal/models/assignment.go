package models

import (
	"time"
)

type DeadlineType string

const (
	DeadlineStrict    DeadlineType = "strict"
	DeadlinePointLoss DeadlineType = "pointloss"
	DeadlineLenient   DeadlineType = "lenient"
)

func IsValidDeadlineType(t string) bool {
	switch DeadlineType(t) {
	case DeadlineStrict, DeadlinePointLoss, DeadlineLenient:
		return true
	default:
		return false
	}
}

type Assignment struct {
	ID           string       `json:"id" db:"id"`
	CourseID     string       `json:"course_id" db:"course_id"`
	Name         string       `json:"name" db:"name"`
	Description  string       `json:"description" db:"description"`
	IsOpen       bool         `json:"is_open" db:"is_open"`
	OpenedAt     *time.Time   `json:"opened_at,omitempty" db:"opened_at"`
	DueDate      *time.Time   `json:"due_date,omitempty" db:"due_date"`
	DeadlineType DeadlineType `json:"deadline_type,omitempty" db:"deadline_type"`
	PointsWorth  float64      `json:"points_worth" db:"points_worth"`
	PointLoss    float64      `json:"point_loss" db:"point_loss"`
	Questions    []Question   `json:"questions" db:"questions"`
	Exercises    []Exercise   `json:"exercises" db:"exercises"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// StudentAssignment is the student-safe view of an assignment.
type StudentAssignment struct {
	ID           string         `json:"id"`
	CourseID     string         `json:"course_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	IsOpen       bool           `json:"is_open"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	DeadlineType DeadlineType   `json:"deadline_type,omitempty"`
	PointsWorth  float64        `json:"points_worth"`
	PointLoss    float64        `json:"point_loss"`
	Questions    []QuestionView `json:"questions"`
	Exercises    []ExerciseView `json:"exercises"`
}

func (a *Assignment) StudentView() *StudentAssignment {
	questions := make([]QuestionView, len(a.Questions))
	for i, q := range a.Questions {
		questions[i] = q.StudentView()
	}
	exercises := make([]ExerciseView, len(a.Exercises))
	for i, e := range a.Exercises {
		exercises[i] = e.StripAnswers()
	}

	return &StudentAssignment{
		ID:           a.ID,
		CourseID:     a.CourseID,
		Name:         a.Name,
		Description:  a.Description,
		IsOpen:       a.IsOpen,
		DueDate:      a.DueDate,
		DeadlineType: a.DeadlineType,
		PointsWorth:  a.PointsWorth,
		PointLoss:    a.PointLoss,
		Questions:    questions,
		Exercises:    exercises,
	}
}

func (a *Assignment) Question(index int) (*Question, error) {
	if index < 0 || index >= len(a.Questions) {
		return nil, NotFoundf("That question does not exist.")
	}
	return &a.Questions[index], nil
}

func (a *Assignment) Exercise(index int) (*Exercise, error) {
	if index < 0 || index >= len(a.Exercises) {
		return nil, NotFoundf("That exercise does not exist.")
	}
	return &a.Exercises[index], nil
}

// Fork copies the assignment's content into another course as a new draft.
// Exercise solutions carry over; the open state and due date do not.
func (a *Assignment) Fork(id, courseID string, now time.Time) *Assignment {
	return &Assignment{
		ID:          id,
		CourseID:    courseID,
		Name:        a.Name,
		Description: a.Description,
		PointsWorth: a.PointsWorth,
		PointLoss:   a.PointLoss,
		Questions:   append([]Question{}, a.Questions...),
		Exercises:   append([]Exercise{}, a.Exercises...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
