// Package lifecycle is the open/closed state machine of an assignment.
//
// An assignment starts as a Draft, where questions and exercises can be added
// and removed. Opening it freezes that structure. Closing it stops submissions
// but does not make the structure editable again.
package lifecycle

import (
	"time"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

type State string

const (
	StateDraft  State = "draft"
	StateOpen   State = "open"
	StateClosed State = "closed"
)

func StateOf(a *models.Assignment) State {
	switch {
	case a.IsOpen:
		return StateOpen
	case a.OpenedAt != nil:
		return StateClosed
	default:
		return StateDraft
	}
}

// CloseGrant proves the acting teacher re-entered their password. Only the auth
// package hands these out.
type CloseGrant struct {
	teacherID string
}

func NewCloseGrant(teacherID string) CloseGrant {
	return CloseGrant{teacherID: teacherID}
}

func (g CloseGrant) TeacherID() string {
	return g.teacherID
}

// ValidatePoints checks pointLoss < pointsWorth.
func ValidatePoints(pointsWorth, pointLoss float64) error {
	if pointsWorth <= pointLoss && pointLoss > 0 {
		return models.Validationf("Amount of points lost due to tardiness must be less than total points.")
	}
	return nil
}

// Open moves a Draft or Closed assignment to Open. Nothing is changed on error.
func Open(a *models.Assignment, dueDate time.Time, deadlineType string, now time.Time) error {
	if StateOf(a) == StateOpen {
		return models.InvalidStatef("The assignment is already open.")
	}
	if dueDate.IsZero() || !dueDate.After(now) {
		return models.Validationf("Due date must be in the future.")
	}
	if !models.IsValidDeadlineType(deadlineType) {
		return models.Validationf("deadline type must be one of strict, pointloss or lenient")
	}
	if err := ValidatePoints(a.PointsWorth, a.PointLoss); err != nil {
		return err
	}

	due := dueDate
	opened := now
	a.IsOpen = true
	a.DueDate = &due
	a.DeadlineType = models.DeadlineType(deadlineType)
	a.OpenedAt = &opened
	a.UpdatedAt = now
	return nil
}

// Close moves an Open assignment to Closed.
func Close(a *models.Assignment, grant CloseGrant, now time.Time) error {
	if grant.teacherID == "" {
		return models.Unauthorizedf("Incorrect password.")
	}
	if StateOf(a) != StateOpen {
		return models.InvalidStatef("The assignment is not open.")
	}

	a.IsOpen = false
	a.UpdatedAt = now
	return nil
}

// CheckStructureEditable guards adding and removing questions and exercises.
func CheckStructureEditable(a *models.Assignment) error {
	if StateOf(a) != StateDraft {
		return models.InvalidStatef("Questions and exercises cannot be added or removed once the assignment has been opened.")
	}
	return nil
}

// CheckAcceptingSubmissions reports whether a submission made at now is accepted
// and whether it is late. Late submissions are rejected under the strict policy
// and accepted otherwise; the point loss itself is applied by grading.Total.
func CheckAcceptingSubmissions(a *models.Assignment, now time.Time) (late bool, err error) {
	if StateOf(a) != StateOpen {
		return false, models.InvalidStatef("This assignment is not open for submissions.")
	}
	if a.DueDate == nil || !now.After(*a.DueDate) {
		return false, nil
	}

	switch a.DeadlineType {
	case models.DeadlineStrict:
		return true, models.InvalidStatef("This assignment is past due.")
	case models.DeadlinePointLoss, models.DeadlineLenient:
		return true, nil
	default:
		return true, nil
	}
}
