package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func draft() *models.Assignment {
	return &models.Assignment{ID: "a1", Name: "Hello World!", PointsWorth: 20, PointLoss: 10}
}

func TestOpen(t *testing.T) {
	a := draft()

	require.NoError(t, Open(a, now.Add(24*time.Hour), "pointloss", now))

	assert.Equal(t, StateOpen, StateOf(a))
	assert.True(t, a.IsOpen)
	assert.Equal(t, models.DeadlinePointLoss, a.DeadlineType)
	require.NotNil(t, a.OpenedAt)
}

func TestOpenRejectsPastDueDate(t *testing.T) {
	a := draft()

	err := Open(a, now.Add(-time.Minute), "strict", now)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.EqualError(t, err, "Due date must be in the future.")
	assert.Equal(t, StateDraft, StateOf(a))

	assert.ErrorIs(t, Open(a, time.Time{}, "strict", now), models.ErrValidation)
}

func TestOpenRejectsPointLossAboveWorth(t *testing.T) {
	a := draft()
	a.PointLoss = 25

	err := Open(a, now.Add(time.Hour), "strict", now)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "points lost")
	assert.Contains(t, err.Error(), "must be less than total points.")
	assert.False(t, a.IsOpen)
}

func TestOpenRejectsUnknownDeadlineType(t *testing.T) {
	assert.ErrorIs(t, Open(draft(), now.Add(time.Hour), "whenever", now), models.ErrValidation)
}

func TestCloseKeepsStructureFrozen(t *testing.T) {
	a := draft()
	require.NoError(t, Open(a, now.Add(time.Hour), "lenient", now))

	require.NoError(t, Close(a, NewCloseGrant("teacher-1"), now))

	assert.Equal(t, StateClosed, StateOf(a))
	assert.ErrorIs(t, CheckStructureEditable(a), models.ErrInvalidState)
}

func TestCloseRequiresGrant(t *testing.T) {
	a := draft()
	require.NoError(t, Open(a, now.Add(time.Hour), "lenient", now))

	assert.ErrorIs(t, Close(a, CloseGrant{}, now), models.ErrUnauthorized)
	assert.True(t, a.IsOpen)
}

func TestCloseOnlyFromOpen(t *testing.T) {
	assert.ErrorIs(t, Close(draft(), NewCloseGrant("t"), now), models.ErrInvalidState)
}

func TestReopenClosedAssignment(t *testing.T) {
	a := draft()
	require.NoError(t, Open(a, now.Add(time.Hour), "lenient", now))
	require.NoError(t, Close(a, NewCloseGrant("t"), now))

	require.NoError(t, Open(a, now.Add(2*time.Hour), "strict", now))
	assert.Equal(t, StateOpen, StateOf(a))
	assert.ErrorIs(t, Open(a, now.Add(3*time.Hour), "strict", now), models.ErrInvalidState)
}

func TestCheckStructureEditable(t *testing.T) {
	a := draft()
	assert.NoError(t, CheckStructureEditable(a))

	a.IsOpen = true
	assert.ErrorIs(t, CheckStructureEditable(a), models.ErrInvalidState)
}

func TestCheckAcceptingSubmissions(t *testing.T) {
	due := now.Add(time.Hour)

	tests := []struct {
		name     string
		isOpen   bool
		deadline models.DeadlineType
		at       time.Time
		wantLate bool
		wantErr  error
	}{
		{"closed", false, models.DeadlineLenient, now, false, models.ErrInvalidState},
		{"on time", true, models.DeadlineStrict, now, false, nil},
		{"late strict", true, models.DeadlineStrict, due.Add(time.Second), true, models.ErrInvalidState},
		{"late pointloss", true, models.DeadlinePointLoss, due.Add(time.Second), true, nil},
		{"late lenient", true, models.DeadlineLenient, due.Add(time.Second), true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := draft()
			a.IsOpen = tt.isOpen
			a.DueDate = &due
			a.DeadlineType = tt.deadline

			late, err := CheckAcceptingSubmissions(a, tt.at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLate, late)
		})
	}
}

func TestValidatePoints(t *testing.T) {
	assert.NoError(t, ValidatePoints(20, 10))
	assert.NoError(t, ValidatePoints(0, 0))
	assert.ErrorIs(t, ValidatePoints(20, 20), models.ErrValidation)
	assert.ErrorIs(t, ValidatePoints(20, 25), models.ErrValidation)
}
