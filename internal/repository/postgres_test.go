package repository

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

func TestJSONColumnValue(t *testing.T) {
	var empty []models.QuestionAttempt
	v, err := asJSON(empty).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	v, err = asJSON([]models.QuestionAttempt{{Answer: "dank", Tries: 1}}).Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"answer":"dank","tries":1,"correct":false,"points":0}]`, string(v.([]byte)))
}

func TestJSONColumnScan(t *testing.T) {
	var questions []models.Question
	require.NoError(t, asJSON(&questions).Scan([]byte(`[{"prompt":"p","question_type":"frq","points_worth":3}]`)))
	require.Len(t, questions, 1)
	assert.Equal(t, models.FreeResponse{}, questions[0].Body)

	var comments []models.TeacherComment
	require.NoError(t, asJSON(&comments).Scan(nil))
	assert.Nil(t, comments)

	assert.Error(t, asJSON(&comments).Scan(42))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	assert.True(t, isUniqueViolation(err))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}
