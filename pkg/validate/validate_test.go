package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

func TestStruct(t *testing.T) {
	ok := models.CreateCourseRequest{Name: "CS 101", CourseCode: "cs101", Password: "hunter2"}
	assert.NoError(t, Struct(ok))

	bad := models.CreateCourseRequest{Name: "CS 101", CourseCode: "cs", Password: "hunter2"}
	err := Struct(bad)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "course_code")
}

func TestStructNotBlank(t *testing.T) {
	err := Struct(models.AddCommentRequest{Location: "question:1", Text: "   "})

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "text cannot be blank")
}

func TestStructListsEveryField(t *testing.T) {
	err := Struct(models.LoginRequest{Email: "not-an-email"})

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "password")
}
