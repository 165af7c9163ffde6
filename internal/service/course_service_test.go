package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/models"
)

func TestCreateCourseAndEnroll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	course, err := env.course.CreateCourse(ctx, teacherID, &models.CreateCourseRequest{
		Name: "Data Structures", CourseCode: " CS201 ", Password: "open-sesame",
	})
	require.NoError(t, err)
	assert.Equal(t, "CS201", course.CourseCode)
	assert.NotEqual(t, "open-sesame", course.PasswordHash)

	_, err = env.course.CreateCourse(ctx, teacherID, &models.CreateCourseRequest{
		Name: "Duplicate", CourseCode: "CS201", Password: "whatever",
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: "CS201", Password: "wrong"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	enrolled, err := env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: "CS201", Password: "open-sesame"})
	require.NoError(t, err)
	assert.Equal(t, course.ID, enrolled.ID)

	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: "CS201", Password: "open-sesame"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: "NOPE", Password: "open-sesame"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	courses, err := env.course.ListCourses(ctx, auth.Principal{UserID: "student-2", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS201", courses[0].CourseCode)

	courses, err = env.course.ListCourses(ctx, auth.Principal{UserID: teacherID, Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestGetCourse_StudentsDoNotSeeDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssignment(t, "a1")
	env.seedAssignment(t, "a2")
	env.openAssignment(t, "a2", models.DeadlineStrict)
	ctx := context.Background()

	details, err := env.course.GetCourse(ctx, auth.Principal{UserID: teacherID, Role: models.RoleTeacher}, courseCode)
	require.NoError(t, err)
	assert.Len(t, details.Assignments, 2)
	assert.Equal(t, "Ms. Frizzle", details.OwnerName)

	details, err = env.course.GetCourse(ctx, auth.Principal{UserID: studentID, Role: models.RoleStudent}, courseCode)
	require.NoError(t, err)
	require.Len(t, details.Assignments, 1)
	assert.Equal(t, "a2", details.Assignments[0].ID)
	assert.Len(t, details.OpenAssignments, 1)

	_, err = env.course.GetCourse(ctx, auth.Principal{UserID: "stranger", Role: models.RoleStudent}, courseCode)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.course.GetCourse(ctx, auth.Principal{UserID: "other-teacher", Role: models.RoleTeacher}, courseCode)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, &models.RegisterRequest{
		Name: "Wanda", Email: " Wanda@School.test ", Password: "magic-bus", Role: "student",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "wanda@school.test", resp.User.Email)

	_, err = env.auth.Register(ctx, &models.RegisterRequest{
		Name: "Wanda again", Email: "wanda@school.test", Password: "magic-bus", Role: "student",
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	login, err := env.auth.Login(ctx, &models.LoginRequest{Email: "WANDA@school.test", Password: "magic-bus"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "wanda@school.test", Password: "nope"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "nobody@school.test", Password: "nope"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.auth.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

var teacherPrincipal = auth.Principal{UserID: teacherID, Role: models.RoleTeacher}

func (e *testEnv) addTeacher(t *testing.T, id, name string) {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	e.users.users[id] = &models.User{ID: id, Name: name, Email: id + "@school.test", Role: models.RoleTeacher, PasswordHash: hash}
}

func TestEditCourse(t *testing.T) {
	env := newTestEnv(t)
	env.addTeacher(t, "teacher-2", "Mr. Ratburn")
	ctx := context.Background()

	_, err := env.course.EditCourse(ctx, teacherID, courseCode, &models.EditCourseRequest{
		Name: "Renamed", CoursePassword: "new-secret", TeacherPassword: "wrong",
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.course.EditCourse(ctx, "teacher-2", courseCode, &models.EditCourseRequest{
		Name: "Renamed", TeacherPassword: password,
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	course, err := env.course.EditCourse(ctx, teacherID, courseCode, &models.EditCourseRequest{
		Name: " Renamed ", CoursePassword: "new-secret", TeacherPassword: password,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", course.Name)

	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: courseCode, Password: password})
	assert.ErrorIs(t, err, models.ErrUnauthorized, "old course password no longer works")
	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: courseCode, Password: "new-secret"})
	require.NoError(t, err)

	// без нового пароля курса старый остается
	_, err = env.course.EditCourse(ctx, teacherID, courseCode, &models.EditCourseRequest{
		Name: "Again", TeacherPassword: password,
	})
	require.NoError(t, err)
	_, err = env.course.Enroll(ctx, "student-3", &models.EnrollRequest{CourseCode: courseCode, Password: "new-secret"})
	require.NoError(t, err)
}

func TestDeleteCourseFreesTheCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.course.DeleteCourse(ctx, teacherID, courseCode, "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	require.NoError(t, env.course.DeleteCourse(ctx, teacherID, courseCode, password))

	stored := env.courses.courses[courseID]
	require.NotNil(t, stored.DeletedAt)
	assert.NotEqual(t, courseCode, stored.CourseCode)
	assert.LessOrEqual(t, len(stored.CourseCode), 20)

	_, err = env.course.GetCourse(ctx, teacherPrincipal, courseCode)
	assert.ErrorIs(t, err, models.ErrNotFound)

	courses, err := env.course.ListCourses(ctx, teacherPrincipal)
	require.NoError(t, err)
	assert.Empty(t, courses)
	courses, err = env.course.ListCourses(ctx, auth.Principal{UserID: studentID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, courses)

	recreated, err := env.course.CreateCourse(ctx, teacherID, &models.CreateCourseRequest{
		Name: "Intro again", CourseCode: courseCode, Password: "open-sesame",
	})
	require.NoError(t, err)
	assert.NotEqual(t, courseID, recreated.ID)
}

func TestForkCourse(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssignment(t, "a1")
	env.seedAssignment(t, "a2")
	env.openAssignment(t, "a2", models.DeadlinePointLoss)
	env.addTeacher(t, "teacher-2", "Mr. Ratburn")
	ctx := context.Background()

	req := &models.ForkCourseRequest{SourceCode: courseCode, Name: "Intro, fall", CourseCode: "CS101F", Password: "fall-pass"}

	_, err := env.course.ForkCourse(ctx, "teacher-2", req)
	assert.ErrorIs(t, err, models.ErrForbidden)

	forked, err := env.course.ForkCourse(ctx, teacherID, req)
	require.NoError(t, err)
	assert.Equal(t, "CS101F", forked.CourseCode)
	assert.Equal(t, teacherID, forked.OwnerID)
	assert.Empty(t, forked.OpenAssignments)

	copies, err := env.assignments.ListByCourse(ctx, forked.ID)
	require.NoError(t, err)
	require.Len(t, copies, 2)
	for _, a := range copies {
		assert.NotContains(t, []string{"a1", "a2"}, a.ID)
		assert.False(t, a.IsOpen)
		assert.Nil(t, a.DueDate)
		assert.Len(t, a.Questions, 3)
		assert.Len(t, a.Exercises, 1)
		assert.Equal(t, 20.0, a.PointsWorth)
	}

	source, err := env.assignments.GetByID(ctx, "a2")
	require.NoError(t, err)
	assert.True(t, source.IsOpen, "the source assignment is untouched")

	_, err = env.course.ForkCourse(ctx, teacherID, req)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCoTeacherInvite(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssignment(t, "a1")
	env.addTeacher(t, "teacher-2", "Mr. Ratburn")
	ctx := context.Background()

	_, err := env.course.GenerateInvite(ctx, teacherID, courseCode, "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = env.course.GenerateInvite(ctx, "teacher-2", courseCode, password)
	assert.ErrorIs(t, err, models.ErrForbidden)

	invite, err := env.course.GenerateInvite(ctx, teacherID, courseCode, password)
	require.NoError(t, err)
	assert.Len(t, invite.InviteCode, 8)
	assert.Equal(t, baseTime.Add(24*time.Hour), invite.ExpiresAt)

	_, err = env.course.JoinAsTeacher(ctx, "teacher-2", courseCode, "BADCODE1")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.course.JoinAsTeacher(ctx, teacherID, courseCode, invite.InviteCode)
	assert.ErrorIs(t, err, models.ErrConflict)

	course, err := env.course.JoinAsTeacher(ctx, "teacher-2", courseCode, invite.InviteCode)
	require.NoError(t, err)
	require.Len(t, course.Teachers, 1)
	assert.Equal(t, "Mr. Ratburn", course.Teachers[0].Name)

	// co-teachers see the course and manage its assignments
	coTeacher := auth.Principal{UserID: "teacher-2", Role: models.RoleTeacher}
	_, err = env.course.GetCourse(ctx, coTeacher, courseCode)
	require.NoError(t, err)
	courses, err := env.course.ListCourses(ctx, coTeacher)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	_, err = env.assignment.AddQuestion(ctx, "teacher-2", "a1")
	require.NoError(t, err)

	// but only the owner edits or deletes the course
	err = env.course.DeleteCourse(ctx, "teacher-2", courseCode, password)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCoTeacherInviteExpires(t *testing.T) {
	env := newTestEnv(t)
	env.addTeacher(t, "teacher-2", "Mr. Ratburn")
	ctx := context.Background()

	invite, err := env.course.GenerateInvite(ctx, teacherID, courseCode, password)
	require.NoError(t, err)

	env.clock = baseTime.Add(25 * time.Hour)
	_, err = env.course.JoinAsTeacher(ctx, "teacher-2", courseCode, invite.InviteCode)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Empty(t, env.courses.courses[courseID].InviteCode, "expired invites are cleared")

	_, err = env.course.JoinAsTeacher(ctx, "teacher-2", courseCode, invite.InviteCode)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestClassroomRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.course.AddClassroom(ctx, "stranger", courseCode, &models.CreateClassroomRequest{Name: "Period 1"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	first, err := env.course.AddClassroom(ctx, teacherID, courseCode, &models.CreateClassroomRequest{Name: "Period 1"})
	require.NoError(t, err)
	assert.Len(t, first.ClassCode, 6)
	second, err := env.course.AddClassroom(ctx, teacherID, courseCode, &models.CreateClassroomRequest{Name: "Period 2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ClassCode, second.ClassCode)

	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: courseCode, Password: password, GradebookID: "g-2"})
	assert.ErrorIs(t, err, models.ErrValidation, "class code is required once classrooms exist")
	_, err = env.course.Enroll(ctx, "student-2", &models.EnrollRequest{CourseCode: courseCode, Password: password, ClassCode: second.ClassCode})
	assert.EqualError(t, err, "Please include your student ID.")

	course, err := env.course.Enroll(ctx, "student-2", &models.EnrollRequest{
		CourseCode: courseCode, Password: password, ClassCode: second.ClassCode, GradebookID: " g-2 ",
	})
	require.NoError(t, err)
	assert.Empty(t, course.Classrooms, "students do not see rosters")

	stored := env.courses.courses[courseID]
	require.Len(t, stored.Classrooms, 2)
	assert.Empty(t, stored.Classrooms[0].Students)
	assert.Equal(t, []models.ClassroomStudent{{UserID: "student-2", GradebookID: "g-2"}}, stored.Classrooms[1].Students)

	details, err := env.course.GetCourse(ctx, auth.Principal{UserID: "student-2", Role: models.RoleStudent}, courseCode)
	require.NoError(t, err)
	assert.Empty(t, details.Classrooms)
	details, err = env.course.GetCourse(ctx, teacherPrincipal, courseCode)
	require.NoError(t, err)
	assert.Len(t, details.Classrooms, 2)

	require.NoError(t, env.course.RemoveClassroom(ctx, teacherID, courseCode, first.ClassCode))
	err = env.course.RemoveClassroom(ctx, teacherID, courseCode, first.ClassCode)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
