package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/models"
)

/* ---------------- In-memory fakes for the repository and integration interfaces ---------------- */

// clone deep-copies through JSON so stored records never alias what callers mutate.
func clone[T any](t *testing.T, v *T) *T {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	out := new(T)
	require.NoError(t, json.Unmarshal(data, out))
	return out
}

type fakeUserRepo struct {
	t     *testing.T
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return models.Conflictf("That email address is already in use.")
		}
	}
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeCourseRepo struct {
	t        *testing.T
	mu       sync.Mutex
	courses  map[string]*models.Course
	enrolled map[string]bool // courseID|studentID
}

// cloneCourse also carries the fields that never leave the server as JSON.
func cloneCourse(t *testing.T, c *models.Course) *models.Course {
	t.Helper()
	out := clone(t, c)
	out.PasswordHash = c.PasswordHash
	out.InviteCode = c.InviteCode
	out.InviteGeneratedAt = c.InviteGeneratedAt
	out.DeletedAt = c.DeletedAt
	return out
}

func (r *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.courses {
		if c.CourseCode == course.CourseCode {
			return models.Conflictf("That course code is already taken.")
		}
	}
	r.courses[course.ID] = cloneCourse(r.t, course)
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	return cloneCourse(r.t, c), nil
}

func (r *fakeCourseRepo) GetByCode(_ context.Context, code string) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.courses {
		if c.CourseCode == code && c.DeletedAt == nil {
			return cloneCourse(r.t, c), nil
		}
	}
	return nil, nil
}

func (r *fakeCourseRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	courses := []models.Course{}
	for _, c := range r.courses {
		if c.DeletedAt == nil && c.IsTeacher(teacherID) {
			courses = append(courses, *cloneCourse(r.t, c))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseCode < courses[j].CourseCode })
	return courses, nil
}

func (r *fakeCourseRepo) ListByStudent(_ context.Context, studentID string) ([]models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	courses := []models.Course{}
	for _, c := range r.courses {
		if c.DeletedAt == nil && r.enrolled[c.ID+"|"+studentID] {
			courses = append(courses, *cloneCourse(r.t, c))
		}
	}
	return courses, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.courses[course.ID]
	if !ok {
		return models.NotFoundf("That course does not exist.")
	}
	for id, c := range r.courses {
		if id != course.ID && c.CourseCode == course.CourseCode {
			return models.Conflictf("That course code is already taken.")
		}
	}
	updated := cloneCourse(r.t, course)
	updated.OwnerID = stored.OwnerID
	updated.OpenAssignments = stored.OpenAssignments
	r.courses[course.ID] = updated
	return nil
}

func (r *fakeCourseRepo) UpdateOpenAssignments(_ context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[course.ID]
	if !ok {
		return models.NotFoundf("That course does not exist.")
	}
	c.OpenAssignments = clone(r.t, course).OpenAssignments
	return nil
}

func (r *fakeCourseRepo) Enroll(_ context.Context, courseID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrolled[courseID+"|"+studentID] = true
	return nil
}

func (r *fakeCourseRepo) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrolled[courseID+"|"+studentID], nil
}

type fakeAssignmentRepo struct {
	t           *testing.T
	mu          sync.Mutex
	assignments map[string]*models.Assignment
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[a.ID] = clone(r.t, a)
	return nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	return clone(r.t, a), nil
}

func (r *fakeAssignmentRepo) ListByCourse(_ context.Context, courseID string) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range r.assignments {
		if a.CourseID == courseID {
			out = append(out, *clone(r.t, a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, a *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return models.NotFoundf("That assignment does not exist.")
	}
	r.assignments[a.ID] = clone(r.t, a)
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments, id)
	return nil
}

type fakeSubmissionRepo struct {
	t           *testing.T
	mu          sync.Mutex
	submissions map[string]*models.Submission
	names       map[string]string // studentID -> name, for the gradebook join
	creates     int
	saves       int
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.StudentID == sub.StudentID && s.AssignmentID == sub.AssignmentID {
			return models.Conflictf("A submission for this assignment already exists.")
		}
	}
	r.submissions[sub.ID] = clone(r.t, sub)
	r.creates++
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	return clone(r.t, s), nil
}

func (r *fakeSubmissionRepo) GetByStudentAndAssignment(_ context.Context, studentID, assignmentID string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.StudentID == studentID && s.AssignmentID == assignmentID {
			return clone(r.t, s), nil
		}
	}
	return nil, nil
}

func (r *fakeSubmissionRepo) ListByAssignment(_ context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []models.SubmissionWithDetails{}
	for _, s := range r.submissions {
		if s.AssignmentID == assignmentID {
			all = append(all, models.SubmissionWithDetails{
				Submission:  *clone(r.t, s),
				StudentName: r.names[s.StudentID],
			})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentName < all[j].StudentName })

	total := len(all)
	if offset >= total {
		return []models.SubmissionWithDetails{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *fakeSubmissionRepo) Save(_ context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[sub.ID]; !ok {
		return models.NotFoundf("That submission does not exist.")
	}
	r.submissions[sub.ID] = clone(r.t, sub)
	r.saves++
	return nil
}

func (r *fakeSubmissionRepo) writes() (creates, saves int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates, r.saves
}

func (r *fakeSubmissionRepo) only(t *testing.T) *models.Submission {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.submissions, 1)
	for _, s := range r.submissions {
		return clone(t, s)
	}
	return nil
}

type fakeSandbox struct {
	mu       sync.Mutex
	resp     *models.SandboxResponse
	err      error
	requests []*models.SandboxRequest
}

func (f *fakeSandbox) Compile(_ context.Context, req *models.SandboxRequest) (*models.SandboxResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	opened []*models.AssignmentOpenedEvent
	closed []*models.AssignmentClosedEvent
	graded []*models.SubmissionGradedEvent
	err    error
}

func (p *fakePublisher) PublishAssignmentOpened(_ context.Context, e *models.AssignmentOpenedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, e)
	return p.err
}

func (p *fakePublisher) PublishAssignmentClosed(_ context.Context, e *models.AssignmentClosedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, e)
	return p.err
}

func (p *fakePublisher) PublishSubmissionGraded(_ context.Context, e *models.SubmissionGradedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graded = append(p.graded, e)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeArchive struct {
	mu        sync.Mutex
	snapshots []*models.CodeSnapshot
	err       error
}

func (a *fakeArchive) ArchiveExercise(_ context.Context, s *models.CodeSnapshot) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots = append(a.snapshots, s)
	if a.err != nil {
		return "", a.err
	}
	return s.ObjectKey(), nil
}

/* ---------------- Test environment ---------------- */

const (
	teacherID  = "teacher-1"
	studentID  = "student-1"
	courseID   = "course-1"
	courseCode = "CS101"
	password   = "hunter22"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	users       *fakeUserRepo
	courses     *fakeCourseRepo
	assignments *fakeAssignmentRepo
	submissions *fakeSubmissionRepo
	sandbox     *fakeSandbox
	publisher   *fakePublisher
	archive     *fakeArchive
	clock       time.Time

	auth       *authService
	course     *courseService
	assignment *assignmentService
	submission *submissionService
	report     *reportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	env := &testEnv{
		users:       &fakeUserRepo{t: t, users: map[string]*models.User{}},
		courses:     &fakeCourseRepo{t: t, courses: map[string]*models.Course{}, enrolled: map[string]bool{}},
		assignments: &fakeAssignmentRepo{t: t, assignments: map[string]*models.Assignment{}},
		submissions: &fakeSubmissionRepo{t: t, submissions: map[string]*models.Submission{}, names: map[string]string{}},
		sandbox:     &fakeSandbox{},
		publisher:   &fakePublisher{},
		archive:     &fakeArchive{},
		clock:       baseTime,
	}
	now := func() time.Time { return env.clock }

	tokens := auth.NewTokenService("test-secret", time.Hour)
	env.auth = NewAuthService(env.users, tokens, 4, logger).(*authService)
	env.course = NewCourseService(env.courses, env.assignments, env.users, 4, logger).(*courseService)
	env.course.now = now

	env.assignment = NewAssignmentService(env.assignments, env.courses, env.sandbox, env.publisher, logger).(*assignmentService)
	env.assignment.now = now

	env.submission = NewSubmissionService(env.submissions, env.assignments, env.courses, env.sandbox, env.publisher, env.archive, logger).(*submissionService)
	env.submission.now = now

	env.report = NewReportService(env.submissions, env.assignments, env.courses, logger).(*reportService)

	// Учитель, студент и курс с записанным студентом
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	env.users.users[teacherID] = &models.User{ID: teacherID, Name: "Ms. Frizzle", Email: "frizzle@school.test", Role: models.RoleTeacher, PasswordHash: hash}
	env.users.users[studentID] = &models.User{ID: studentID, Name: "Arnold", Email: "arnold@school.test", Role: models.RoleStudent, PasswordHash: hash}
	env.courses.courses[courseID] = &models.Course{ID: courseID, OwnerID: teacherID, Name: "Intro", CourseCode: courseCode, PasswordHash: hash, OpenAssignments: []models.OpenAssignment{}}
	env.courses.enrolled[courseID+"|"+studentID] = true
	env.submissions.names[studentID] = "Arnold"

	return env
}

func floatPtr(f float64) *float64 { return &f }

// seedAssignment stores an assignment with a fill in the blank question, a
// multiple choice question, a free response and one two-test exercise.
func (e *testEnv) seedAssignment(t *testing.T, id string) *models.Assignment {
	t.Helper()
	java, ok := models.LookupLanguage("java")
	require.True(t, ok)

	tries := 3
	a := &models.Assignment{
		ID:          id,
		CourseID:    courseID,
		Name:        "Loops",
		PointsWorth: 20,
		PointLoss:   5,
		Questions: []models.Question{
			{Prompt: "Capital of France?", PointsWorth: 2, TriesAllowed: 3, Body: models.FillBlank{AcceptedAnswers: []string{"paris"}}},
			{Prompt: "2+2?", PointsWorth: 3, TriesAllowed: 2, Body: models.MultipleChoice{Options: []string{"3", "4", "5"}, CorrectIndex: 1}},
			{Prompt: "Explain loops.", PointsWorth: 5, TriesAllowed: models.UnlimitedTries, Body: models.FreeResponse{}},
		},
		Exercises: []models.Exercise{{
			Title:        "Sum",
			Language:     java,
			PointsWorth:  10,
			TriesAllowed: &tries,
			Context:      "Write sum()",
			Code: []models.CodeFile{
				{Name: "Main.java", Code: "class Main {}"},
				{Name: "Helper.java", Code: "class Helper { /* secret */ }", IsHidden: true},
			},
			SolutionCode: []models.CodeFile{},
			Tests: []models.ExerciseTest{
				{Name: "t1", PointsWorth: floatPtr(5), Description: "adds", Code: "assert sum(1,1)==2"},
				{Name: "t2", PointsWorth: floatPtr(5), Description: "negatives", Code: "assert sum(-1,1)==0"},
			},
		}},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	require.NoError(t, e.assignments.Create(context.Background(), a))
	return a
}

// openAssignment opens a seeded assignment due one day after baseTime.
func (e *testEnv) openAssignment(t *testing.T, id string, deadline models.DeadlineType) {
	t.Helper()
	_, err := e.assignment.OpenAssignment(context.Background(), teacherID, id, &models.OpenAssignmentRequest{
		DueDate:      baseTime.Add(24 * time.Hour),
		DeadlineType: string(deadline),
	})
	require.NoError(t, err)
}
