package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/lifecycle"
	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/repository"
)

type CourseService interface {
	CreateCourse(ctx context.Context, teacherID string, req *models.CreateCourseRequest) (*models.Course, error)
	GetCourse(ctx context.Context, p auth.Principal, code string) (*models.CourseDetails, error)
	ListCourses(ctx context.Context, p auth.Principal) ([]models.Course, error)
	Enroll(ctx context.Context, studentID string, req *models.EnrollRequest) (*models.Course, error)

	EditCourse(ctx context.Context, teacherID, code string, req *models.EditCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, teacherID, code, password string) error
	ForkCourse(ctx context.Context, teacherID string, req *models.ForkCourseRequest) (*models.Course, error)

	GenerateInvite(ctx context.Context, teacherID, code, password string) (*models.InviteResponse, error)
	JoinAsTeacher(ctx context.Context, teacherID, code, inviteCode string) (*models.Course, error)

	AddClassroom(ctx context.Context, teacherID, code string, req *models.CreateClassroomRequest) (*models.Classroom, error)
	RemoveClassroom(ctx context.Context, teacherID, code, classCode string) error
}

type courseService struct {
	access
	userRepo   repository.UserRepository
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	bcryptCost int,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		access:     access{courseRepo: courseRepo, assignmentRepo: assignmentRepo},
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, teacherID string, req *models.CreateCourseRequest) (*models.Course, error) {
	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	course := &models.Course{
		ID:              uuid.New().String(),
		OwnerID:         teacherID,
		Name:            strings.TrimSpace(req.Name),
		CourseCode:      strings.TrimSpace(req.CourseCode),
		PasswordHash:    hash,
		OpenAssignments: []models.OpenAssignment{},
		Teachers:        []models.CourseTeacher{},
		Classrooms:      []models.Classroom{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("course_code", course.CourseCode).
		Str("owner_id", teacherID).
		Msg("Course created")

	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, p auth.Principal, code string) (*models.CourseDetails, error) {
	course, err := s.courseByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if p.IsTeacher() {
		if !course.IsTeacher(p.UserID) {
			return nil, models.Forbiddenf("You are not the teacher of this course.")
		}
	} else {
		enrolled, err := s.courseRepo.IsEnrolled(ctx, course.ID, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, models.Forbiddenf("You are not enrolled in this course.")
		}
	}

	assignments, err := s.assignmentRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	details := &models.CourseDetails{
		Course:      *course,
		Assignments: []models.AssignmentSummary{},
	}
	if !p.IsTeacher() {
		details.Course = *course.StudentView()
	}
	for _, a := range assignments {
		// Студенты не видят черновики
		if !p.IsTeacher() && lifecycle.StateOf(&a) == lifecycle.StateDraft {
			continue
		}
		details.Assignments = append(details.Assignments, models.AssignmentSummary{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			IsOpen:      a.IsOpen,
			DueDate:     a.DueDate,
			PointsWorth: a.PointsWorth,
		})
	}

	owner, err := s.userRepo.GetByID(ctx, course.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course owner: %w", err)
	}
	if owner != nil {
		details.OwnerName = owner.Name
	}

	return details, nil
}

func (s *courseService) ListCourses(ctx context.Context, p auth.Principal) ([]models.Course, error) {
	var (
		courses []models.Course
		err     error
	)
	if p.IsTeacher() {
		courses, err = s.courseRepo.ListByTeacher(ctx, p.UserID)
	} else {
		courses, err = s.courseRepo.ListByStudent(ctx, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	if !p.IsTeacher() {
		for i := range courses {
			courses[i] = *courses[i].StudentView()
		}
	}
	return courses, nil
}

// Enroll registers a student with the course password. Courses with classrooms
// also need a class code and the student's gradebook id.
func (s *courseService) Enroll(ctx context.Context, studentID string, req *models.EnrollRequest) (*models.Course, error) {
	course, err := s.courseByCode(ctx, strings.TrimSpace(req.CourseCode))
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(course.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.Unauthorizedf("Incorrect course password.")
	}

	enrolled, err := s.courseRepo.IsEnrolled(ctx, course.ID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, models.Conflictf("You are already enrolled in this course.")
	}

	if len(course.Classrooms) > 0 {
		if err := course.RegisterStudent(studentID, strings.TrimSpace(req.ClassCode), strings.TrimSpace(req.GradebookID)); err != nil {
			return nil, err
		}
		course.UpdatedAt = s.now()
		if err := s.courseRepo.Update(ctx, course); err != nil {
			return nil, fmt.Errorf("failed to update course: %w", err)
		}
	}

	if err := s.courseRepo.Enroll(ctx, course.ID, studentID); err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("student_id", studentID).
		Str("class_code", req.ClassCode).
		Msg("Student enrolled")

	return course.StudentView(), nil
}

// EditCourse renames the course and, when given, replaces its password.
func (s *courseService) EditCourse(ctx context.Context, teacherID, code string, req *models.EditCourseRequest) (*models.Course, error) {
	if err := s.confirmPassword(ctx, teacherID, req.TeacherPassword); err != nil {
		return nil, err
	}

	course, err := s.ownCourse(ctx, teacherID, code)
	if err != nil {
		return nil, err
	}

	course.Name = strings.TrimSpace(req.Name)
	if req.CoursePassword != "" {
		hash, err := auth.HashPassword(req.CoursePassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		course.PasswordHash = hash
	}
	course.UpdatedAt = s.now()

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Bool("password_changed", req.CoursePassword != "").
		Msg("Course edited")

	return course, nil
}

// DeleteCourse hides the course and frees its code. Assignments, enrollments
// and submissions are kept.
func (s *courseService) DeleteCourse(ctx context.Context, teacherID, code, password string) error {
	if err := s.confirmPassword(ctx, teacherID, password); err != nil {
		return err
	}

	course, err := s.ownCourse(ctx, teacherID, code)
	if err != nil {
		return err
	}

	now := s.now()
	course.SoftDelete("deleted-"+randomCode(12), now)
	course.UpdatedAt = now

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("course_code", code).
		Msg("Course deleted")

	return nil
}

// ForkCourse creates a new course owned by teacherID with a draft copy of every
// assignment in the source course.
func (s *courseService) ForkCourse(ctx context.Context, teacherID string, req *models.ForkCourseRequest) (*models.Course, error) {
	source, err := s.ownedCourse(ctx, teacherID, strings.TrimSpace(req.SourceCode))
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.ListByCourse(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	course, err := s.CreateCourse(ctx, teacherID, &models.CreateCourseRequest{
		Name:       req.Name,
		CourseCode: req.CourseCode,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range assignments {
		// распределяем created_at, чтобы сохранить порядок исходного курса
		forked := assignments[i].Fork(uuid.New().String(), course.ID, now.Add(time.Duration(i)*time.Millisecond))
		if err := s.assignmentRepo.Create(ctx, forked); err != nil {
			return nil, fmt.Errorf("failed to fork assignment %s: %w", assignments[i].ID, err)
		}
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("source_course_id", source.ID).
		Int("assignments", len(assignments)).
		Msg("Course forked")

	return course, nil
}

// GenerateInvite issues a co-teacher invite code that is valid for a day.
func (s *courseService) GenerateInvite(ctx context.Context, teacherID, code, password string) (*models.InviteResponse, error) {
	if err := s.confirmPassword(ctx, teacherID, password); err != nil {
		return nil, err
	}

	course, err := s.ownCourse(ctx, teacherID, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	course.IssueInvite(randomCode(8), now)
	course.UpdatedAt = now

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return &models.InviteResponse{
		InviteCode: course.InviteCode,
		ExpiresAt:  now.Add(models.InviteTTL),
	}, nil
}

func (s *courseService) JoinAsTeacher(ctx context.Context, teacherID, code, inviteCode string) (*models.Course, error) {
	course, err := s.courseByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if course.IsTeacher(teacherID) {
		return nil, models.Conflictf("You're already part of this course!")
	}

	now := s.now()
	if err := course.RedeemInvite(strings.TrimSpace(inviteCode), now); err != nil {
		// истекшее приглашение сбрасывается
		if errors.Is(err, models.ErrInvalidState) {
			course.UpdatedAt = now
			if uerr := s.courseRepo.Update(ctx, course); uerr != nil {
				s.logger.Error().Err(uerr).Str("course_id", course.ID).Msg("Failed to clear expired invite")
			}
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.NotFoundf("That user does not exist.")
	}

	course.AddTeacher(user, now)
	course.UpdatedAt = now
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("teacher_id", teacherID).
		Msg("Teacher joined course")

	return course, nil
}

func (s *courseService) AddClassroom(ctx context.Context, teacherID, code string, req *models.CreateClassroomRequest) (*models.Classroom, error) {
	course, err := s.ownedCourse(ctx, teacherID, code)
	if err != nil {
		return nil, err
	}

	classCode := randomCode(6)
	for course.Classroom(classCode) != nil {
		classCode = randomCode(6)
	}

	classroom, err := course.AddClassroom(strings.TrimSpace(req.Name), classCode)
	if err != nil {
		return nil, err
	}
	created := *classroom
	course.UpdatedAt = s.now()

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("class_code", created.ClassCode).
		Msg("Classroom added")

	return &created, nil
}

func (s *courseService) RemoveClassroom(ctx context.Context, teacherID, code, classCode string) error {
	course, err := s.ownedCourse(ctx, teacherID, code)
	if err != nil {
		return err
	}

	if err := course.RemoveClassroom(classCode); err != nil {
		return err
	}
	course.UpdatedAt = s.now()

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("class_code", classCode).
		Msg("Classroom removed")

	return nil
}

// ownCourse is ownedCourse restricted to the owner; co-teachers cannot edit,
// delete or invite.
func (s *courseService) ownCourse(ctx context.Context, teacherID, code string) (*models.Course, error) {
	course, err := s.courseByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != teacherID {
		return nil, models.Forbiddenf("Must be the course owner to do this.")
	}
	return course, nil
}

func (s *courseService) confirmPassword(ctx context.Context, userID, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return models.NotFoundf("That user does not exist.")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn().Str("user_id", userID).Msg("Course re-authentication failed")
		return models.Unauthorizedf("Incorrect password.")
	}
	return nil
}

// randomCode returns n hex characters taken from a random UUID.
func randomCode(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:n])
}
