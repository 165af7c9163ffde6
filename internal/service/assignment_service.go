package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/grading"
	"github.com/RubachokBoss/coursework-service/internal/lifecycle"
	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/repository"
	"github.com/RubachokBoss/coursework-service/internal/service/integration"
)

type AssignmentService interface {
	CreateAssignment(ctx context.Context, teacherID, courseCode string, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	GetForTeacher(ctx context.Context, teacherID, assignmentID string) (*models.Assignment, error)
	GetForStudent(ctx context.Context, studentID, assignmentID string) (*models.StudentAssignment, error)
	EditAssignment(ctx context.Context, teacherID, assignmentID string, req *models.EditAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, teacherID, assignmentID string) error

	OpenAssignment(ctx context.Context, teacherID, assignmentID string, req *models.OpenAssignmentRequest) (*models.Assignment, error)
	CloseAssignment(ctx context.Context, assignmentID string, grant lifecycle.CloseGrant) (*models.Assignment, error)

	AddQuestion(ctx context.Context, teacherID, assignmentID string) (*models.Assignment, error)
	EditQuestion(ctx context.Context, teacherID, assignmentID string, index int, req *models.EditQuestionRequest) (*models.Assignment, error)
	RemoveQuestion(ctx context.Context, teacherID, assignmentID string, index int) (*models.Assignment, error)

	AddExercise(ctx context.Context, teacherID, assignmentID string, req *models.CreateExerciseRequest) (*models.Assignment, error)
	EditExercise(ctx context.Context, teacherID, assignmentID string, index int, edit *models.ExerciseEdit) (*models.Exercise, error)
	RemoveExercise(ctx context.Context, teacherID, assignmentID string, index int) (*models.Assignment, error)
	TestExerciseSolution(ctx context.Context, teacherID, assignmentID string, index int, code []models.CodeFile) (*models.GradingResult, error)
}

type assignmentService struct {
	access
	sandbox   integration.SandboxClient
	publisher integration.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	courseRepo repository.CourseRepository,
	sandbox integration.SandboxClient,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		access:    access{courseRepo: courseRepo, assignmentRepo: assignmentRepo},
		sandbox:   sandbox,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, teacherID, courseCode string, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	course, err := s.ownedCourse(ctx, teacherID, courseCode)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidatePoints(req.PointsWorth, req.PointLoss); err != nil {
		return nil, err
	}

	now := s.now()
	assignment := &models.Assignment{
		ID:          uuid.New().String(),
		CourseID:    course.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PointsWorth: req.PointsWorth,
		PointLoss:   req.PointLoss,
		Questions:   []models.Question{},
		Exercises:   []models.Exercise{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("course_id", course.ID).
		Msg("Assignment created")

	return assignment, nil
}

func (s *assignmentService) GetForTeacher(ctx context.Context, teacherID, assignmentID string) (*models.Assignment, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	return assignment, err
}

func (s *assignmentService) GetForStudent(ctx context.Context, studentID, assignmentID string) (*models.StudentAssignment, error) {
	assignment, err := s.studentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}
	return assignment.StudentView(), nil
}

func (s *assignmentService) EditAssignment(ctx context.Context, teacherID, assignmentID string, req *models.EditAssignmentRequest) (*models.Assignment, error) {
	assignment, course, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	pointsWorth, pointLoss := assignment.PointsWorth, assignment.PointLoss
	if req.PointsWorth != nil {
		pointsWorth = *req.PointsWorth
	}
	if req.PointLoss != nil {
		pointLoss = *req.PointLoss
	}
	if err := lifecycle.ValidatePoints(pointsWorth, pointLoss); err != nil {
		return nil, err
	}

	if req.Name != nil {
		assignment.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	assignment.PointsWorth = pointsWorth
	assignment.PointLoss = pointLoss
	assignment.UpdatedAt = s.now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	// Обновляем запись в списке открытых заданий курса
	if assignment.IsOpen {
		course.AddOpenAssignment(assignment)
		if err := s.saveRoster(ctx, course); err != nil {
			return nil, err
		}
	}

	return assignment, nil
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, teacherID, assignmentID string) error {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return err
	}
	if lifecycle.StateOf(assignment) != lifecycle.StateDraft {
		return models.InvalidStatef("Only assignments that were never opened can be deleted.")
	}

	if err := s.assignmentRepo.Delete(ctx, assignment.ID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Msg("Assignment deleted")
	return nil
}

func (s *assignmentService) OpenAssignment(ctx context.Context, teacherID, assignmentID string, req *models.OpenAssignmentRequest) (*models.Assignment, error) {
	assignment, course, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := lifecycle.Open(assignment, req.DueDate, req.DeadlineType, now); err != nil {
		return nil, err
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	course.AddOpenAssignment(assignment)
	course.UpdatedAt = now
	if err := s.saveRoster(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("course_id", course.ID).
		Time("due_date", *assignment.DueDate).
		Str("deadline_type", string(assignment.DeadlineType)).
		Msg("Assignment opened")

	event := &models.AssignmentOpenedEvent{
		AssignmentID: assignment.ID,
		CourseID:     course.ID,
		Name:         assignment.Name,
		PointsWorth:  assignment.PointsWorth,
		DueDate:      assignment.DueDate.Unix(),
		Timestamp:    now.Unix(),
	}
	if err := s.publisher.PublishAssignmentOpened(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to publish assignment opened event")
	}

	return assignment, nil
}

// CloseAssignment requires the grant handed out by AuthService.Reauthenticate.
func (s *assignmentService) CloseAssignment(ctx context.Context, assignmentID string, grant lifecycle.CloseGrant) (*models.Assignment, error) {
	assignment, course, err := s.ownedAssignment(ctx, grant.TeacherID(), assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := lifecycle.Close(assignment, grant, now); err != nil {
		return nil, err
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	if course.RemoveOpenAssignment(assignment.ID) > 0 {
		course.UpdatedAt = now
		if err := s.saveRoster(ctx, course); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("closed_by", grant.TeacherID()).
		Msg("Assignment closed")

	event := &models.AssignmentClosedEvent{
		AssignmentID: assignment.ID,
		CourseID:     course.ID,
		ClosedBy:     grant.TeacherID(),
		Timestamp:    now.Unix(),
	}
	if err := s.publisher.PublishAssignmentClosed(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to publish assignment closed event")
	}

	return assignment, nil
}

func (s *assignmentService) saveRoster(ctx context.Context, course *models.Course) error {
	if err := s.courseRepo.UpdateOpenAssignments(ctx, course); err != nil {
		return fmt.Errorf("failed to update course open assignments: %w", err)
	}
	return nil
}

func (s *assignmentService) AddQuestion(ctx context.Context, teacherID, assignmentID string) (*models.Assignment, error) {
	return s.mutateStructure(ctx, teacherID, assignmentID, func(a *models.Assignment) error {
		a.Questions = append(a.Questions, models.Question{})
		return nil
	})
}

func (s *assignmentService) RemoveQuestion(ctx context.Context, teacherID, assignmentID string, index int) (*models.Assignment, error) {
	return s.mutateStructure(ctx, teacherID, assignmentID, func(a *models.Assignment) error {
		if _, err := a.Question(index); err != nil {
			return err
		}
		a.Questions = append(a.Questions[:index], a.Questions[index+1:]...)
		return nil
	})
}

func (s *assignmentService) AddExercise(ctx context.Context, teacherID, assignmentID string, req *models.CreateExerciseRequest) (*models.Assignment, error) {
	language, ok := models.LookupLanguage(req.Language)
	if !ok {
		return nil, models.Validationf("Unsupported language %q.", req.Language)
	}

	return s.mutateStructure(ctx, teacherID, assignmentID, func(a *models.Assignment) error {
		a.Exercises = append(a.Exercises, models.NewExercise(language, strings.TrimSpace(req.Title)))
		return nil
	})
}

func (s *assignmentService) RemoveExercise(ctx context.Context, teacherID, assignmentID string, index int) (*models.Assignment, error) {
	return s.mutateStructure(ctx, teacherID, assignmentID, func(a *models.Assignment) error {
		if _, err := a.Exercise(index); err != nil {
			return err
		}
		a.Exercises = append(a.Exercises[:index], a.Exercises[index+1:]...)
		return nil
	})
}

// mutateStructure applies fn to a Draft assignment and persists it.
func (s *assignmentService) mutateStructure(ctx context.Context, teacherID, assignmentID string, fn func(a *models.Assignment) error) (*models.Assignment, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckStructureEditable(assignment); err != nil {
		return nil, err
	}
	if err := fn(assignment); err != nil {
		return nil, err
	}

	assignment.UpdatedAt = s.now()
	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Int("questions", len(assignment.Questions)).
		Int("exercises", len(assignment.Exercises)).
		Msg("Assignment structure changed")

	return assignment, nil
}

// EditQuestion replaces a question's content. Allowed in every state; only
// adding and removing is restricted to drafts.
func (s *assignmentService) EditQuestion(ctx context.Context, teacherID, assignmentID string, index int, req *models.EditQuestionRequest) (*models.Assignment, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	q, err := assignment.Question(index)
	if err != nil {
		return nil, err
	}

	built, err := models.BuildQuestion(req)
	if err != nil {
		return nil, err
	}
	*q = built
	assignment.UpdatedAt = s.now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	return assignment, nil
}

func (s *assignmentService) EditExercise(ctx context.Context, teacherID, assignmentID string, index int, edit *models.ExerciseEdit) (*models.Exercise, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	exercise, err := assignment.Exercise(index)
	if err != nil {
		return nil, err
	}

	exercise.Edit(*edit)
	exercise.CheckFinished()
	assignment.UpdatedAt = s.now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	return exercise, nil
}

// TestExerciseSolution runs the teacher's solution against the exercise's tests
// and stores it along with whether it passed.
func (s *assignmentService) TestExerciseSolution(ctx context.Context, teacherID, assignmentID string, index int, code []models.CodeFile) (*models.GradingResult, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	exercise, err := assignment.Exercise(index)
	if err != nil {
		return nil, err
	}

	resp, err := s.sandbox.Compile(ctx, models.NewSandboxRequest(exercise, code))
	if err != nil {
		return nil, err
	}
	result := grading.MapSandboxResult(exercise.Tests, resp)

	allPassed := result.IsCorrect
	for _, tr := range result.TestResults {
		if !tr.Passed {
			allPassed = false
		}
	}

	exercise.SaveTeacherSolution(allPassed, code)
	exercise.CheckFinished()
	assignment.UpdatedAt = s.now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Int("exercise_index", index).
		Bool("tested", allPassed).
		Msg("Teacher solution tested")

	return result, nil
}
