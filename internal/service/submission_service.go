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

type SubmissionService interface {
	GetOrCreate(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
	SubmitQuestionAnswer(ctx context.Context, studentID, assignmentID string, index int, answer models.Answer) (*models.QuestionResult, error)
	SaveExerciseAnswer(ctx context.Context, studentID, assignmentID string, index int, code []models.CodeFile) error
	SubmitExerciseAnswer(ctx context.Context, studentID, assignmentID string, index int, code []models.CodeFile) (*models.GradingResult, error)

	ListByAssignment(ctx context.Context, teacherID, assignmentID string, page, limit int) (*models.SubmissionsResponse, error)
	GetForTeacher(ctx context.Context, teacherID, submissionID string) (*models.Submission, error)
	GradeQuestion(ctx context.Context, teacherID, submissionID string, index int, points float64) (*models.Submission, error)
	AddComment(ctx context.Context, teacherID, submissionID string, req *models.AddCommentRequest) (*models.Submission, error)
}

type submissionService struct {
	access
	submissionRepo repository.SubmissionRepository
	sandbox        integration.SandboxClient
	publisher      integration.EventPublisher
	archive        integration.CodeArchive
	logger         zerolog.Logger
	now            func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	courseRepo repository.CourseRepository,
	sandbox integration.SandboxClient,
	publisher integration.EventPublisher,
	archive integration.CodeArchive,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		access:         access{courseRepo: courseRepo, assignmentRepo: assignmentRepo},
		submissionRepo: submissionRepo,
		sandbox:        sandbox,
		publisher:      publisher,
		archive:        archive,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *submissionService) GetOrCreate(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	assignment, err := s.studentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	submission, isNew, err := s.loadSubmission(ctx, studentID, assignment)
	if err != nil {
		return nil, err
	}
	if isNew {
		if err := s.store(ctx, submission, true); err != nil {
			return nil, err
		}
	}

	return submission, nil
}

// loadSubmission returns the student's record sized to the assignment, or a new
// one that is not stored yet.
func (s *submissionService) loadSubmission(ctx context.Context, studentID string, assignment *models.Assignment) (*models.Submission, bool, error) {
	submission, err := s.submissionRepo.GetByStudentAndAssignment(ctx, studentID, assignment.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission != nil {
		submission.Fit(assignment)
		return submission, false, nil
	}

	return models.NewSubmission(uuid.New().String(), studentID, assignment, s.now()), true, nil
}

// store writes the whole record once. A create that loses the race on the
// unique (student, assignment) index fails with Conflict.
func (s *submissionService) store(ctx context.Context, submission *models.Submission, isNew bool) error {
	if !isNew {
		if err := s.submissionRepo.Save(ctx, submission); err != nil {
			return fmt.Errorf("failed to save submission: %w", err)
		}
		return nil
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("student_id", submission.StudentID).
		Str("assignment_id", submission.AssignmentID).
		Msg("Submission created")

	return nil
}

func (s *submissionService) SubmitQuestionAnswer(ctx context.Context, studentID, assignmentID string, index int, answer models.Answer) (*models.QuestionResult, error) {
	assignment, err := s.studentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	late, err := lifecycle.CheckAcceptingSubmissions(assignment, now)
	if err != nil {
		return nil, err
	}

	question, err := assignment.Question(index)
	if err != nil {
		return nil, err
	}

	correct, err := grading.Validate(*question, answer)
	if err != nil {
		return nil, err
	}
	// Домашние свободные ответы засчитываются автоматически
	_, isFree := question.Body.(models.FreeResponse)
	credit := correct || (isFree && question.IsHomework)

	submission, isNew, err := s.loadSubmission(ctx, studentID, assignment)
	if err != nil {
		return nil, err
	}

	outcome := grading.ApplyAttempt(submission.Questions[index], question.TriesAllowed, question.PointsWorth, answer.String(), credit)
	submission.Questions[index] = outcome.Attempt
	if late {
		submission.IsLate = true
	}
	submission.PointsEarned = grading.Total(submission, assignment)
	submission.UpdatedAt = now

	if err := s.store(ctx, submission, isNew); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Int("question_index", index).
		Bool("correct", correct).
		Int("tries", outcome.Attempt.Tries).
		Bool("over_limit", outcome.OverLimit).
		Bool("late", late).
		Msg("Question answer submitted")

	s.publishGraded(ctx, submission, "question", index, outcome.Attempt.Correct, outcome.Attempt.Points, late)

	return &models.QuestionResult{
		IsCorrect:    correct,
		NeedsManual:  question.NeedsManualGrading(),
		Tries:        outcome.Attempt.Tries,
		TriesAllowed: question.TriesAllowed,
		OverLimit:    outcome.OverLimit,
		Points:       outcome.Attempt.Points,
		PointsEarned: submission.PointsEarned,
	}, nil
}

// SaveExerciseAnswer stores code as a draft. Tries and points are untouched.
func (s *submissionService) SaveExerciseAnswer(ctx context.Context, studentID, assignmentID string, index int, code []models.CodeFile) error {
	assignment, err := s.studentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return err
	}

	if _, err := assignment.Exercise(index); err != nil {
		return err
	}

	submission, isNew, err := s.loadSubmission(ctx, studentID, assignment)
	if err != nil {
		return err
	}

	submission.Exercises[index].Code = code
	submission.UpdatedAt = s.now()

	if err := s.store(ctx, submission, isNew); err != nil {
		return err
	}

	s.logger.Debug().
		Str("submission_id", submission.ID).
		Int("exercise_index", index).
		Msg("Exercise draft saved")

	return nil
}

// SubmitExerciseAnswer grades code in the sandbox before touching the record, so
// a sandbox failure leaves the submission exactly as it was.
func (s *submissionService) SubmitExerciseAnswer(ctx context.Context, studentID, assignmentID string, index int, code []models.CodeFile) (*models.GradingResult, error) {
	assignment, err := s.studentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	late, err := lifecycle.CheckAcceptingSubmissions(assignment, now)
	if err != nil {
		return nil, err
	}

	exercise, err := assignment.Exercise(index)
	if err != nil {
		return nil, err
	}

	files := exercise.SubmittableCode(code)
	resp, err := s.sandbox.Compile(ctx, models.NewSandboxRequest(exercise, files))
	if err != nil {
		s.logger.Error().Err(err).
			Str("student_id", studentID).
			Str("assignment_id", assignment.ID).
			Int("exercise_index", index).
			Msg("Exercise grading failed")
		return nil, err
	}
	result := grading.MapSandboxResult(exercise.Tests, resp)

	submission, isNew, err := s.loadSubmission(ctx, studentID, assignment)
	if err != nil {
		return nil, err
	}

	submission.Exercises[index] = grading.ApplyExerciseResult(submission.Exercises[index], code, result)
	if late {
		submission.IsLate = true
	}
	submission.PointsEarned = grading.Total(submission, assignment)
	submission.UpdatedAt = now

	if err := s.store(ctx, submission, isNew); err != nil {
		return nil, err
	}

	attempt := submission.Exercises[index]
	s.logger.Info().
		Str("submission_id", submission.ID).
		Int("exercise_index", index).
		Bool("correct", attempt.Correct).
		Float64("points", attempt.Points).
		Int("tries", attempt.Tries).
		Msg("Exercise answer submitted")

	s.publishGraded(ctx, submission, "exercise", index, attempt.Correct, attempt.Points, late)
	s.archiveSnapshot(ctx, submission, index, result)

	return result, nil
}

func (s *submissionService) publishGraded(ctx context.Context, sub *models.Submission, kind string, index int, correct bool, points float64, late bool) {
	event := &models.SubmissionGradedEvent{
		SubmissionID: sub.ID,
		StudentID:    sub.StudentID,
		AssignmentID: sub.AssignmentID,
		ItemKind:     kind,
		ItemIndex:    index,
		Correct:      correct,
		ItemPoints:   points,
		PointsEarned: sub.PointsEarned,
		Late:         late,
		Timestamp:    sub.UpdatedAt.Unix(),
	}
	if err := s.publisher.PublishSubmissionGraded(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("submission_id", sub.ID).Msg("Failed to publish submission graded event")
	}
}

func (s *submissionService) archiveSnapshot(ctx context.Context, sub *models.Submission, index int, result *models.GradingResult) {
	attempt := sub.Exercises[index]
	snapshot := &models.CodeSnapshot{
		SubmissionID:  sub.ID,
		StudentID:     sub.StudentID,
		AssignmentID:  sub.AssignmentID,
		ExerciseIndex: index,
		Try:           attempt.Tries,
		Code:          attempt.Code,
		Result:        result,
		CreatedAt:     sub.UpdatedAt,
	}
	if _, err := s.archive.ArchiveExercise(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Str("submission_id", sub.ID).Msg("Failed to archive exercise snapshot")
	}
}

func (s *submissionService) ListByAssignment(ctx context.Context, teacherID, assignmentID string, page, limit int) (*models.SubmissionsResponse, error) {
	if _, _, err := s.ownedAssignment(ctx, teacherID, assignmentID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	submissions, total, err := s.submissionRepo.ListByAssignment(ctx, assignmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

// ownedSubmission returns a submission and its assignment if teacherID owns the course.
func (s *submissionService) ownedSubmission(ctx context.Context, teacherID, submissionID string) (*models.Submission, *models.Assignment, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return nil, nil, models.NotFoundf("That submission does not exist.")
	}

	assignment, _, err := s.ownedAssignment(ctx, teacherID, submission.AssignmentID)
	if err != nil {
		return nil, nil, err
	}

	submission.Fit(assignment)
	return submission, assignment, nil
}

func (s *submissionService) GetForTeacher(ctx context.Context, teacherID, submissionID string) (*models.Submission, error) {
	submission, _, err := s.ownedSubmission(ctx, teacherID, submissionID)
	return submission, err
}

// GradeQuestion sets the points of a question by hand, usually a free response.
func (s *submissionService) GradeQuestion(ctx context.Context, teacherID, submissionID string, index int, points float64) (*models.Submission, error) {
	submission, assignment, err := s.ownedSubmission(ctx, teacherID, submissionID)
	if err != nil {
		return nil, err
	}

	question, err := assignment.Question(index)
	if err != nil {
		return nil, err
	}
	if points < 0 || points > question.PointsWorth {
		return nil, models.Validationf("Points must be between 0 and %g.", question.PointsWorth)
	}

	submission.Questions[index].Points = points
	submission.Questions[index].Correct = points == question.PointsWorth
	submission.PointsEarned = grading.Total(submission, assignment)
	submission.UpdatedAt = s.now()

	if err := s.submissionRepo.Save(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Int("question_index", index).
		Float64("points", points).
		Str("graded_by", teacherID).
		Msg("Question graded manually")

	s.publishGraded(ctx, submission, "question", index, submission.Questions[index].Correct, points, submission.IsLate)

	return submission, nil
}

func (s *submissionService) AddComment(ctx context.Context, teacherID, submissionID string, req *models.AddCommentRequest) (*models.Submission, error) {
	submission, _, err := s.ownedSubmission(ctx, teacherID, submissionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	submission.Comments = append(submission.Comments, models.TeacherComment{
		Location:  strings.TrimSpace(req.Location),
		Text:      req.Text,
		AuthorID:  teacherID,
		CreatedAt: now,
	})
	submission.UpdatedAt = now

	if err := s.submissionRepo.Save(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	return submission, nil
}
