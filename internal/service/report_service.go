package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/repository"
)

type ReportService interface {
	GradeReport(ctx context.Context, teacherID, assignmentID string) (*models.GradeReport, error)
}

type reportService struct {
	access
	submissionRepo repository.SubmissionRepository
	logger         zerolog.Logger
}

func NewReportService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	courseRepo repository.CourseRepository,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		access:         access{courseRepo: courseRepo, assignmentRepo: assignmentRepo},
		submissionRepo: submissionRepo,
		logger:         logger,
	}
}

// reportPageSize bounds one fetch while walking every submission of an assignment.
const reportPageSize = 100

// GradeReport lists every student's total for one assignment, with the number
// of answered free responses still waiting for a manual grade.
func (s *reportService) GradeReport(ctx context.Context, teacherID, assignmentID string) (*models.GradeReport, error) {
	assignment, _, err := s.ownedAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return nil, err
	}

	report := &models.GradeReport{
		AssignmentID:   assignment.ID,
		AssignmentName: assignment.Name,
		PointsWorth:    assignment.PointsWorth,
		Entries:        []models.GradeReportEntry{},
	}

	for offset := 0; ; offset += reportPageSize {
		page, total, err := s.submissionRepo.ListByAssignment(ctx, assignment.ID, reportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}

		for i := range page {
			sub := &page[i]
			sub.Fit(assignment)
			report.Entries = append(report.Entries, models.GradeReportEntry{
				SubmissionID:  sub.ID,
				StudentID:     sub.StudentID,
				StudentName:   sub.StudentName,
				PointsEarned:  sub.PointsEarned,
				IsLate:        sub.IsLate,
				PendingManual: pendingManual(assignment, &sub.Submission),
			})
		}

		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}

	s.logger.Debug().
		Str("assignment_id", assignment.ID).
		Int("entries", len(report.Entries)).
		Msg("Grade report built")

	return report, nil
}

func pendingManual(a *models.Assignment, sub *models.Submission) int {
	pending := 0
	for i, q := range a.Questions {
		if !q.NeedsManualGrading() || i >= len(sub.Questions) {
			continue
		}
		attempt := sub.Questions[i]
		if attempt.Tries > 0 && attempt.Points == 0 {
			pending++
		}
	}
	return pending
}
