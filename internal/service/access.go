package service

import (
	"context"
	"fmt"

	"github.com/RubachokBoss/coursework-service/internal/lifecycle"
	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/repository"
)

// access resolves courses and assignments for a caller and enforces who may see them.
type access struct {
	courseRepo     repository.CourseRepository
	assignmentRepo repository.AssignmentRepository
}

func (a *access) courseByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := a.courseRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, models.NotFoundf("That course does not exist.")
	}
	return course, nil
}

// ownedCourse returns the course if teacherID owns or co-teaches it.
func (a *access) ownedCourse(ctx context.Context, teacherID, code string) (*models.Course, error) {
	course, err := a.courseByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !course.IsTeacher(teacherID) {
		return nil, models.Forbiddenf("You are not the teacher of this course.")
	}
	return course, nil
}

func (a *access) assignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	assignment, err := a.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, models.NotFoundf("That assignment does not exist.")
	}
	return assignment, nil
}

// ownedAssignment returns the assignment and its course if teacherID teaches the course.
func (a *access) ownedAssignment(ctx context.Context, teacherID, assignmentID string) (*models.Assignment, *models.Course, error) {
	assignment, err := a.assignment(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}

	course, err := a.courseRepo.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, nil, models.NotFoundf("That course does not exist.")
	}
	if !course.IsTeacher(teacherID) {
		return nil, nil, models.Forbiddenf("You are not the teacher of this course.")
	}

	return assignment, course, nil
}

// studentAssignment returns the assignment if the student is enrolled in its
// course. Drafts are reported as missing.
func (a *access) studentAssignment(ctx context.Context, studentID, assignmentID string) (*models.Assignment, error) {
	assignment, err := a.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if lifecycle.StateOf(assignment) == lifecycle.StateDraft {
		return nil, models.NotFoundf("That assignment does not exist.")
	}

	enrolled, err := a.courseRepo.IsEnrolled(ctx, assignment.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, models.Forbiddenf("You are not enrolled in this course.")
	}

	return assignment, nil
}
