package models

import (
	"encoding/json"
	"time"
)

// Data Transfer Objects

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=teacher student"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type CreateCourseRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=50"`
	CourseCode string `json:"course_code" validate:"required,min=3,max=20"`
	Password   string `json:"password" validate:"required,min=5,max=20"`
}

type EnrollRequest struct {
	CourseCode  string `json:"course_code" validate:"required"`
	Password    string `json:"password" validate:"required"`
	ClassCode   string `json:"class_code" validate:"max=20"`
	GradebookID string `json:"gradebook_id" validate:"max=64"`
}

// EditCourseRequest renames a course or changes its password. The teacher's own
// password confirms the change.
type EditCourseRequest struct {
	Name            string `json:"name" validate:"required,notblank,max=50"`
	CoursePassword  string `json:"course_password" validate:"omitempty,min=5,max=20"`
	TeacherPassword string `json:"teacher_password" validate:"required"`
}

type ForkCourseRequest struct {
	SourceCode string `json:"source_code" validate:"required,min=3,max=20"`
	Name       string `json:"name" validate:"required,min=1,max=50"`
	CourseCode string `json:"course_code" validate:"required,min=3,max=20"`
	Password   string `json:"password" validate:"required,min=5,max=20"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type JoinCourseRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type InviteResponse struct {
	InviteCode string    `json:"invite_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type CreateClassroomRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type CreateAssignmentRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	PointsWorth float64 `json:"points_worth" validate:"gte=0"`
	PointLoss   float64 `json:"point_loss" validate:"gte=0"`
}

type EditAssignmentRequest struct {
	Name        *string  `json:"name" validate:"omitempty,notblank,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	PointsWorth *float64 `json:"points_worth" validate:"omitempty,gte=0"`
	PointLoss   *float64 `json:"point_loss" validate:"omitempty,gte=0"`
}

type OpenAssignmentRequest struct {
	DueDate      time.Time `json:"due_date"`
	DeadlineType string    `json:"deadline_type" validate:"required"`
}

type CloseAssignmentRequest struct {
	Password string `json:"password" validate:"required"`
}

type EditQuestionRequest struct {
	Question      string          `json:"question"`
	QuestionType  string          `json:"question_type" validate:"required"`
	PointsWorth   float64         `json:"points_worth" validate:"gte=0"`
	TriesAllowed  TriesAllowed    `json:"tries_allowed"`
	IsHomework    bool            `json:"is_homework"`
	AnswerOptions json.RawMessage `json:"answer_options"`
	MCAnswer      *int            `json:"mc_answer"`
}

type CreateExerciseRequest struct {
	Title    string `json:"title" validate:"required,notblank,max=255"`
	Language string `json:"language" validate:"required"`
}

type CodeRequest struct {
	Code []CodeFile `json:"code" validate:"required,dive"`
}

type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

type GradeQuestionRequest struct {
	Points float64 `json:"points" validate:"gte=0"`
}

type AddCommentRequest struct {
	Location string `json:"location" validate:"required,notblank,max=255"`
	Text     string `json:"text" validate:"required,notblank,max=2000"`
}

type QuestionResult struct {
	IsCorrect    bool    `json:"is_correct"`
	NeedsManual  bool    `json:"needs_manual,omitempty"`
	Tries        int     `json:"tries"`
	TriesAllowed int     `json:"tries_allowed"`
	OverLimit    bool    `json:"over_limit,omitempty"`
	Points       float64 `json:"points"`
	PointsEarned float64 `json:"points_earned"`
}

type TestResult struct {
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
}

// GradingResult is the outcome of running a submission through the sandbox.
type GradingResult struct {
	IsCorrect    bool         `json:"is_correct"`
	Errors       []string     `json:"errors"`
	TestResults  []TestResult `json:"test_results"`
	PointsEarned float64      `json:"points_earned"`
}

type SubmissionsResponse struct {
	Submissions []SubmissionWithDetails `json:"submissions"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	Limit       int                     `json:"limit"`
}

type CourseDetails struct {
	Course
	OwnerName   string              `json:"owner_name"`
	Assignments []AssignmentSummary `json:"assignments"`
}

type AssignmentSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsOpen      bool       `json:"is_open"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PointsWorth float64    `json:"points_worth"`
}

type GradeReport struct {
	AssignmentID   string             `json:"assignment_id"`
	AssignmentName string             `json:"assignment_name"`
	PointsWorth    float64            `json:"points_worth"`
	Entries        []GradeReportEntry `json:"entries"`
}

type GradeReportEntry struct {
	SubmissionID  string  `json:"submission_id"`
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	PointsEarned  float64 `json:"points_earned"`
	IsLate        bool    `json:"is_late"`
	PendingManual int     `json:"pending_manual"`
}

// SandboxRequest is the body sent to the grading sandbox.
type SandboxRequest struct {
	Language int           `json:"language"`
	Code     []SandboxFile `json:"code"`
	Tests    []SandboxTest `json:"tests"`
}

type SandboxFile struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type SandboxTest struct {
	Name        string   `json:"name"`
	PointsWorth *float64 `json:"pointsWorth"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
}

// SandboxResponse lists passed and failed test names separated by spaces.
type SandboxResponse struct {
	Errors      []string `json:"errors"`
	PassedTests string   `json:"passedTests"`
	FailedTests string   `json:"failedTests"`
}

func NewSandboxRequest(e *Exercise, code []CodeFile) *SandboxRequest {
	req := &SandboxRequest{
		Language: e.Language.ID,
		Code:     make([]SandboxFile, len(code)),
		Tests:    make([]SandboxTest, len(e.Tests)),
	}
	for i, f := range code {
		req.Code[i] = SandboxFile{Name: f.Name, Code: f.Code}
	}
	for i, t := range e.Tests {
		req.Tests[i] = SandboxTest{
			Name:        t.Name,
			PointsWorth: t.PointsWorth,
			Description: t.Description,
			Code:        t.Code,
		}
	}
	return req
}
