package models

import (
	"fmt"
	"time"
)

// CodeSnapshot is the archived copy of one graded exercise submission.
type CodeSnapshot struct {
	SubmissionID  string         `json:"submission_id"`
	StudentID     string         `json:"student_id"`
	AssignmentID  string         `json:"assignment_id"`
	ExerciseIndex int            `json:"exercise_index"`
	Try           int            `json:"try"`
	Code          []CodeFile     `json:"code"`
	Result        *GradingResult `json:"result"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (s *CodeSnapshot) ObjectKey() string {
	return fmt.Sprintf("%s/%s/exercise-%d/try-%04d.json", s.AssignmentID, s.StudentID, s.ExerciseIndex, s.Try)
}
