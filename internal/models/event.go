package models

type AssignmentOpenedEvent struct {
	AssignmentID string  `json:"assignment_id"`
	CourseID     string  `json:"course_id"`
	Name         string  `json:"name"`
	PointsWorth  float64 `json:"points_worth"`
	DueDate      int64   `json:"due_date"`
	Timestamp    int64   `json:"timestamp"`
}

type AssignmentClosedEvent struct {
	AssignmentID string `json:"assignment_id"`
	CourseID     string `json:"course_id"`
	ClosedBy     string `json:"closed_by"`
	Timestamp    int64  `json:"timestamp"`
}

type SubmissionGradedEvent struct {
	SubmissionID string  `json:"submission_id"`
	StudentID    string  `json:"student_id"`
	AssignmentID string  `json:"assignment_id"`
	ItemKind     string  `json:"item_kind"` // question | exercise
	ItemIndex    int     `json:"item_index"`
	Correct      bool    `json:"correct"`
	ItemPoints   float64 `json:"item_points"`
	PointsEarned float64 `json:"points_earned"`
	Late         bool    `json:"late"`
	Timestamp    int64   `json:"timestamp"`
}
