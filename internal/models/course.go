package models

import (
	"time"
)

// OpenAssignment is a course's summary entry for an assignment that is open.
type OpenAssignment struct {
	AssignmentID string    `json:"assignment_id"`
	Name         string    `json:"name"`
	PointsWorth  float64   `json:"points_worth"`
	DueDate      time.Time `json:"due_date"`
}

const (
	MaxClassrooms = 10
	InviteTTL     = 24 * time.Hour
)

// CourseTeacher is a co-teacher who joined through an invite code.
type CourseTeacher struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// ClassroomStudent links a registered student to the id the school's
// gradebook knows them by.
type ClassroomStudent struct {
	UserID      string `json:"user_id"`
	GradebookID string `json:"gradebook_id"`
}

// Classroom is one section of a course, such as a period.
type Classroom struct {
	ClassCode string             `json:"class_code"`
	Name      string             `json:"name"`
	Students  []ClassroomStudent `json:"students"`
}

type Course struct {
	ID                string           `json:"id" db:"id"`
	OwnerID           string           `json:"owner_id" db:"owner_id"`
	Name              string           `json:"name" db:"name"`
	CourseCode        string           `json:"course_code" db:"course_code"`
	PasswordHash      string           `json:"-" db:"password_hash"`
	OpenAssignments   []OpenAssignment `json:"open_assignments" db:"open_assignments"`
	Teachers          []CourseTeacher  `json:"teachers" db:"teachers"`
	Classrooms        []Classroom      `json:"classrooms,omitempty" db:"classrooms"`
	InviteCode        string           `json:"-" db:"invite_code"`
	InviteGeneratedAt *time.Time       `json:"-" db:"invite_generated_at"`
	DeletedAt         *time.Time       `json:"-" db:"deleted_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// IsTeacher reports whether userID owns the course or joined it as a co-teacher.
func (c *Course) IsTeacher(userID string) bool {
	if c.OwnerID == userID {
		return true
	}
	for _, t := range c.Teachers {
		if t.UserID == userID {
			return true
		}
	}
	return false
}

// StudentView hides the classroom rosters.
func (c *Course) StudentView() *Course {
	cp := *c
	cp.Classrooms = nil
	return &cp
}

func (c *Course) Classroom(classCode string) *Classroom {
	for i := range c.Classrooms {
		if c.Classrooms[i].ClassCode == classCode {
			return &c.Classrooms[i]
		}
	}
	return nil
}

func (c *Course) AddClassroom(name, classCode string) (*Classroom, error) {
	if len(c.Classrooms) >= MaxClassrooms {
		return nil, Validationf("You can only have up to %d classrooms.", MaxClassrooms)
	}
	if c.Classroom(classCode) != nil {
		return nil, Conflictf("That class code is already taken.")
	}

	c.Classrooms = append(c.Classrooms, Classroom{
		ClassCode: classCode,
		Name:      name,
		Students:  []ClassroomStudent{},
	})
	return &c.Classrooms[len(c.Classrooms)-1], nil
}

func (c *Course) RemoveClassroom(classCode string) error {
	for i := range c.Classrooms {
		if c.Classrooms[i].ClassCode == classCode {
			c.Classrooms = append(c.Classrooms[:i], c.Classrooms[i+1:]...)
			return nil
		}
	}
	return NotFoundf("That class was not found.")
}

// RegisterStudent places a student in a classroom. Courses without classrooms
// take students directly and ignore the class code.
func (c *Course) RegisterStudent(userID, classCode, gradebookID string) error {
	if len(c.Classrooms) == 0 {
		return nil
	}

	classroom := c.Classroom(classCode)
	if classroom == nil {
		return Validationf("Wrong registration code.")
	}
	if gradebookID == "" {
		return Validationf("Please include your student ID.")
	}

	classroom.Students = append(classroom.Students, ClassroomStudent{
		UserID:      userID,
		GradebookID: gradebookID,
	})
	return nil
}

func (c *Course) IssueInvite(code string, now time.Time) {
	c.InviteCode = code
	c.InviteGeneratedAt = &now
}

// RedeemInvite checks an invite code. An expired invite is cleared, so the
// caller should persist the course even when this fails.
func (c *Course) RedeemInvite(code string, now time.Time) error {
	if c.InviteCode == "" || code != c.InviteCode {
		return Validationf("Incorrect invite code.")
	}
	if c.InviteGeneratedAt == nil || now.Sub(*c.InviteGeneratedAt) > InviteTTL {
		c.InviteCode = ""
		c.InviteGeneratedAt = nil
		return InvalidStatef("That invite has expired.")
	}
	return nil
}

func (c *Course) AddTeacher(u *User, now time.Time) {
	c.Teachers = append(c.Teachers, CourseTeacher{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		JoinedAt: now,
	})
}

// SoftDelete frees the course code for reuse by moving the course to a
// throwaway code. Enrollments and grades stay in place.
func (c *Course) SoftDelete(code string, now time.Time) {
	c.CourseCode = code
	c.InviteCode = ""
	c.InviteGeneratedAt = nil
	c.DeletedAt = &now
}

func (c *Course) AddOpenAssignment(a *Assignment) {
	entry := OpenAssignment{
		AssignmentID: a.ID,
		Name:         a.Name,
		PointsWorth:  a.PointsWorth,
	}
	if a.DueDate != nil {
		entry.DueDate = *a.DueDate
	}

	// re-opening replaces the old entry
	c.RemoveOpenAssignment(a.ID)
	c.OpenAssignments = append(c.OpenAssignments, entry)
}

// RemoveOpenAssignment drops every entry for the assignment and reports how many
// were removed.
func (c *Course) RemoveOpenAssignment(assignmentID string) int {
	kept := c.OpenAssignments[:0]
	removed := 0
	for _, e := range c.OpenAssignments {
		if e.AssignmentID == assignmentID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.OpenAssignments = kept
	return removed
}
