package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	UpdateOpenAssignments(ctx context.Context, course *models.Course) error
	Enroll(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

type courseRepository struct {
	*PostgresRepository
}

func NewCourseRepository(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const courseColumns = `c.id, c.owner_id, c.name, c.course_code, c.password_hash, c.open_assignments,
	c.teachers, c.classrooms, c.invite_code, c.invite_generated_at, c.deleted_at, c.created_at, c.updated_at`

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (id, owner_id, name, course_code, password_hash, open_assignments, teachers, classrooms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.OwnerID,
		course.Name,
		course.CourseCode,
		course.PasswordHash,
		asJSON(course.OpenAssignments),
		asJSON(course.Teachers),
		asJSON(course.Classrooms),
		course.CreatedAt,
		course.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return models.Conflictf("That course code is already taken.")
	}

	return err
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	return r.scanCourse(r.db.QueryRowContext(ctx, query, id))
}

func (r *courseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.course_code = $1 AND c.deleted_at IS NULL`
	return r.scanCourse(r.db.QueryRowContext(ctx, query, code))
}

// ListByTeacher returns courses the teacher owns or co-teaches.
func (r *courseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		WHERE c.deleted_at IS NULL
		  AND (c.owner_id = $1 OR c.teachers @> $2::jsonb)
		ORDER BY c.created_at DESC
	`

	member := []map[string]string{{"user_id": teacherID}}
	return r.queryCourses(ctx, query, teacherID, asJSON(member))
}

func (r *courseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = $1 AND c.deleted_at IS NULL
		ORDER BY e.enrolled_at DESC
	`

	return r.queryCourses(ctx, query, studentID)
}

// Update writes everything except the owner and the open assignment roster.
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET name = $1, course_code = $2, password_hash = $3, teachers = $4, classrooms = $5,
		    invite_code = $6, invite_generated_at = $7, deleted_at = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		course.Name,
		course.CourseCode,
		course.PasswordHash,
		asJSON(course.Teachers),
		asJSON(course.Classrooms),
		course.InviteCode,
		course.InviteGeneratedAt,
		course.DeletedAt,
		course.UpdatedAt,
		course.ID,
	)
	if isUniqueViolation(err) {
		return models.Conflictf("That course code is already taken.")
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NotFoundf("That course does not exist.")
	}

	return nil
}

func (r *courseRepository) UpdateOpenAssignments(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET open_assignments = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, asJSON(course.OpenAssignments), course.UpdatedAt, course.ID)
	return err
}

func (r *courseRepository) Enroll(ctx context.Context, courseID, studentID string) error {
	query := `
		INSERT INTO enrollments (course_id, student_id, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id, student_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, courseID, studentID, time.Now())
	return err
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, courseID, studentID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourseRow(row rowScanner, course *models.Course) error {
	return row.Scan(
		&course.ID,
		&course.OwnerID,
		&course.Name,
		&course.CourseCode,
		&course.PasswordHash,
		asJSON(&course.OpenAssignments),
		asJSON(&course.Teachers),
		asJSON(&course.Classrooms),
		&course.InviteCode,
		&course.InviteGeneratedAt,
		&course.DeletedAt,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
}

func (r *courseRepository) scanCourse(row *sql.Row) (*models.Course, error) {
	course := &models.Course{}
	err := scanCourseRow(row, course)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return course, err
}

func (r *courseRepository) queryCourses(ctx context.Context, query string, args ...interface{}) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var course models.Course
		if err := scanCourseRow(rows, &course); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}
