package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const assignmentColumns = `
	id, course_id, name, description, is_open, opened_at, due_date, deadline_type,
	points_worth, point_loss, questions, exercises, created_at, updated_at
`

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.CourseID,
		assignment.Name,
		assignment.Description,
		assignment.IsOpen,
		assignment.OpenedAt,
		assignment.DueDate,
		assignment.DeadlineType,
		assignment.PointsWorth,
		assignment.PointLoss,
		asJSON(assignment.Questions),
		asJSON(assignment.Exercises),
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment := &models.Assignment{}
	err := scanAssignmentRow(r.db.QueryRowContext(ctx, query, id), assignment)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE course_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		var assignment models.Assignment
		if err := scanAssignmentRow(rows, &assignment); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// Update перезаписывает задание целиком, включая вопросы и упражнения.
func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET name = $1, description = $2, is_open = $3, opened_at = $4, due_date = $5,
			deadline_type = $6, points_worth = $7, point_loss = $8, questions = $9,
			exercises = $10, updated_at = $11
		WHERE id = $12
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.Name,
		assignment.Description,
		assignment.IsOpen,
		assignment.OpenedAt,
		assignment.DueDate,
		assignment.DeadlineType,
		assignment.PointsWorth,
		assignment.PointLoss,
		asJSON(assignment.Questions),
		asJSON(assignment.Exercises),
		assignment.UpdatedAt,
		assignment.ID,
	)

	return err
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assignments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func scanAssignmentRow(row rowScanner, assignment *models.Assignment) error {
	return row.Scan(
		&assignment.ID,
		&assignment.CourseID,
		&assignment.Name,
		&assignment.Description,
		&assignment.IsOpen,
		&assignment.OpenedAt,
		&assignment.DueDate,
		&assignment.DeadlineType,
		&assignment.PointsWorth,
		&assignment.PointLoss,
		asJSON(&assignment.Questions),
		asJSON(&assignment.Exercises),
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
}
