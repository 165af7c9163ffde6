package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

// SubmissionRepository хранит по одной записи на пару (студент, задание).
// Save всегда перезаписывает запись целиком.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	Save(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const submissionColumns = `s.id, s.student_id, s.assignment_id, s.points_earned, s.is_late, s.questions, s.exercises, s.comments, s.created_at, s.updated_at`

// Create возвращает Conflict, если запись для этой пары уже создана параллельным запросом.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, student_id, assignment_id, points_earned, is_late, questions, exercises, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.StudentID,
		submission.AssignmentID,
		submission.PointsEarned,
		submission.IsLate,
		asJSON(submission.Questions),
		asJSON(submission.Exercises),
		asJSON(submission.Comments),
		submission.CreatedAt,
		submission.UpdatedAt,
	)
	if isUniqueViolation(err) {
		r.logger.Warn().
			Str("student_id", submission.StudentID).
			Str("assignment_id", submission.AssignmentID).
			Msg("Concurrent submission create")
		return models.Conflictf("A submission for this assignment already exists.")
	}

	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions s WHERE s.id = $1`

	submission := &models.Submission{}
	err := scanSubmissionRow(r.db.QueryRowContext(ctx, query, id), submission)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) GetByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions s
		WHERE s.student_id = $1 AND s.assignment_id = $2
	`

	submission := &models.Submission{}
	err := scanSubmissionRow(r.db.QueryRowContext(ctx, query, studentID, assignmentID), submission)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, assignmentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + submissionColumns + `, u.name as student_name, u.email as student_email
		FROM submissions s
		JOIN users u ON s.student_id = u.id
		WHERE s.assignment_id = $1
		ORDER BY u.name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions := []models.SubmissionWithDetails{}
	for rows.Next() {
		var s models.SubmissionWithDetails
		err := rows.Scan(
			&s.ID,
			&s.StudentID,
			&s.AssignmentID,
			&s.PointsEarned,
			&s.IsLate,
			asJSON(&s.Questions),
			asJSON(&s.Exercises),
			asJSON(&s.Comments),
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.StudentName,
			&s.StudentEmail,
		)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, s)
	}

	return submissions, total, rows.Err()
}

func (r *submissionRepository) Save(ctx context.Context, submission *models.Submission) error {
	query := `
		UPDATE submissions
		SET points_earned = $1, is_late = $2, questions = $3, exercises = $4, comments = $5, updated_at = $6
		WHERE id = $7
	`

	res, err := r.db.ExecContext(ctx, query,
		submission.PointsEarned,
		submission.IsLate,
		asJSON(submission.Questions),
		asJSON(submission.Exercises),
		asJSON(submission.Comments),
		submission.UpdatedAt,
		submission.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NotFoundf("That submission does not exist.")
	}

	return nil
}

func scanSubmissionRow(row rowScanner, submission *models.Submission) error {
	return row.Scan(
		&submission.ID,
		&submission.StudentID,
		&submission.AssignmentID,
		&submission.PointsEarned,
		&submission.IsLate,
		asJSON(&submission.Questions),
		asJSON(&submission.Exercises),
		asJSON(&submission.Comments),
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)
}
