package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/storage"
)

const resultColumns = `student_id, name, exam_type, total_marks, created_at, updated_at`

// CreateResult inserts a result; an existing student_id yields storage.ErrAlreadyExists.
func (s *Store) CreateResult(ctx context.Context, result models.Result) (models.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	const query = `
		INSERT INTO results (student_id, name, exam_type, total_marks)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + resultColumns
	created, err := scanResult(s.pool.QueryRow(ctx, query, result.StudentID, result.Name, result.ExamType, result.TotalMarks))
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return models.Result{}, storage.ErrAlreadyExists
		}
		return models.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return created, nil
}

// UpdateResult overwrites the result for result.StudentID and reports whether a row matched.
func (s *Store) UpdateResult(ctx context.Context, result models.Result) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `
		UPDATE results
		SET name = $1, exam_type = $2, total_marks = $3, updated_at = NOW()
		WHERE student_id = $4
	`, result.Name, result.ExamType, result.TotalMarks, result.StudentID)
	if err != nil {
		return false, fmt.Errorf("update result: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteResult removes the result for studentID and reports whether a row matched.
func (s *Store) DeleteResult(ctx context.Context, studentID int64) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM results WHERE student_id = $1`, studentID)
	if err != nil {
		return false, fmt.Errorf("delete result: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// GetResult fetches the result for studentID.
func (s *Store) GetResult(ctx context.Context, studentID int64) (models.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM results WHERE student_id = $1`, studentID))
	if err != nil {
		return models.Result{}, notFound(err)
	}
	return result, nil
}

// ListResults returns one page ordered by student_id and the total row count.
func (s *Store) ListResults(ctx context.Context, limit, offset int) (storage.ResultPage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	results, err := s.queryResults(ctx, `SELECT `+resultColumns+` FROM results ORDER BY student_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return storage.ResultPage{}, err
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM results`).Scan(&total); err != nil {
		return storage.ResultPage{}, fmt.Errorf("count results: %w", err)
	}
	return storage.ResultPage{Results: results, Total: total}, nil
}

// AllResults returns every stored result ordered by student_id.
func (s *Store) AllResults(ctx context.Context) ([]models.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.queryResults(ctx, `SELECT `+resultColumns+` FROM results ORDER BY student_id`)
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]models.Result, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func scanResult(row pgx.Row) (models.Result, error) {
	var result models.Result
	err := row.Scan(&result.StudentID, &result.Name, &result.ExamType, &result.TotalMarks, &result.CreatedAt, &result.UpdatedAt)
	return result, err
}
