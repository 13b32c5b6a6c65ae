package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/salesdash/internal/model"
)

// ErrJobNotFound is returned when a processed-file ID is unknown.
var ErrJobNotFound = errors.New("processed file not found")

// CreateJob records a newly uploaded workbook with status "processing".
func (c *Cache) CreateJob(originalFile, user string) (model.ProcessedFile, error) {
	now := time.Now().UTC()
	job := model.ProcessedFile{
		ID:           uuid.NewString(),
		OriginalFile: originalFile,
		User:         user,
		Status:       model.FileProcessing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := c.db.Exec(`INSERT INTO processed_files
		(id, original_file, output_path, uploaded_by, status, error, created_at, updated_at)
		VALUES (?, ?, '', ?, ?, '', ?, ?)`,
		job.ID, job.OriginalFile, job.User, job.Status,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return model.ProcessedFile{}, fmt.Errorf("creating job: %w", err)
	}
	return job, nil
}

// CompleteJob marks a job completed and records where its CSV lives.
func (c *Cache) CompleteJob(id, outputPath string) error {
	return c.updateJob(id, model.FileCompleted, outputPath, "")
}

// FailJob marks a job failed with the given reason.
func (c *Cache) FailJob(id string, reason error) error {
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	return c.updateJob(id, model.FileError, "", msg)
}

func (c *Cache) updateJob(id, status, outputPath, errMsg string) error {
	res, err := c.db.Exec(`UPDATE processed_files
		SET status = ?, output_path = COALESCE(NULLIF(?, ''), output_path), error = ?, updated_at = ?
		WHERE id = ?`,
		status, outputPath, errMsg, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetJob returns one job by ID.
func (c *Cache) GetJob(id string) (model.ProcessedFile, error) {
	row := c.db.QueryRow(jobSelect+" WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return job, ErrJobNotFound
	}
	return job, err
}

// LatestJob returns the most recently updated job, restricted to status
// when status is non-empty.
func (c *Cache) LatestJob(status string) (model.ProcessedFile, bool, error) {
	query := jobSelect
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC, created_at DESC LIMIT 1"

	job, err := scanJob(c.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	return job, true, nil
}

// ListJobs returns up to limit jobs, newest first. limit <= 0 means all.
func (c *Cache) ListJobs(limit int) ([]model.ProcessedFile, error) {
	query := jobSelect + " ORDER BY created_at DESC, updated_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.ProcessedFile
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

const jobSelect = `SELECT id, original_file, output_path, uploaded_by, status, error, created_at, updated_at
	FROM processed_files`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.ProcessedFile, error) {
	var job model.ProcessedFile
	var output, user, errMsg sql.NullString
	var created, updated string
	if err := row.Scan(&job.ID, &job.OriginalFile, &output, &user, &job.Status, &errMsg, &created, &updated); err != nil {
		return job, err
	}
	job.OutputPath = output.String
	job.User = user.String
	job.Error = errMsg.String
	job.CreatedAt, _ = time.Parse(timeLayout, created)
	job.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return job, nil
}

// Fixed-width so that text ordering in SQL matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
