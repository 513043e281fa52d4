package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shivangsaraswat/certiflow/internal/models"
)

// CreateJob persists a new job in pending state with the recipient list
// snapshotted as JSON. The insert is a single statement, so readers
// never observe a partially written job.
func (s *Store) CreateJob(ctx context.Context, groupID string, recipients []models.Recipient) (*models.MailJob, error) {
	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return nil, fmt.Errorf("marshal recipients: %w", err)
	}

	job := &models.MailJob{
		ID:              uuid.NewString(),
		GroupID:         groupID,
		Status:          models.JobPending,
		TotalRecipients: len(recipients),
		PendingCount:    len(recipients),
		Recipients:      recipients,
	}

	err = s.Pool.QueryRow(ctx,
		`INSERT INTO mail_jobs
		 (id, group_id, status, total_recipients, sent_count, failed_count, pending_count, recipients, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,0,0,$5,$6,NOW(),NOW())
		 RETURNING created_at, updated_at`,
		job.ID,
		job.GroupID,
		job.Status,
		job.TotalRecipients,
		job.PendingCount,
		recipientsJSON,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert mail job: %w", err)
	}

	return job, nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*models.MailJob, error) {
	var (
		job            models.MailJob
		recipientsJSON []byte
	)

	err := s.Pool.QueryRow(ctx,
		`SELECT id, group_id, status, total_recipients, sent_count, failed_count, pending_count, recipients, created_at, updated_at
		 FROM mail_jobs
		 WHERE id=$1`,
		jobID,
	).Scan(
		&job.ID,
		&job.GroupID,
		&job.Status,
		&job.TotalRecipients,
		&job.SentCount,
		&job.FailedCount,
		&job.PendingCount,
		&recipientsJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select mail job: %w", err)
	}

	if err := json.Unmarshal(recipientsJSON, &job.Recipients); err != nil {
		return nil, fmt.Errorf("unmarshal recipients: %w", err)
	}

	return &job, nil
}

func (s *Store) SetStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE mail_jobs
		 SET status=$1,
		     updated_at=NOW()
		 WHERE id=$2`,
		status,
		jobID,
	)

	return err
}

// UpdateCounters writes the aggregate counters in one row update, so a
// concurrent status poll never sees a torn set.
func (s *Store) UpdateCounters(ctx context.Context, jobID string, sent, failed, pending int) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE mail_jobs
		 SET sent_count=$1,
		     failed_count=$2,
		     pending_count=$3,
		     updated_at=NOW()
		 WHERE id=$4`,
		sent,
		failed,
		pending,
		jobID,
	)

	return err
}

// FailStaleJobs marks jobs stuck in processing longer than grace as
// failed. Used by the janitor sweep; a crashed process cannot finish
// its own jobs.
func (s *Store) FailStaleJobs(ctx context.Context, grace time.Duration) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE mail_jobs
		 SET status=$1,
		     updated_at=NOW()
		 WHERE status=$2
		   AND updated_at < NOW() - $3::interval`,
		models.JobFailed,
		models.JobProcessing,
		fmt.Sprintf("%f seconds", grace.Seconds()),
	)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
