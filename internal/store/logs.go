package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shivangsaraswat/certiflow/internal/models"
)

// AppendLogEntry inserts one delivery-attempt record. The entry's ID and
// CreatedAt are filled in on success.
func (s *Store) AppendLogEntry(ctx context.Context, entry *models.MailLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	err := s.Pool.QueryRow(ctx,
		`INSERT INTO mail_logs
		 (id, group_id, job_id, recipient_email, recipient_name, subject, status, error_message, sent_at, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,NOW())
		 RETURNING created_at`,
		entry.ID,
		entry.GroupID,
		entry.JobID,
		entry.RecipientEmail,
		entry.RecipientName,
		entry.Subject,
		entry.Status,
		entry.ErrorMessage,
		entry.SentAt,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert mail log: %w", err)
	}

	return nil
}

// ListLogEntries returns a page of a group's delivery history, most
// recent first.
func (s *Store) ListLogEntries(ctx context.Context, groupID string, limit, offset int) ([]models.MailLogEntry, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, group_id, job_id, recipient_email, recipient_name, subject, status, COALESCE(error_message,''), sent_at, created_at
		 FROM mail_logs
		 WHERE group_id=$1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		groupID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select mail logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.MailLogEntry, 0, limit)
	for rows.Next() {
		var entry models.MailLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.GroupID,
			&entry.JobID,
			&entry.RecipientEmail,
			&entry.RecipientName,
			&entry.Subject,
			&entry.Status,
			&entry.ErrorMessage,
			&entry.SentAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan mail log: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *Store) CountLogEntries(ctx context.Context, groupID string) (int, error) {
	var total int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mail_logs WHERE group_id=$1`,
		groupID,
	).Scan(&total)

	return total, err
}

// DeleteLogEntry removes one history entry. Deleting an id that is
// already gone is not an error.
func (s *Store) DeleteLogEntry(ctx context.Context, groupID, logID string) error {
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM mail_logs WHERE group_id=$1 AND id=$2`,
		groupID,
		logID,
	)

	return err
}
