// Package status is the read-only projection of mail jobs for polling
// clients: aggregate progress and paginated delivery history.
package status

import (
	"context"
	"math"

	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/store"
)

type JobReader interface {
	GetJob(ctx context.Context, jobID string) (*models.MailJob, error)
	ListLogEntries(ctx context.Context, groupID string, limit, offset int) ([]models.MailLogEntry, error)
	CountLogEntries(ctx context.Context, groupID string) (int, error)
}

// JobStatus is what a poller sees. ProgressPercent counts attempted
// recipients, successful or not.
type JobStatus struct {
	JobID           string           `json:"job_id"`
	Status          models.JobStatus `json:"status"`
	TotalRecipients int              `json:"total_recipients"`
	SentCount       int              `json:"sent_count"`
	FailedCount     int              `json:"failed_count"`
	ProgressPercent int              `json:"progress_percent"`
}

type History struct {
	Entries []models.MailLogEntry `json:"entries"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type Facade struct {
	reader JobReader
}

func NewFacade(reader JobReader) *Facade {
	return &Facade{reader: reader}
}

// GetStatus returns the progress view of one job, scoped to a group so
// a job id cannot be polled across group boundaries.
func (f *Facade) GetStatus(ctx context.Context, groupID, jobID string) (*JobStatus, error) {
	job, err := f.reader.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.GroupID != groupID {
		// A job from another group is indistinguishable from a missing one.
		return nil, store.ErrNotFound
	}

	return &JobStatus{
		JobID:           job.ID,
		Status:          job.Status,
		TotalRecipients: job.TotalRecipients,
		SentCount:       job.SentCount,
		FailedCount:     job.FailedCount,
		ProgressPercent: progressPercent(job.SentCount, job.FailedCount, job.TotalRecipients),
	}, nil
}

// GetHistory returns one page of a group's delivery log, newest first,
// with the total count for pagination.
func (f *Facade) GetHistory(ctx context.Context, groupID string, limit, offset int) (*History, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := f.reader.ListLogEntries(ctx, groupID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := f.reader.CountLogEntries(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &History{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func progressPercent(sent, failed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(sent+failed) / float64(total) * 100))
}
