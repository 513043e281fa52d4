package models

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Recipient is one addressee of a mail job. The list of recipients is
// snapshotted into the job row at creation time; later edits to the
// group's data never reach a job that was already created.
type Recipient struct {
	Email          string            `json:"email"`
	Name           string            `json:"name"`
	CertificateRef string            `json:"certificate_ref,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// MailJob is one batch request to email a set of recipients for a group.
type MailJob struct {
	ID      string    `json:"id"`
	GroupID string    `json:"group_id"`
	Status  JobStatus `json:"status"`

	TotalRecipients int `json:"total_recipients"`
	SentCount       int `json:"sent_count"`
	FailedCount     int `json:"failed_count"`
	PendingCount    int `json:"pending_count"`

	Recipients []Recipient `json:"recipients"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
