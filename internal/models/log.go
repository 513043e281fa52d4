package models

import "time"

type LogStatus string

const (
	LogSent   LogStatus = "sent"
	LogFailed LogStatus = "failed"
)

// MailLogEntry is the audit record of one delivery attempt. Recipient
// email and name are denormalized copies, the rendered subject is kept
// post-substitution so operators see exactly what went out.
type MailLogEntry struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	JobID   string `json:"job_id"`

	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	Subject        string `json:"subject"`

	Status       LogStatus  `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
