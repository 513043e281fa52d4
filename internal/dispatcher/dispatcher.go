// Package dispatcher runs mail jobs end to end: it walks the recipient
// snapshot in order, sends one personalized email per recipient through
// the group's transport, records every outcome, and drives the job
// state machine pending -> processing -> completed|failed.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shivangsaraswat/certiflow/internal/attachment"
	"github.com/shivangsaraswat/certiflow/internal/metrics"
	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/store"
	"github.com/shivangsaraswat/certiflow/internal/templates"
	"github.com/shivangsaraswat/certiflow/internal/transport"
)

// JobStore is the durable-state collaborator. Counter updates must be
// single-row writes so a concurrent poller never reads a torn set.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (*models.MailJob, error)
	SetStatus(ctx context.Context, jobID string, status models.JobStatus) error
	UpdateCounters(ctx context.Context, jobID string, sent, failed, pending int) error
	AppendLogEntry(ctx context.Context, entry *models.MailLogEntry) error
}

type GroupStore interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

type TransportResolver interface {
	Resolve(ctx context.Context, groupID string) (*models.TransportConfig, error)
}

type AttachmentResolver interface {
	Resolve(ctx context.Context, certRef string) (*attachment.Attachment, error)
}

type AttachmentFetcher interface {
	Fetch(ctx context.Context, att *attachment.Attachment) ([]byte, error)
}

type Sender interface {
	Send(ctx context.Context, msg *transport.Message) error
}

// SenderFactory builds a sender for one job execution. The transport
// connection is never shared across jobs.
type SenderFactory func(cfg models.TransportConfig) Sender

type Options struct {
	Jobs        JobStore
	Groups      GroupStore
	Transports  TransportResolver
	Attachments AttachmentResolver
	Fetcher     AttachmentFetcher
	NewSender   SenderFactory
	Log         *zap.Logger

	// PacingInterval is the fixed delay between consecutive send
	// attempts within a job, success or failure alike.
	PacingInterval time.Duration

	// PersistMaxElapsed bounds retries of store writes before the job
	// is declared stuck and failed.
	PersistMaxElapsed time.Duration
}

type Dispatcher struct {
	jobs        JobStore
	groups      GroupStore
	transports  TransportResolver
	attachments AttachmentResolver
	fetcher     AttachmentFetcher
	newSender   SenderFactory
	log         *zap.Logger

	pacing            time.Duration
	persistMaxElapsed time.Duration

	wg sync.WaitGroup
}

func New(opts Options) *Dispatcher {
	if opts.PacingInterval <= 0 {
		opts.PacingInterval = time.Second
	}
	if opts.PersistMaxElapsed <= 0 {
		opts.PersistMaxElapsed = 10 * time.Second
	}

	return &Dispatcher{
		jobs:              opts.Jobs,
		groups:            opts.Groups,
		transports:        opts.Transports,
		attachments:       opts.Attachments,
		fetcher:           opts.Fetcher,
		newSender:         opts.NewSender,
		log:               opts.Log,
		pacing:            opts.PacingInterval,
		persistMaxElapsed: opts.PersistMaxElapsed,
	}
}

// Start launches Execute on its own goroutine, fire-and-forget. The
// goroutine holds only the job id; ctx must be the process context, not
// a request context, so the job outlives the HTTP response.
func (d *Dispatcher) Start(ctx context.Context, jobID string) {
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		d.Execute(ctx, jobID)
	}()
}

// Wait blocks until every started job execution has returned. Used
// during shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Execute runs one job to a terminal state. Callers must not invoke it
// twice concurrently for the same job id; the pending check below is
// advisory, not a lock.
func (d *Dispatcher) Execute(ctx context.Context, jobID string) {
	log := d.log.With(zap.String("job_id", jobID))

	job, err := d.jobs.GetJob(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("job not found, nothing to execute")
		return
	}
	if err != nil {
		log.Error("failed to load job", zap.Error(err))
		return
	}

	if job.Status != models.JobPending {
		log.Warn("job is not pending, refusing to execute",
			zap.String("status", string(job.Status)),
		)
		return
	}

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	start := time.Now()
	defer func() {
		metrics.JobDuration.Observe(time.Since(start).Seconds())
	}()

	if err := d.persist(ctx, func(ctx context.Context) error {
		return d.jobs.SetStatus(ctx, jobID, models.JobProcessing)
	}); err != nil {
		log.Error("failed to mark job processing", zap.Error(err))
		return
	}

	group, err := d.groups.GetGroup(ctx, job.GroupID)
	if err != nil {
		log.Error("failed to load group", zap.String("group_id", job.GroupID), zap.Error(err))
		d.fail(ctx, log, jobID)
		return
	}
	if !group.HasTemplates() {
		log.Warn("group has no email templates configured", zap.String("group_id", job.GroupID))
		d.fail(ctx, log, jobID)
		return
	}

	tcfg, err := d.transports.Resolve(ctx, job.GroupID)
	if err != nil {
		log.Warn("transport unavailable for group",
			zap.String("group_id", job.GroupID),
			zap.Error(err),
		)
		d.fail(ctx, log, jobID)
		return
	}

	sender := d.newSender(*tcfg)
	limiter := rate.NewLimiter(rate.Every(d.pacing), 1)

	var sent, failed int

	for _, rcpt := range job.Recipients {
		if err := limiter.Wait(ctx); err != nil {
			// Process shutdown mid-job. The job stays in processing;
			// the janitor sweep reconciles it later.
			log.Warn("pacing interrupted, abandoning job", zap.Error(err))
			return
		}

		subject, sendErr := d.attempt(ctx, group, sender, rcpt)

		entry := &models.MailLogEntry{
			GroupID:        job.GroupID,
			JobID:          jobID,
			RecipientEmail: rcpt.Email,
			RecipientName:  rcpt.Name,
			Subject:        subject,
		}

		if sendErr != nil {
			failed++
			entry.Status = models.LogFailed
			entry.ErrorMessage = sendErr.Error()
			metrics.EmailFailures.Inc()
			log.Error("send failed",
				zap.String("recipient", rcpt.Email),
				zap.Error(sendErr),
			)
		} else {
			sent++
			now := time.Now().UTC()
			entry.Status = models.LogSent
			entry.SentAt = &now
			metrics.EmailsSent.Inc()
			log.Info("email sent", zap.String("recipient", rcpt.Email))
		}

		pending := job.TotalRecipients - sent - failed
		if err := d.persist(ctx, func(ctx context.Context) error {
			if err := d.jobs.AppendLogEntry(ctx, entry); err != nil {
				return err
			}
			return d.jobs.UpdateCounters(ctx, jobID, sent, failed, pending)
		}); err != nil {
			log.Error("failed to persist attempt outcome, failing job", zap.Error(err))
			d.fail(ctx, log, jobID)
			return
		}
	}

	final := models.JobCompleted
	if failed == job.TotalRecipients {
		final = models.JobFailed
	}

	if err := d.persist(ctx, func(ctx context.Context) error {
		if err := d.jobs.UpdateCounters(ctx, jobID, sent, failed, 0); err != nil {
			return err
		}
		return d.jobs.SetStatus(ctx, jobID, final)
	}); err != nil {
		log.Error("failed to finalize job", zap.Error(err))
		return
	}

	if final == models.JobCompleted {
		metrics.JobsCompleted.Inc()
	} else {
		metrics.JobsFailed.Inc()
	}

	log.Info("job finished",
		zap.String("status", string(final)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
}

// attempt prepares and sends one email. The rendered subject is always
// returned so the log entry carries it even when the attempt fails
// before submission.
func (d *Dispatcher) attempt(ctx context.Context, group *models.Group, sender Sender, rcpt models.Recipient) (string, error) {
	att, attErr := d.attachments.Resolve(ctx, rcpt.CertificateRef)

	vars := buildVars(rcpt, att)
	subject := templates.Render(group.SubjectTemplate, vars)

	if attErr != nil {
		return subject, fmt.Errorf("resolve attachment: %w", attErr)
	}

	msg := &transport.Message{
		To:      rcpt.Email,
		Subject: subject,
		Body:    templates.Render(group.BodyTemplate, vars),
	}

	if att != nil {
		data, err := d.fetcher.Fetch(ctx, att)
		if err != nil {
			return subject, fmt.Errorf("load attachment: %w", err)
		}
		msg.AttachmentName = att.Filename
		msg.AttachmentData = data
	}

	return subject, sender.Send(ctx, msg)
}

// buildVars assembles the template variables for one recipient: custom
// fields first, then the well-known aliases in both spellings so
// template authors can write {Name} or {name}. The certificate's human
// code wins over the raw reference.
func buildVars(rcpt models.Recipient, att *attachment.Attachment) map[string]string {
	vars := make(map[string]string, len(rcpt.Fields)+6)
	for k, v := range rcpt.Fields {
		vars[k] = v
	}

	vars["Name"] = rcpt.Name
	vars["name"] = rcpt.Name
	vars["Email"] = rcpt.Email
	vars["email"] = rcpt.Email

	certID := rcpt.CertificateRef
	if att != nil && att.Code != "" {
		certID = att.Code
	}
	if certID != "" {
		vars["CertificateID"] = certID
		vars["certificateId"] = certID
	}

	return vars
}

// fail moves the job to its failed terminal state, best effort.
func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, jobID string) {
	if err := d.persist(ctx, func(ctx context.Context) error {
		return d.jobs.SetStatus(ctx, jobID, models.JobFailed)
	}); err != nil {
		log.Error("failed to mark job failed", zap.Error(err))
		return
	}
	metrics.JobsFailed.Inc()
}

// persist retries a store write with exponential backoff so a transient
// database blip does not lose progress.
func (d *Dispatcher) persist(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = d.persistMaxElapsed

	return backoff.Retry(func() error {
		return op(ctx)
	}, backoff.WithContext(b, ctx))
}
