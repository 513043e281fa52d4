// Package api exposes the mail job engine over HTTP: job creation,
// status polling, delivery history, and history cleanup.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/shivangsaraswat/certiflow/internal/csvparser"
	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/status"
	"github.com/shivangsaraswat/certiflow/internal/store"
	"github.com/shivangsaraswat/certiflow/internal/transport"
)

type JobCreator interface {
	CreateJob(ctx context.Context, groupID string, recipients []models.Recipient) (*models.MailJob, error)
	DeleteLogEntry(ctx context.Context, groupID, logID string) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

type TransportResolver interface {
	Resolve(ctx context.Context, groupID string) (*models.TransportConfig, error)
}

// JobStarter is the fire-and-forget entry into the dispatcher.
type JobStarter interface {
	Start(ctx context.Context, jobID string)
}

type Handler struct {
	Store      JobCreator
	Status     *status.Facade
	Transports TransportResolver
	Jobs       JobStarter
	Log        *zap.Logger

	// BaseCtx is the process context: spawned jobs must outlive the
	// request, and new jobs are refused once it is canceled.
	BaseCtx context.Context
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/groups/{groupID}/mail-jobs", h.CreateJob)
	mux.HandleFunc("POST /api/groups/{groupID}/mail-jobs/import", h.ImportJob)
	mux.HandleFunc("GET /api/groups/{groupID}/mail-jobs/{jobID}", h.GetJobStatus)
	mux.HandleFunc("GET /api/groups/{groupID}/mail-logs", h.GetHistory)
	mux.HandleFunc("DELETE /api/groups/{groupID}/mail-logs/{logID}", h.DeleteLogEntry)
}

// maxImportRows caps how many data rows a CSV import may carry.
const maxImportRows = 1000

type createJobRequest struct {
	Recipients []recipientPayload `json:"recipients"`
}

type recipientPayload struct {
	Email                string            `json:"email"`
	Name                 string            `json:"name"`
	Data                 map[string]string `json:"data"`
	CertificateReference string            `json:"certificateReference"`
}

type createJobResponse struct {
	JobID           string `json:"jobId"`
	TotalRecipients int    `json:"totalRecipients"`
	Status          string `json:"status"`
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidBody")
		return
	}

	recipients := make([]models.Recipient, 0, len(req.Recipients))
	for _, p := range req.Recipients {
		if p.Email == "" {
			continue
		}
		recipients = append(recipients, models.Recipient{
			Email:          p.Email,
			Name:           p.Name,
			CertificateRef: p.CertificateReference,
			Fields:         p.Data,
		})
	}

	h.createJob(w, r, recipients)
}

// ImportJob accepts a CSV export of the group's data vault instead of a
// JSON recipient list. Same preconditions and response as CreateJob.
func (h *Handler) ImportJob(w http.ResponseWriter, r *http.Request) {
	recipients, err := csvparser.ParseRecipients(r.Body, maxImportRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidCSV")
		return
	}

	h.createJob(w, r, recipients)
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request, recipients []models.Recipient) {
	if h.BaseCtx.Err() != nil {
		writeError(w, http.StatusServiceUnavailable, "ShuttingDown")
		return
	}

	if len(recipients) == 0 {
		writeError(w, http.StatusBadRequest, "NoRecipients")
		return
	}

	groupID := r.PathValue("groupID")
	ctx := r.Context()

	group, err := h.Store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound")
		return
	}
	if err != nil {
		h.Log.Error("group lookup failed", zap.String("group_id", groupID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}
	if !group.HasTemplates() {
		writeError(w, http.StatusUnprocessableEntity, "InvalidConfiguration")
		return
	}

	// Preconditions only: the dispatcher re-resolves the transport when
	// the job actually runs.
	if _, err := h.Transports.Resolve(ctx, groupID); err != nil {
		if errors.Is(err, transport.ErrNotConfigured) {
			writeError(w, http.StatusUnprocessableEntity, "InvalidConfiguration")
			return
		}
		h.Log.Error("transport resolution failed", zap.String("group_id", groupID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	job, err := h.Store.CreateJob(ctx, groupID, recipients)
	if err != nil {
		h.Log.Error("job creation failed", zap.String("group_id", groupID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	h.Jobs.Start(h.BaseCtx, job.ID)

	h.Log.Info("mail job accepted",
		zap.String("job_id", job.ID),
		zap.String("group_id", groupID),
		zap.Int("recipients", job.TotalRecipients),
	)

	writeJSON(w, http.StatusAccepted, createJobResponse{
		JobID:           job.ID,
		TotalRecipients: job.TotalRecipients,
		Status:          string(models.JobProcessing),
	})
}

func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Status.GetStatus(r.Context(), r.PathValue("groupID"), r.PathValue("jobID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound")
		return
	}
	if err != nil {
		h.Log.Error("status lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := h.Status.GetHistory(r.Context(), r.PathValue("groupID"), limit, offset)
	if err != nil {
		h.Log.Error("history lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// DeleteLogEntry deletes unconditionally by id within the group; an id
// that is already gone still reports success.
func (h *Handler) DeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteLogEntry(r.Context(), r.PathValue("groupID"), r.PathValue("logID"))
	if err != nil {
		h.Log.Error("log entry deletion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind string) {
	writeJSON(w, code, map[string]string{"error": kind})
}
