package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/internal/syncer"
	"distributorsearch_api/pkg/logger"
)

type SupplierSource interface {
	GetAll(ctx context.Context) ([]models.Supplier, error)
	GetByID(ctx context.Context, id int) (*models.Supplier, error)
}

// SyncSubmitter submits a fire-and-forget sync and exposes job status.
type SyncSubmitter interface {
	Submit(ctx context.Context, supplier models.Supplier) *syncer.Job
	JobStatus(id string) *syncer.Job
}

type SupplierHandler struct {
	suppliers SupplierSource
	syncs     SyncSubmitter
	log       logger.Logger
}

func NewSupplierHandler(suppliers SupplierSource, syncs SyncSubmitter, writer io.Writer) *SupplierHandler {
	return &SupplierHandler{
		suppliers: suppliers,
		syncs:     syncs,
		log:       logger.NewLogger(writer, "[SupplierHandler]"),
	}
}

// ListHandler serves GET /api/suppliers.
func (h *SupplierHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.GetAll(r.Context())
	if err != nil {
		h.log.Log("Failed to list suppliers: %s", err)
		http.Error(w, "Failed to list suppliers", http.StatusInternalServerError)
		return
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	writeJSON(w, http.StatusOK, suppliers)
}

// TriggerSyncHandler serves POST /api/suppliers/{id}/sync. The sync runs in
// the background; the response carries a job id to poll.
func (h *SupplierHandler) TriggerSyncHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid supplier id", http.StatusBadRequest)
		return
	}

	supplier, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		h.log.Log("Failed to load supplier %d: %s", id, err)
		http.Error(w, "Failed to load supplier", http.StatusInternalServerError)
		return
	}
	if supplier == nil {
		http.Error(w, "Supplier not found", http.StatusNotFound)
		return
	}
	if supplier.Status != models.SupplierActive {
		http.Error(w, "Supplier is inactive", http.StatusConflict)
		return
	}

	job := h.syncs.Submit(r.Context(), *supplier)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":    "Sync started",
		"supplierId": supplier.ID,
		"jobId":      job.ID,
	})
}

// JobStatusHandler serves GET /api/sync/jobs/{jobId}.
func (h *SupplierHandler) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	job := h.syncs.JobStatus(r.PathValue("jobId"))
	if job == nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
