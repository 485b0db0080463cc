package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/internal/core/models"
)

const healthProbeTimeout = 15 * time.Second

type HealthHandler struct {
	connectors map[string]connectors.Connector
}

func NewHealthHandler(conns map[string]connectors.Connector) *HealthHandler {
	return &HealthHandler{connectors: conns}
}

type healthReport struct {
	Status    string                         `json:"status"`
	Suppliers map[string]models.HealthStatus `json:"suppliers"`
	CheckedAt time.Time                      `json:"checkedAt"`
}

// Handler serves GET /api/health: each connector is probed concurrently with
// its own timeout, and the overall status degrades if any feed is down.
func (h *HealthHandler) Handler(w http.ResponseWriter, r *http.Request) {
	type probeResult struct {
		slug   string
		status models.HealthStatus
	}

	results := make(chan probeResult, len(h.connectors))
	var wg sync.WaitGroup
	for slug, conn := range h.connectors {
		wg.Add(1)
		go func(slug string, conn connectors.Connector) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
			defer cancel()
			results <- probeResult{slug: slug, status: conn.HealthStatus(ctx)}
		}(slug, conn)
	}
	wg.Wait()
	close(results)

	report := healthReport{
		Status:    models.HealthHealthy,
		Suppliers: make(map[string]models.HealthStatus, len(h.connectors)),
		CheckedAt: time.Now(),
	}
	for res := range results {
		report.Suppliers[res.slug] = res.status
		if res.status.Status != models.HealthHealthy {
			report.Status = "degraded"
		}
	}

	status := http.StatusOK
	if report.Status != models.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Slugs lists the probed connector slugs in stable order.
func (h *HealthHandler) Slugs() []string {
	slugs := make([]string, 0, len(h.connectors))
	for s := range h.connectors {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
