// Package handler provides HTTP handlers for the gateway API.
package handler

import (
	"net/http"
	"time"

	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/api/response"
	"github.com/haulroute/haulroute/internal/provider/resilience"
)

// OpsConfig holds configuration for the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string
	// Registry supplies provider health for /ops/status (optional).
	Registry *resilience.Registry
	// MissingKeys names unset provider credentials; any entry fails readiness.
	MissingKeys []string
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /ops/ready. The gateway is ready once both
// provider API keys are configured.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if len(h.cfg.MissingKeys) > 0 {
		response.ServiceUnavailable(w, r, models.Health{
			Status:  models.HealthStatusFail,
			Time:    models.Timestamp(h.now()),
			Details: map[string]any{"missingConfig": h.cfg.MissingKeys},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	})
}

// SystemStatus handles GET /ops/status - per-provider circuit and call history.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Providers: []models.ProviderStatus{},
	}

	if h.cfg.Registry != nil {
		for _, health := range h.cfg.Registry.GetAllHealth() {
			ps := providerStatus(health)
			status.Providers = append(status.Providers, ps)
			status.Status = worst(status.Status, ps.Status)
		}
	}
	if len(h.cfg.MissingKeys) > 0 {
		status.Status = worst(status.Status, models.HealthStatusDegraded)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(health *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     health.Name,
		Status:       models.HealthStatusOK,
		CircuitState: health.CircuitState.String(),
		Requests:     health.Counts.Requests,
		Failures:     health.Counts.TotalFailures,
	}

	switch {
	case health.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case health.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}

	if health.LastSuccessAt != nil {
		ts := models.Timestamp(*health.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if health.LastFailureAt != nil {
		ts := models.Timestamp(*health.LastFailureAt)
		ps.LastFailureAt = &ts
		if health.LastError != "" {
			msg := health.LastError
			ps.Message = &msg
		}
	}

	return ps
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
