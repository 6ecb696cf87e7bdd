// Package handler provides HTTP handlers for the PondWatch API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/api/response"
	"github.com/pondwatch/pondwatch/internal/risk"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	loader    *risk.Loader
	db        Pinger
}

// NewOpsHandler creates a new OpsHandler. db may be nil when the
// service runs without a database.
func NewOpsHandler(version, buildTime string, loader *risk.Loader, db Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		loader:    loader,
		db:        db,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.version,
		BuildTime: h.buildTime,
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The
// service is ready once the risk engine has finished data preparation
// and, when configured, the database answers a ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	readiness := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Checks: []models.ReadinessCheck{
			h.engineCheck(),
		},
	}
	if h.db != nil {
		readiness.Checks = append(readiness.Checks, h.databaseCheck(r.Context()))
	}

	status := http.StatusOK
	for _, check := range readiness.Checks {
		if check.Status != models.HealthStatusOK {
			readiness.Status = models.HealthStatusFail
			status = http.StatusServiceUnavailable
			break
		}
	}
	response.JSON(w, r, status, readiness)
}

// Preprocessing handles GET /v1/ops/preprocessing - background terrain
// preparation progress.
func (h *OpsHandler) Preprocessing(w http.ResponseWriter, r *http.Request) {
	status := h.loader.Status()
	response.JSON(w, r, http.StatusOK, models.PreprocessingStatus{
		State:    string(status.State),
		Progress: status.Progress,
		Message:  status.Message,
		Error:    status.Error,
	})
}

func (h *OpsHandler) engineCheck() models.ReadinessCheck {
	check := models.ReadinessCheck{Name: "risk_engine", Status: models.HealthStatusOK}
	status := h.loader.Status()
	if status.State != risk.LoadReady {
		check.Status = models.HealthStatusFail
		check.Detail = strPtr(status.Message)
	}
	return check
}

func (h *OpsHandler) databaseCheck(ctx context.Context) models.ReadinessCheck {
	check := models.ReadinessCheck{Name: "database", Status: models.HealthStatusOK}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		check.Status = models.HealthStatusFail
		check.Detail = strPtr(err.Error())
	}
	return check
}

func strPtr(s string) *string {
	return &s
}
