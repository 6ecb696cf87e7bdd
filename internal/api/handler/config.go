package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/api/response"
	"github.com/pondwatch/pondwatch/internal/risk"
)

// ConfigHandler handles risk model configuration endpoints.
type ConfigHandler struct {
	loader *risk.Loader
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(loader *risk.Loader) *ConfigHandler {
	return &ConfigHandler{loader: loader}
}

// GetRiskConfig handles GET /v1/config/risk - current model parameters.
func (h *ConfigHandler) GetRiskConfig(w http.ResponseWriter, r *http.Request) {
	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRiskConfig(engine.Parameters()))
}

// UpdateRiskConfig handles PUT /v1/config/risk - replace the model
// parameters. Every field must be present; absent fields decode to zero
// and fail validation.
func (h *ConfigHandler) UpdateRiskConfig(w http.ResponseWriter, r *http.Request) {
	var input models.RiskConfig
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := engine.SetParameters(toParameters(input)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRiskConfig(engine.Parameters()))
}

func toRiskConfig(p risk.Parameters) models.RiskConfig {
	return models.RiskConfig{
		RainfallMMPerHour:   p.RainfallMMPerHour,
		DurationHours:       p.DurationHours,
		DrainageCoefficient: p.DrainageCoefficient,
		PondingThresholdMM:  p.PondingThresholdMM,
		FlowAccumThreshold:  p.FlowAccumThreshold,
		ElevationWeight:     p.ElevationWeight,
		FlowAccumWeight:     p.FlowAccumWeight,
		RainfallWeight:      p.RainfallWeight,
	}
}

func toParameters(c models.RiskConfig) risk.Parameters {
	return risk.Parameters{
		RainfallMMPerHour:   c.RainfallMMPerHour,
		DurationHours:       c.DurationHours,
		DrainageCoefficient: c.DrainageCoefficient,
		PondingThresholdMM:  c.PondingThresholdMM,
		FlowAccumThreshold:  c.FlowAccumThreshold,
		ElevationWeight:     c.ElevationWeight,
		FlowAccumWeight:     c.FlowAccumWeight,
		RainfallWeight:      c.RainfallWeight,
	}
}
