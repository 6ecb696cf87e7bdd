package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/api/response"
	"github.com/pondwatch/pondwatch/internal/scenario"
)

// ScenarioHandler handles scenario preset endpoints.
type ScenarioHandler struct {
	service *scenario.Service
}

// NewScenarioHandler creates a new ScenarioHandler.
func NewScenarioHandler(service *scenario.Service) *ScenarioHandler {
	return &ScenarioHandler{service: service}
}

// ListScenarios handles GET /v1/scenarios - list stored presets.
func (h *ScenarioHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list scenario presets")
		return
	}
	response.JSON(w, r, http.StatusOK, presets)
}

// CreateScenario handles POST /v1/scenarios - store a preset.
func (h *ScenarioHandler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var input models.ScenarioPresetCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, r, "invalid request", fieldErrors(err))
		return
	}

	preset, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeScenarioError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/scenarios/"+url.PathEscape(preset.Name), preset)
}

// GetScenario handles GET /v1/scenarios/{name} - fetch one preset.
func (h *ScenarioHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, r, "name is required", nil)
		return
	}

	preset, err := h.service.Get(r.Context(), name)
	if err != nil {
		writeScenarioError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, preset)
}

// UpdateScenario handles PUT /v1/scenarios/{name} - update a stored
// preset. Absent fields keep their stored values.
func (h *ScenarioHandler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, r, "name is required", nil)
		return
	}

	var input models.ScenarioPresetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	preset, err := h.service.Update(r.Context(), name, &input)
	if err != nil {
		writeScenarioError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, preset)
}

// DeleteScenario handles DELETE /v1/scenarios/{name} - remove a stored
// preset. Builtin presets cannot be removed.
func (h *ScenarioHandler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, r, "name is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), name); err != nil {
		writeScenarioError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func writeScenarioError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *scenario.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, "invalid scenario preset", verr.Errors)
	case errors.Is(err, scenario.ErrPresetNotFound):
		response.NotFound(w, r, "scenario preset not found")
	case errors.Is(err, scenario.ErrPresetExists):
		response.Conflict(w, r, "a scenario preset with this name already exists")
	case errors.Is(err, scenario.ErrBuiltinImmutable):
		response.Conflict(w, r, "builtin scenario presets cannot be modified")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
