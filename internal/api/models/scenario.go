package models

// ScenarioPreset represents a stored rainfall scenario.
type ScenarioPreset struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	RainfallMMPerHour float64   `json:"rainfall_mm_per_hour"`
	DurationHours     float64   `json:"duration_hours"`
	TotalRainfallMM   float64   `json:"total_rainfall_mm"`
	Builtin           bool      `json:"builtin"`
	CreatedAt         Timestamp `json:"created_at"`
	UpdatedAt         Timestamp `json:"updated_at"`
}

// ScenarioPresetList represents the stored preset catalogue.
type ScenarioPresetList struct {
	Presets []ScenarioPreset `json:"presets"`
	Count   int              `json:"count"`
}

// ScenarioPresetCreateRequest represents a request to store a preset.
type ScenarioPresetCreateRequest struct {
	Name              string  `json:"name" validate:"required,max=80"`
	Description       *string `json:"description,omitempty" validate:"omitempty,max=500"`
	RainfallMMPerHour float64 `json:"rainfall_mm_per_hour" validate:"gte=0,lte=200"`
	DurationHours     float64 `json:"duration_hours" validate:"gte=0.1,lte=24"`
}

// ScenarioPresetUpdateRequest represents a partial preset update. Nil
// fields keep their stored values.
type ScenarioPresetUpdateRequest struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	RainfallMMPerHour *float64 `json:"rainfall_mm_per_hour,omitempty"`
	DurationHours     *float64 `json:"duration_hours,omitempty"`
}
