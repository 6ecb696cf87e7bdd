package models

// Health represents the liveness of the service.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      Timestamp    `json:"time"`
	Version   string       `json:"version"`
	BuildTime string       `json:"build_time"`
}

// Readiness reports whether the service can answer risk queries.
type Readiness struct {
	Status HealthStatus     `json:"status"`
	Time   Timestamp        `json:"time"`
	Checks []ReadinessCheck `json:"checks"`
}

// ReadinessCheck represents the status of one dependency.
type ReadinessCheck struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// PreprocessingStatus reports the background terrain preparation state.
type PreprocessingStatus struct {
	State    string `json:"state"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}
