// Package models provides request and response models for the PondWatch API.
// Wire names are snake_case to stay compatible with the original service
// consumers.
package models

import "time"

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// GeoBox represents a geographic bounding box.
type GeoBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// RiskSeverity labels one of the five severity bands of the risk model.
type RiskSeverity string

const (
	SeverityVeryLow  RiskSeverity = "VERY_LOW"
	SeverityLow      RiskSeverity = "LOW"
	SeverityModerate RiskSeverity = "MODERATE"
	SeverityHigh     RiskSeverity = "HIGH"
	SeverityVeryHigh RiskSeverity = "VERY_HIGH"
)

// RiskTier identifies a severity band in tiered area reports.
type RiskTier string

const (
	TierVeryHigh RiskTier = "very_high"
	TierHigh     RiskTier = "high"
	TierModerate RiskTier = "moderate"
	TierLow      RiskTier = "low"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
