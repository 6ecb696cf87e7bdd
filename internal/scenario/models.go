// Package scenario manages stored rainfall scenario presets.
package scenario

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrPresetNotFound = errors.New("scenario preset not found")
	ErrPresetExists   = errors.New("scenario preset name already in use")
)

// Preset is a named rainfall scenario clients can apply to any risk
// query instead of spelling out intensity and duration by hand.
type Preset struct {
	ID                string
	Name              string
	Description       *string
	RainfallMMPerHour float64
	DurationHours     float64
	Builtin           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
