package scenario

import "context"

// Repository defines the interface for preset persistence.
type Repository interface {
	// Get retrieves a preset by ID.
	Get(ctx context.Context, id string) (*Preset, error)

	// GetByName retrieves a preset by its unique name.
	GetByName(ctx context.Context, name string) (*Preset, error)

	// List retrieves all presets, oldest first.
	List(ctx context.Context) ([]*Preset, error)

	// Create stores a new preset. It returns ErrPresetExists when the
	// name is already taken.
	Create(ctx context.Context, preset *Preset) error

	// Update replaces an existing preset.
	Update(ctx context.Context, preset *Preset) error

	// Delete removes a preset by ID.
	Delete(ctx context.Context, id string) error
}
