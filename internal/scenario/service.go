package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/risk"
)

// Service errors.
var (
	ErrBuiltinImmutable = errors.New("builtin scenario preset cannot be modified")
)

// Validation constants.
const (
	MaxNameLength        = 80
	MaxDescriptionLength = 500
)

// builtinPresets are seeded on startup so every deployment answers
// preset queries with a usable baseline catalogue.
var builtinPresets = []struct {
	name              string
	description       string
	rainfallMMPerHour float64
	durationHours     float64
}{
	{"drizzle-6h", "Light drizzle over an extended period", 2, 6},
	{"steady-rain-2h", "Steady rainfall for two hours", 10, 2},
	{"cloudburst-1h", "Intense cloudburst concentrated in one hour", 60, 1},
	{"design-storm-24h", "Design storm spreading 180 mm over a full day", 7.5, 24},
}

// Service provides scenario preset operations. Presets are addressed
// by name; the generated ID is a storage identifier only.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new scenario preset service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SeedDefaults inserts the builtin presets that are not stored yet. It
// is idempotent and safe to run on every startup.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, b := range builtinPresets {
		_, err := s.repo.GetByName(ctx, b.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrPresetNotFound) {
			return err
		}

		now := time.Now()
		description := b.description
		preset := &Preset{
			ID:                newPresetID(),
			Name:              b.name,
			Description:       &description,
			RainfallMMPerHour: b.rainfallMMPerHour,
			DurationHours:     b.durationHours,
			Builtin:           true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.Create(ctx, preset); err != nil {
			// Another instance may seed concurrently.
			if errors.Is(err, ErrPresetExists) {
				continue
			}
			return err
		}
		s.logger.Info().Str("preset", b.name).Msg("seeded builtin scenario preset")
	}
	return nil
}

// List retrieves all presets.
func (s *Service) List(ctx context.Context) (*models.ScenarioPresetList, error) {
	presets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.ScenarioPreset, 0, len(presets))
	for _, p := range presets {
		items = append(items, s.toAPIPreset(p))
	}

	return &models.ScenarioPresetList{
		Presets: items,
		Count:   len(items),
	}, nil
}

// Get retrieves a preset by name.
func (s *Service) Get(ctx context.Context, name string) (*models.ScenarioPreset, error) {
	preset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	result := s.toAPIPreset(preset)
	return &result, nil
}

// Resolve returns the rainfall scenario a stored preset stands for, in
// the form the risk engine consumes.
func (s *Service) Resolve(ctx context.Context, name string) (*risk.Scenario, error) {
	preset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return &risk.Scenario{
		RainfallMMPerHour: preset.RainfallMMPerHour,
		DurationHours:     preset.DurationHours,
	}, nil
}

// Create stores a new custom preset.
func (s *Service) Create(ctx context.Context, input *models.ScenarioPresetCreateRequest) (*models.ScenarioPreset, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	preset := &Preset{
		ID:                newPresetID(),
		Name:              input.Name,
		Description:       input.Description,
		RainfallMMPerHour: input.RainfallMMPerHour,
		DurationHours:     input.DurationHours,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, preset); err != nil {
		return nil, err
	}

	result := s.toAPIPreset(preset)
	return &result, nil
}

// Update modifies an existing custom preset by name. Builtin presets
// are immutable.
func (s *Service) Update(ctx context.Context, name string, input *models.ScenarioPresetUpdateRequest) (*models.ScenarioPreset, error) {
	preset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if preset.Builtin {
		return nil, ErrBuiltinImmutable
	}

	if input.Name != nil {
		preset.Name = *input.Name
	}
	if input.Description != nil {
		preset.Description = input.Description
	}
	if input.RainfallMMPerHour != nil {
		preset.RainfallMMPerHour = *input.RainfallMMPerHour
	}
	if input.DurationHours != nil {
		preset.DurationHours = *input.DurationHours
	}

	if fieldErrors := s.validatePreset(preset); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	preset.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, preset); err != nil {
		return nil, err
	}

	result := s.toAPIPreset(preset)
	return &result, nil
}

// Delete removes a custom preset by name. Builtin presets cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, name string) error {
	preset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if preset.Builtin {
		return ErrBuiltinImmutable
	}

	return s.repo.Delete(ctx, preset.ID)
}

func newPresetID() string {
	return "scn_" + uuid.New().String()[:22]
}

// validateCreateInput validates the create preset input.
func (s *Service) validateCreateInput(input *models.ScenarioPresetCreateRequest) []models.FieldError {
	preset := &Preset{
		Name:              input.Name,
		Description:       input.Description,
		RainfallMMPerHour: input.RainfallMMPerHour,
		DurationHours:     input.DurationHours,
	}
	return s.validatePreset(preset)
}

// validatePreset checks the merged preset fields. The rainfall bounds
// are the risk engine's own scenario bounds, so a stored preset can
// always be applied to a query.
func (s *Service) validatePreset(preset *Preset) []models.FieldError {
	var errs []models.FieldError

	if preset.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(preset.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	if preset.Description != nil && len(*preset.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 500 characters"})
	}

	scenario := risk.Scenario{
		RainfallMMPerHour: preset.RainfallMMPerHour,
		DurationHours:     preset.DurationHours,
	}
	if err := scenario.Validate(); err != nil {
		var verr *risk.ValidationError
		if errors.As(err, &verr) {
			errs = append(errs, models.FieldError{Field: verr.Field, Message: verr.Reason})
		}
	}

	return errs
}

// toAPIPreset converts a domain Preset to an API ScenarioPreset.
func (s *Service) toAPIPreset(p *Preset) models.ScenarioPreset {
	return models.ScenarioPreset{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		RainfallMMPerHour: p.RainfallMMPerHour,
		DurationHours:     p.DurationHours,
		TotalRainfallMM:   p.RainfallMMPerHour * p.DurationHours,
		Builtin:           p.Builtin,
		CreatedAt:         models.Timestamp(p.CreatedAt),
		UpdatedAt:         models.Timestamp(p.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
