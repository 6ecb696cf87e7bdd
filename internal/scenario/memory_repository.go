package scenario

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository. It
// backs deployments without a database and the test suite; production
// with persistence should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewInMemoryRepository creates a new in-memory preset repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		presets: make(map[string]*Preset),
	}
}

// Get retrieves a preset by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[id]
	if !ok {
		return nil, ErrPresetNotFound
	}

	cpy := *p
	return &cpy, nil
}

// GetByName retrieves a preset by its unique name.
func (r *InMemoryRepository) GetByName(_ context.Context, name string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.presets {
		if p.Name == name {
			cpy := *p
			return &cpy, nil
		}
	}
	return nil, ErrPresetNotFound
}

// List retrieves all presets, oldest first.
func (r *InMemoryRepository) List(_ context.Context) ([]*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	presets := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		cpy := *p
		presets = append(presets, &cpy)
	}

	sort.Slice(presets, func(i, j int) bool {
		if !presets[i].CreatedAt.Equal(presets[j].CreatedAt) {
			return presets[i].CreatedAt.Before(presets[j].CreatedAt)
		}
		return presets[i].ID < presets[j].ID
	})
	return presets, nil
}

// Create stores a new preset.
func (r *InMemoryRepository) Create(_ context.Context, p *Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.presets {
		if existing.Name == p.Name {
			return ErrPresetExists
		}
	}

	cpy := *p
	r.presets[p.ID] = &cpy
	return nil
}

// Update replaces an existing preset.
func (r *InMemoryRepository) Update(_ context.Context, p *Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[p.ID]; !ok {
		return ErrPresetNotFound
	}
	for id, existing := range r.presets {
		if id != p.ID && existing.Name == p.Name {
			return ErrPresetExists
		}
	}

	cpy := *p
	r.presets[p.ID] = &cpy
	return nil
}

// Delete removes a preset by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.presets, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
