package scenario

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised when an insert or
// update breaks the unique name index.
const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL preset repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a preset by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Preset, error) {
	query := `
		SELECT
			id, name, description,
			rainfall_mm_per_hour, duration_hours, builtin,
			created_at, updated_at
		FROM scenario_presets
		WHERE id = $1
	`

	return r.scanPreset(ctx, query, id)
}

// GetByName retrieves a preset by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Preset, error) {
	query := `
		SELECT
			id, name, description,
			rainfall_mm_per_hour, duration_hours, builtin,
			created_at, updated_at
		FROM scenario_presets
		WHERE name = $1
	`

	return r.scanPreset(ctx, query, name)
}

// scanPreset scans a preset from a single-row query result.
func (r *PostgresRepository) scanPreset(ctx context.Context, query string, args ...interface{}) (*Preset, error) {
	var preset Preset

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&preset.ID,
		&preset.Name,
		&preset.Description,
		&preset.RainfallMMPerHour,
		&preset.DurationHours,
		&preset.Builtin,
		&preset.CreatedAt,
		&preset.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}

	return &preset, nil
}

// List retrieves all presets, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Preset, error) {
	query := `
		SELECT
			id, name, description,
			rainfall_mm_per_hour, duration_hours, builtin,
			created_at, updated_at
		FROM scenario_presets
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		var preset Preset
		err := rows.Scan(
			&preset.ID,
			&preset.Name,
			&preset.Description,
			&preset.RainfallMMPerHour,
			&preset.DurationHours,
			&preset.Builtin,
			&preset.CreatedAt,
			&preset.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		presets = append(presets, &preset)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return presets, nil
}

// Create stores a new preset.
func (r *PostgresRepository) Create(ctx context.Context, preset *Preset) error {
	query := `
		INSERT INTO scenario_presets (
			id, name, description,
			rainfall_mm_per_hour, duration_hours, builtin,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		preset.ID,
		preset.Name,
		preset.Description,
		preset.RainfallMMPerHour,
		preset.DurationHours,
		preset.Builtin,
		preset.CreatedAt,
		preset.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

// Update replaces an existing preset.
func (r *PostgresRepository) Update(ctx context.Context, preset *Preset) error {
	query := `
		UPDATE scenario_presets SET
			name = $2,
			description = $3,
			rainfall_mm_per_hour = $4,
			duration_hours = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		preset.ID,
		preset.Name,
		preset.Description,
		preset.RainfallMMPerHour,
		preset.DurationHours,
		preset.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}

	if result.RowsAffected() == 0 {
		return ErrPresetNotFound
	}

	return nil
}

// Delete removes a preset by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM scenario_presets WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrPresetExists
	}
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
