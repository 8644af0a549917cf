package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// VenueRepository persists department venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// Create inserts a venue. A clash on (department, name) yields ErrDuplicate.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue == nil {
		return fmt.Errorf("venue payload is nil")
	}
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	const query = `
INSERT INTO venues (id, name, department, capacity, location, created_at, updated_at)
VALUES (:id, :name, :department, :capacity, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

// ExistsByName reports whether the department already has a venue with this name, ignoring case.
func (r *VenueRepository) ExistsByName(ctx context.Context, department, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM venues WHERE department = $1 AND LOWER(name) = LOWER($2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, department, name); err != nil {
		return false, fmt.Errorf("check venue exists: %w", err)
	}
	return exists, nil
}

// ListByDepartment returns the department's venues ordered by name.
func (r *VenueRepository) ListByDepartment(ctx context.Context, department string) ([]models.Venue, error) {
	const query = `SELECT id, name, department, capacity, location, created_at, updated_at FROM venues WHERE department = $1 ORDER BY name ASC`
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query, department); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}
