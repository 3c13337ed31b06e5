package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

var _ booking.SpaceDirectory = (*SpaceRepo)(nil)

// SpaceRepo is the catalog of bookable spaces.  Amenities are stored as a
// JSON array column.
type SpaceRepo struct{ db *sql.DB }

func NewSpaceRepo(db *sql.DB) *SpaceRepo { return &SpaceRepo{db: db} }

const spaceColumns = "id,name,description,capacity,location,amenities,price_per_hour_cents,is_active,created_at,updated_at"

func scanSpace(row interface{ Scan(...any) error }) (model.Space, error) {
	var (
		s         model.Space
		desc, loc sql.NullString
		amenities []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &desc, &s.Capacity, &loc, &amenities,
		&s.PricePerHourCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Space{}, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	if loc.Valid {
		s.Location = &loc.String
	}
	s.Amenities = []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &s.Amenities); err != nil {
			return model.Space{}, fmt.Errorf("space %d amenities: %w", s.ID, err)
		}
	}
	return s, nil
}

func amenitiesJSON(a []string) ([]byte, error) {
	if a == nil {
		a = []string{}
	}
	return json.Marshal(a)
}

// GetSpace implements booking.SpaceDirectory.
func (r *SpaceRepo) GetSpace(ctx context.Context, id uint64) (model.Space, error) {
	s, err := scanSpace(r.db.QueryRowContext(ctx, "SELECT "+spaceColumns+" FROM spaces WHERE id=?", id))
	return s, notFound(err, "get space")
}

// List returns spaces matching f ordered by id.  The amenity filter uses
// JSON_CONTAINS on the amenities column.
func (r *SpaceRepo) List(ctx context.Context, f model.SpaceFilter) ([]model.Space, error) {
	where := []string{"1=1"}
	var args []any
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if f.MinCapacity != nil {
		where = append(where, "capacity>=?")
		args = append(args, *f.MinCapacity)
	}
	if f.MaxCapacity != nil {
		where = append(where, "capacity<=?")
		args = append(args, *f.MaxCapacity)
	}
	if f.Amenity != "" {
		needle, _ := json.Marshal(f.Amenity)
		where = append(where, "JSON_CONTAINS(amenities, ?)")
		args = append(args, string(needle))
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+spaceColumns+" FROM spaces WHERE "+strings.Join(where, " AND ")+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()
	out := make([]model.Space, 0)
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts s and fills in its ID and timestamps.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) error {
	am, err := amenitiesJSON(s.Amenities)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO spaces (name, description, capacity, location, amenities, price_per_hour_cents, is_active)
		 VALUES (?,?,?,?,?,?,?)`,
		s.Name, s.Description, s.Capacity, s.Location, am, s.PricePerHourCents, s.IsActive)
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO reservation_space_locks (space_id) VALUES (?)", id); err != nil {
		return fmt.Errorf("create space lock: %w", err)
	}
	stored, err := r.GetSpace(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = stored
	return nil
}

// Update applies u to space id and returns the stored row.
func (r *SpaceRepo) Update(ctx context.Context, id uint64, u model.SpaceUpdate) (model.Space, error) {
	current, err := r.GetSpace(ctx, id)
	if err != nil {
		return model.Space{}, err
	}
	if u.Empty() {
		return current, nil
	}
	u.Apply(&current)
	am, err := amenitiesJSON(current.Amenities)
	if err != nil {
		return model.Space{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE spaces SET name=?, description=?, capacity=?, location=?, amenities=?,
		 price_per_hour_cents=?, is_active=? WHERE id=?`,
		current.Name, current.Description, current.Capacity, current.Location, am,
		current.PricePerHourCents, current.IsActive, id)
	if err != nil {
		return model.Space{}, fmt.Errorf("update space: %w", err)
	}
	return r.GetSpace(ctx, id)
}
