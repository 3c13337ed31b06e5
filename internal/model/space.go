package model

import "time"

// Space is a bookable room or area.  The booking engine only reads ID,
// IsActive and PricePerHourCents; the remaining fields belong to the
// spaces catalog.
type Space struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	Capacity          uint32    `json:"capacity"`
	Location          *string   `json:"location,omitempty"`
	Amenities         []string  `json:"amenities"`
	PricePerHourCents int64     `json:"price_per_hour_cents"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasAmenity reports whether the space lists the given amenity.
func (s Space) HasAmenity(name string) bool {
	for _, a := range s.Amenities {
		if a == name {
			return true
		}
	}
	return false
}
