package model

// SpaceFilter narrows space listings.  Nil fields do not filter.
type SpaceFilter struct {
	IsActive    *bool
	MinCapacity *uint32
	MaxCapacity *uint32
	Amenity     string
}

// Match reports whether s passes every set filter.
func (f SpaceFilter) Match(s Space) bool {
	if f.IsActive != nil && s.IsActive != *f.IsActive {
		return false
	}
	if f.MinCapacity != nil && s.Capacity < *f.MinCapacity {
		return false
	}
	if f.MaxCapacity != nil && s.Capacity > *f.MaxCapacity {
		return false
	}
	if f.Amenity != "" && !s.HasAmenity(f.Amenity) {
		return false
	}
	return true
}

// SpaceUpdate is a partial update of a space; nil fields are left as is.
type SpaceUpdate struct {
	Name              *string   `json:"name"`
	Description       *string   `json:"description"`
	Capacity          *uint32   `json:"capacity"`
	Location          *string   `json:"location"`
	Amenities         *[]string `json:"amenities"`
	PricePerHourCents *int64    `json:"price_per_hour_cents"`
	IsActive          *bool     `json:"is_active"`
}

// Empty reports whether the update sets no field.
func (u SpaceUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Capacity == nil && u.Location == nil &&
		u.Amenities == nil && u.PricePerHourCents == nil && u.IsActive == nil
}

// Apply copies the set fields onto s.
func (u SpaceUpdate) Apply(s *Space) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = u.Description
	}
	if u.Capacity != nil {
		s.Capacity = *u.Capacity
	}
	if u.Location != nil {
		s.Location = u.Location
	}
	if u.Amenities != nil {
		s.Amenities = append([]string(nil), (*u.Amenities)...)
	}
	if u.PricePerHourCents != nil {
		s.PricePerHourCents = *u.PricePerHourCents
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
}
