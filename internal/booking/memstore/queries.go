package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// ListByUser returns the user's reservations, newest start first.  A zero
// status matches every status; limit <= 0 means no limit.
func (s *Store) ListByUser(ctx context.Context, userID uint64, status model.ReservationStatus, limit int) ([]model.Reservation, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]model.Reservation, 0)
	for _, r := range s.rows {
		if r.UserID != userID || (status != 0 && r.Status != status) {
			continue
		}
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountUpcoming counts the user's active reservations starting after now.
func (s *Store) CountUpcoming(ctx context.Context, userID uint64, now time.Time) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && r.Status == model.StatusActive && r.StartTime.After(now) {
			n++
		}
	}
	return n, nil
}

// CountByStatus tallies the user's reservations per status.
func (s *Store) CountByStatus(ctx context.Context, userID uint64) (map[model.ReservationStatus]int, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.ReservationStatus]int)
	for _, r := range s.rows {
		if r.UserID == userID {
			out[r.Status]++
		}
	}
	return out, nil
}
