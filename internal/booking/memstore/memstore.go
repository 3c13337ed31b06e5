// Package memstore is an in-process implementation of booking.Store.  It
// serializes Atomic calls with one mutex per space and buffers writes
// until the unit of work succeeds.  Tests and single-node development
// runs use it in place of MySQL.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

var _ booking.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	rows   map[uint64]model.Reservation
	nextID uint64
	spaces map[uint64]*sync.Mutex
	fault  error
}

func New() *Store {
	return &Store{
		rows:   make(map[uint64]model.Reservation),
		spaces: make(map[uint64]*sync.Mutex),
	}
}

// Seed stores reservations as given, bypassing every booking rule.  Rows
// without an ID are assigned one.
func (s *Store) Seed(rs ...model.Reservation) []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(rs))
	for _, r := range rs {
		if r.ID == 0 {
			s.nextID++
			r.ID = s.nextID
		} else if r.ID > s.nextID {
			s.nextID = r.ID
		}
		s.rows[r.ID] = r
		out = append(out, r)
	}
	return out
}

// SetFault makes every subsequent call fail with err until it is reset
// with nil.
func (s *Store) SetFault(err error) {
	s.mu.Lock()
	s.fault = err
	s.mu.Unlock()
}

// Len returns the number of stored reservations in any status.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault
}

func (s *Store) ActiveOverlapping(ctx context.Context, spaceID uint64, iv booking.Interval) ([]model.Reservation, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return overlapping(s.rows, nil, spaceID, iv), nil
}

func (s *Store) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	if err := s.check(ctx); err != nil {
		return model.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return model.Reservation{}, model.ErrNotFound
	}
	return r, nil
}

func (s *Store) ActiveEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Reservation, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var out []model.Reservation
	for _, r := range s.rows {
		if r.Status == model.StatusActive && r.EndTime.Before(t) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].EndTime.Before(out[j].EndTime)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) spaceLock(spaceID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.spaces[spaceID]
	if !ok {
		l = &sync.Mutex{}
		s.spaces[spaceID] = l
	}
	return l
}

func (s *Store) Atomic(ctx context.Context, spaceID uint64, fn func(ctx context.Context, tx booking.Tx) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	l := s.spaceLock(spaceID)
	l.Lock()
	defer l.Unlock()

	tx := &tx{s: s, dirty: make(map[uint64]model.Reservation)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	for id, r := range tx.dirty {
		s.rows[id] = r
	}
	s.mu.Unlock()
	return nil
}

// tx overlays uncommitted writes on the committed rows.
type tx struct {
	s     *Store
	dirty map[uint64]model.Reservation
}

func (t *tx) ActiveOverlapping(ctx context.Context, spaceID uint64, iv booking.Interval) ([]model.Reservation, error) {
	if err := t.s.check(ctx); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return overlapping(t.s.rows, t.dirty, spaceID, iv), nil
}

func (t *tx) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	if err := t.s.check(ctx); err != nil {
		return model.Reservation{}, err
	}
	if r, ok := t.dirty[id]; ok {
		return r, nil
	}
	return t.s.Get(ctx, id)
}

func (t *tx) Insert(ctx context.Context, r *model.Reservation) error {
	if err := t.s.check(ctx); err != nil {
		return err
	}
	t.s.mu.Lock()
	t.s.nextID++
	r.ID = t.s.nextID
	t.s.mu.Unlock()
	t.dirty[r.ID] = *r
	return nil
}

func (t *tx) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, at time.Time) error {
	r, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Status = status
	r.UpdatedAt = at
	t.dirty[id] = r
	return nil
}

func overlapping(rows, dirty map[uint64]model.Reservation, spaceID uint64, iv booking.Interval) []model.Reservation {
	var out []model.Reservation
	match := func(r model.Reservation) {
		if r.SpaceID == spaceID && r.Status == model.StatusActive &&
			r.StartTime.Before(iv.End) && iv.Start.Before(r.EndTime) {
			out = append(out, r)
		}
	}
	for id, r := range rows {
		if _, shadowed := dirty[id]; shadowed {
			continue
		}
		match(r)
	}
	for _, r := range dirty {
		match(r)
	}
	return out
}
