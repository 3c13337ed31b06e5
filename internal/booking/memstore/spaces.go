package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

var _ booking.SpaceDirectory = (*Spaces)(nil)

// Spaces is an in-memory space catalog.
type Spaces struct {
	mu     sync.RWMutex
	byID   map[uint64]model.Space
	nextID uint64
	fault  error
}

func NewSpaces(seed ...model.Space) *Spaces {
	s := &Spaces{byID: make(map[uint64]model.Space)}
	for _, sp := range seed {
		sp := sp
		if sp.ID == 0 {
			_ = s.Create(context.Background(), &sp)
			continue
		}
		if sp.ID > s.nextID {
			s.nextID = sp.ID
		}
		s.byID[sp.ID] = sp
	}
	return s
}

// SetFault makes every subsequent call fail with err.
func (s *Spaces) SetFault(err error) {
	s.mu.Lock()
	s.fault = err
	s.mu.Unlock()
}

func (s *Spaces) GetSpace(ctx context.Context, id uint64) (model.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fault != nil {
		return model.Space{}, s.fault
	}
	sp, ok := s.byID[id]
	if !ok {
		return model.Space{}, model.ErrNotFound
	}
	return sp, nil
}

func (s *Spaces) List(ctx context.Context, f model.SpaceFilter) ([]model.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fault != nil {
		return nil, s.fault
	}
	out := make([]model.Space, 0, len(s.byID))
	for _, sp := range s.byID {
		if f.Match(sp) {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Spaces) Create(ctx context.Context, sp *model.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault != nil {
		return s.fault
	}
	now := time.Now().UTC()
	s.nextID++
	sp.ID = s.nextID
	sp.CreatedAt, sp.UpdatedAt = now, now
	s.byID[sp.ID] = *sp
	return nil
}

func (s *Spaces) Update(ctx context.Context, id uint64, u model.SpaceUpdate) (model.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault != nil {
		return model.Space{}, s.fault
	}
	sp, ok := s.byID[id]
	if !ok {
		return model.Space{}, model.ErrNotFound
	}
	u.Apply(&sp)
	sp.UpdatedAt = time.Now().UTC()
	s.byID[id] = sp
	return sp, nil
}
