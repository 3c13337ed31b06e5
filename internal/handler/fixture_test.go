package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking/memstore"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/handler"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/repository"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/router"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/utils"
)

const secret = "test-secret"

var (
	now = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

	_ handler.SpaceCatalog       = (*memstore.Spaces)(nil)
	_ handler.ReservationQueries = (*memstore.Store)(nil)
	_ handler.UserStore          = (*memUsers)(nil)
	_ handler.TokenStore         = (*memTokens)(nil)
	_ queue.EventPublisher       = (*recorder)(nil)
)

func at(day, h, m int) time.Time {
	return time.Date(2030, 3, day, h, m, 0, 0, time.UTC)
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type invalidations struct {
	mu  sync.Mutex
	ids []uint64
}

func (i *invalidations) Invalidate(_ context.Context, id uint64) error {
	i.mu.Lock()
	i.ids = append(i.ids, id)
	i.mu.Unlock()
	return nil
}

type app struct {
	e        *echo.Echo
	store    *memstore.Store
	spaces   *memstore.Spaces
	users    *memUsers
	tokens   *memTokens
	events   *recorder
	cache    *invalidations
	purges   int
	handlers router.Handlers
}

func newApp(t *testing.T) *app {
	t.Helper()
	clock := booking.ClockFunc(func() time.Time { return now })
	a := &app{
		store: memstore.New(),
		spaces: memstore.NewSpaces(
			model.Space{ID: 1, Name: "Sala Andes", Capacity: 10, Amenities: []string{"projector", "whiteboard"}, PricePerHourCents: 2500, IsActive: true},
			model.Space{ID: 2, Name: "Sala Pacifico", Capacity: 4, Amenities: []string{"whiteboard"}, PricePerHourCents: 1000, IsActive: true},
			model.Space{ID: 3, Name: "Closed room", Capacity: 20, Amenities: []string{}, PricePerHourCents: 1000, IsActive: false},
		),
		users:  newMemUsers(),
		tokens: newMemTokens(),
		events: &recorder{},
		cache:  &invalidations{},
	}
	engine := booking.NewEngine(a.store, a.spaces, clock)
	cfg := config.Config{
		Env: "test", Service: "all", JWTSecret: secret,
		AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
	}

	spaces := handler.NewSpacesHandler(a.spaces, a.spaces, engine, nil)
	spaces.Clock = clock
	spaces.Cache = a.cache
	spaces.PurgeListings = func(context.Context) error { a.purges++; return nil }

	reservations := handler.NewReservationsHandler(engine, a.store, a.spaces, a.events, nil)
	reservations.Clock = clock

	a.handlers = router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, a.users, a.tokens, nil),
		Users:        handler.NewUsersHandler(a.users, a.tokens, a.store, nil),
		Spaces:       spaces,
		Reservations: reservations,
	}
	a.e = echo.New()
	router.RegisterRoutes(a.e, cfg, a.handlers, router.Options{})
	return a
}

func token(t *testing.T, userID uint64, admin bool) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, "user@example.com", admin, 15)
	require.NoError(t, err)
	return tok.Token
}

type response struct {
	Code int
	Body []byte
}

func (r response) JSON(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &m), string(r.Body))
	return m
}

func (r response) List(t *testing.T) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &l), string(r.Body))
	return l
}

func (a *app) do(t *testing.T, method, path, bearer string, body any) response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		var bs []byte
		switch b := body.(type) {
		case string:
			bs = []byte(b)
		default:
			var err error
			bs, err = json.Marshal(b)
			require.NoError(t, err)
		}
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return response{Code: rec.Code, Body: rec.Body.Bytes()}
}

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
}

func newMemUsers() *memUsers { return &memUsers{byID: make(map[uint64]model.User)} }

func (m *memUsers) Create(_ context.Context, email, name, password string, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.byID {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	m.nextID++
	u := model.User{ID: m.nextID, Email: email, Name: name, PasswordHash: hash, IsActive: true, CreatedAt: now, UpdatedAt: now}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, name, email *string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.IsActive {
		return model.User{}, model.ErrNotFound
	}
	if email != nil {
		for _, other := range m.byID {
			if other.ID != id && other.Email == *email {
				return model.User{}, repository.ErrEmailExists
			}
		}
		u.Email = *email
	}
	if name != nil {
		u.Name = *name
	}
	m.byID[id] = u
	return u, nil
}

func (m *memUsers) Deactivate(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.IsActive {
		return model.ErrNotFound
	}
	u.IsActive = false
	m.byID[id] = u
	return nil
}

type refreshRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// memTokens is an in-memory TokenStore.
type memTokens struct {
	mu   sync.Mutex
	rows map[string]*refreshRow
}

func newMemTokens() *memTokens { return &memTokens{rows: make(map[string]*refreshRow)} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = &refreshRow{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[hash]
	if !ok || r.revoked || time.Now().After(r.exp) {
		return 0, model.ErrNotFound
	}
	return r.userID, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[hash]; ok {
		r.revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

func (m *memTokens) active(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.userID == userID && !r.revoked {
			n++
		}
	}
	return n
}
