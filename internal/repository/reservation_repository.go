package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

var _ booking.Store = (*ReservationRepo)(nil)

// ReservationRepo stores reservations in MySQL and implements
// booking.Store.  Atomic units serialize on the space's row in
// reservation_space_locks, so bookings of different spaces never wait on
// each other.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
	// attempts bounds the retries of an Atomic unit after a deadlock or
	// lock wait timeout.
	attempts int
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db, attempts: 3} }

// DB exposes the underlying handle for health checks.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = "id,user_id,space_id,start_time,end_time,status,total_price_cents,notes,created_at,updated_at"

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res   model.Reservation
		notes sql.NullString
	)
	err := row.Scan(&res.ID, &res.UserID, &res.SpaceID, &res.StartTime, &res.EndTime, &res.Status,
		&res.TotalPriceCents, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if notes.Valid {
		res.Notes = &notes.String
	}
	return res, nil
}

func queryReservations(ctx context.Context, q querier, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// The predicate is the half-open overlap test: an existing row blocks
// [start, end) when it starts before end and ends after start.
const overlapQuery = "SELECT " + reservationColumns + ` FROM reservations
	WHERE space_id = ? AND status = 'active' AND start_time < ? AND end_time > ?
	ORDER BY start_time, id`

func activeOverlapping(ctx context.Context, q querier, spaceID uint64, iv booking.Interval) ([]model.Reservation, error) {
	out, err := queryReservations(ctx, q, overlapQuery, spaceID, iv.End.UTC(), iv.Start.UTC())
	if err != nil {
		return nil, fmt.Errorf("overlapping reservations: %w", err)
	}
	return out, nil
}

func getReservation(ctx context.Context, q querier, id uint64, lock bool) (model.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	res, err := scanReservation(q.QueryRowContext(ctx, query, id))
	return res, notFound(err, "get reservation")
}

func (r *ReservationRepo) ActiveOverlapping(ctx context.Context, spaceID uint64, iv booking.Interval) ([]model.Reservation, error) {
	return activeOverlapping(ctx, r.db, spaceID, iv)
}

func (r *ReservationRepo) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	return getReservation(ctx, r.db, id, false)
}

func (r *ReservationRepo) ActiveEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 500
	}
	out, err := queryReservations(ctx, r.db, "SELECT "+reservationColumns+` FROM reservations
		WHERE status = 'active' AND end_time < ? ORDER BY end_time, id LIMIT ?`, t.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("elapsed reservations: %w", err)
	}
	return out, nil
}

// Atomic runs fn in a READ COMMITTED transaction holding the space's lock
// row.  Deadlocks and lock wait timeouts restart the unit.
func (r *ReservationRepo) Atomic(ctx context.Context, spaceID uint64, fn func(ctx context.Context, tx booking.Tx) error) error {
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		err = r.atomicOnce(ctx, spaceID, fn)
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (r *ReservationRepo) atomicOnce(ctx context.Context, spaceID uint64, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockSpace(ctx, tx, spaceID); err != nil {
		return err
	}
	if err := fn(ctx, &reservationTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// lockSpace takes the exclusive lock on the space's row, creating the row
// on first use.
func lockSpace(ctx context.Context, tx *sql.Tx, spaceID uint64) error {
	const sel = "SELECT space_id FROM reservation_space_locks WHERE space_id = ? FOR UPDATE"
	var id uint64
	err := tx.QueryRowContext(ctx, sel, spaceID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock space %d: %w", spaceID, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO reservation_space_locks (space_id) VALUES (?)", spaceID); err != nil {
		return fmt.Errorf("create space lock %d: %w", spaceID, err)
	}
	if err := tx.QueryRowContext(ctx, sel, spaceID).Scan(&id); err != nil {
		return fmt.Errorf("lock space %d: %w", spaceID, err)
	}
	return nil
}

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func retryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}

// reservationTx is the booking.Tx view of an open transaction.
type reservationTx struct{ tx *sql.Tx }

func (t *reservationTx) ActiveOverlapping(ctx context.Context, spaceID uint64, iv booking.Interval) ([]model.Reservation, error) {
	return activeOverlapping(ctx, t.tx, spaceID, iv)
}

func (t *reservationTx) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	return getReservation(ctx, t.tx, id, true)
}

func (t *reservationTx) Insert(ctx context.Context, res *model.Reservation) error {
	result, err := t.tx.ExecContext(ctx, `INSERT INTO reservations
		(user_id, space_id, start_time, end_time, status, total_price_cents, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		res.UserID, res.SpaceID, res.StartTime.UTC(), res.EndTime.UTC(), res.Status,
		res.TotalPriceCents, res.Notes, res.CreatedAt.UTC(), res.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (t *reservationTx) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, at time.Time) error {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?", status, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update reservation %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's reservations, newest start first.  A zero
// status matches every status.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, status model.ReservationStatus, limit int) ([]model.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE user_id = ?"
	args := []any{userID}
	if status != 0 {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY start_time DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	out, err := queryReservations(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// CountUpcoming counts the user's active reservations starting after now.
func (r *ReservationRepo) CountUpcoming(ctx context.Context, userID uint64, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE user_id = ? AND status = 'active' AND start_time > ?",
		userID, now.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count upcoming: %w", err)
	}
	return n, nil
}

// CountByStatus tallies the user's reservations per status.
func (r *ReservationRepo) CountByStatus(ctx context.Context, userID uint64) (map[model.ReservationStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM reservations WHERE user_id = ? GROUP BY status", userID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	out := make(map[model.ReservationStatus]int)
	for rows.Next() {
		var (
			s model.ReservationStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
