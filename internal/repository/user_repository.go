package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,name,password_hash,is_admin,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, email, name, password string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash) VALUES (?,?,?)",
		email, strings.TrimSpace(name), hash)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	return u, notFound(err, "get user by email")
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err, "get user")
}

// UpdateProfile changes name and/or email.  Nil arguments keep the stored
// value.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, strings.TrimSpace(*name))
	}
	if email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=? AND is_active=1", args...)
		if err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, fmt.Errorf("update user: %w", err)
		}
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft-deletes the account.  Reservations are kept.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=0 WHERE id=? AND is_active=1", id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("deactivate user %d: %w", id, model.ErrNotFound)
	}
	return nil
}
