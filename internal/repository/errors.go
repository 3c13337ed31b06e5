// Package repository holds the MySQL-backed stores.  Lookups that find no
// row return errors matching model.ErrNotFound so that handlers and the
// booking engine never depend on database/sql sentinels.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// ErrEmailExists is returned when a unique email constraint is violated.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows onto model.ErrNotFound and wraps other
// errors with what.
func notFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
