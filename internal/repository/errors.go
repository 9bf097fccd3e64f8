// Package repository holds the gorm-backed data access for the portal.
//
// The sentinel errors below let services tell failure causes apart without
// inspecting driver errors. translateError maps gorm and pgx errors onto them.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write hits a unique constraint, such as two
// requests issued the same reference code.
var ErrConflict = errors.New("conflict")

// ErrStaleState is returned when a guarded update matched no row because the
// row's status moved on since it was read.
var ErrStaleState = errors.New("stale state")

const pgUniqueViolation = "23505"

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
