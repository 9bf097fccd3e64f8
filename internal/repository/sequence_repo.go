package repository

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"
)

var errLockOutsideTx = errors.New("sequence lock requires an open transaction")

// SequenceRepository reads the code space of a form table.
type SequenceRepository interface {
	// Lock serialises code issuance for prefix until the surrounding
	// transaction ends.
	Lock(ctx context.Context, prefix string) error
	// HighestCode returns the highest code in table made of prefix and a
	// numeric suffix, or "" when there is none. Codes with any other suffix
	// are never returned.
	HighestCode(ctx context.Context, table, prefix string) (string, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Lock(ctx context.Context, prefix string) error {
	if !InTx(ctx) {
		return errLockOutsideTx
	}
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

// CodePattern matches prefix followed by digits only. The same expression
// works in Go and as a Postgres ~ pattern.
func CodePattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"
}

func (r *sequenceRepository) HighestCode(ctx context.Context, table, prefix string) (string, error) {
	var codes []string
	// Longest first so that 1000 sorts above 999 once a sequence outgrows its padding.
	err := GetDB(ctx, r.db).Table(table).
		Where("form_code LIKE ?", prefix+"%").
		Where("form_code ~ ?", CodePattern(prefix)).
		Order("LENGTH(form_code) DESC, form_code DESC").
		Limit(1).
		Pluck("form_code", &codes).Error
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}
