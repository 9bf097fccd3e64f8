package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"
)

// CodeSequencer hands out year-scoped reference codes like PR-2025-000013.
type CodeSequencer interface {
	// Preview computes the next code without reserving it. Two calls with no
	// insert in between return the same code.
	Preview(ctx context.Context, form model.FormType) (string, error)
	// Issue computes the next code under a per-prefix lock held until the
	// surrounding transaction ends. ctx must carry a transaction.
	Issue(ctx context.Context, form model.FormType) (string, error)
}

type codeSequencer struct {
	repo repository.SequenceRepository
	now  func() time.Time
}

func NewCodeSequencer(repo repository.SequenceRepository, now func() time.Time) CodeSequencer {
	if now == nil {
		now = time.Now
	}
	return &codeSequencer{repo: repo, now: now}
}

func (s *codeSequencer) Preview(ctx context.Context, form model.FormType) (string, error) {
	return s.next(ctx, form, s.now().Year())
}

func (s *codeSequencer) Issue(ctx context.Context, form model.FormType) (string, error) {
	year := s.now().Year()
	if err := s.repo.Lock(ctx, form.CodePrefix(year)); err != nil {
		return "", err
	}
	return s.next(ctx, form, year)
}

func (s *codeSequencer) next(ctx context.Context, form model.FormType, year int) (string, error) {
	prefix := form.CodePrefix(year)
	highest, err := s.repo.HighestCode(ctx, form.HeaderTable, prefix)
	if err != nil {
		return "", err
	}
	return form.FormatCode(year, parseSequence(highest, prefix)+1), nil
}

// parseSequence extracts the numeric suffix of code. Missing or malformed
// suffixes count as 0.
func parseSequence(code, prefix string) int64 {
	if !strings.HasPrefix(code, prefix) {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(code, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
