package service

import (
	"context"
	"errors"
	"strings"

	"formsportal/internal/model"
	"formsportal/internal/repository"
)

type CreateBranchRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

// ReferenceService manages the branch and department lookups.
type ReferenceService interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error)
	DeleteBranch(ctx context.Context, id uint) error
	ListDepartments(ctx context.Context) ([]model.Department, error)
	CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*model.Department, error)
	DeleteDepartment(ctx context.Context, id uint) error
}

type referenceService struct {
	repo repository.ReferenceRepository
}

func NewReferenceService(repo repository.ReferenceRepository) ReferenceService {
	return &referenceService{repo: repo}
}

func (s *referenceService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, internalError(MsgLoadFailed, err)
	}
	return branches, nil
}

func (s *referenceService) CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error) {
	b := &model.Branch{Code: strings.ToUpper(strings.TrimSpace(req.Code)), Name: strings.TrimSpace(req.Name)}
	if b.Code == "" || b.Name == "" {
		return nil, validationError("code and name are required")
	}
	if err := s.repo.CreateBranch(ctx, b); err != nil {
		return nil, writeError(err, "branch already exists")
	}
	return b, nil
}

func (s *referenceService) DeleteBranch(ctx context.Context, id uint) error {
	return deleteError(s.repo.DeleteBranch(ctx, id), "branch")
}

func (s *referenceService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, internalError(MsgLoadFailed, err)
	}
	return departments, nil
}

func (s *referenceService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*model.Department, error) {
	d := &model.Department{Name: strings.TrimSpace(req.Name)}
	if d.Name == "" {
		return nil, validationError("name is required")
	}
	if err := s.repo.CreateDepartment(ctx, d); err != nil {
		return nil, writeError(err, "department already exists")
	}
	return d, nil
}

func (s *referenceService) DeleteDepartment(ctx context.Context, id uint) error {
	return deleteError(s.repo.DeleteDepartment(ctx, id), "department")
}

func writeError(err error, conflictMsg string) error {
	if errors.Is(err, repository.ErrConflict) {
		return conflictError(err, "%s", conflictMsg)
	}
	return internalError("failed to save", err)
}

func deleteError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError("%s not found", what)
	default:
		return internalError("failed to delete "+what, err)
	}
}
