package repository

import (
	"context"

	"formsportal/internal/model"

	"gorm.io/gorm"
)

// ReferenceRepository manages the branch and department lookup lists.
type ReferenceRepository interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateBranch(ctx context.Context, b *model.Branch) error
	DeleteBranch(ctx context.Context, id uint) error
	ListDepartments(ctx context.Context) ([]model.Department, error)
	CreateDepartment(ctx context.Context, d *model.Department) error
	DeleteDepartment(ctx context.Context, id uint) error
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ListBranches(ctx context.Context) ([]model.Branch, error) {
	branches := []model.Branch{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&branches).Error
	return branches, err
}

func (r *referenceRepository) CreateBranch(ctx context.Context, b *model.Branch) error {
	return translateError(r.db.WithContext(ctx).Create(b).Error)
}

func (r *referenceRepository) DeleteBranch(ctx context.Context, id uint) error {
	return deleteByID(r.db.WithContext(ctx), &model.Branch{}, id)
}

func (r *referenceRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	departments := []model.Department{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *referenceRepository) CreateDepartment(ctx context.Context, d *model.Department) error {
	return translateError(r.db.WithContext(ctx).Create(d).Error)
}

func (r *referenceRepository) DeleteDepartment(ctx context.Context, id uint) error {
	return deleteByID(r.db.WithContext(ctx), &model.Department{}, id)
}

func deleteByID(db *gorm.DB, value interface{}, id uint) error {
	res := db.Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
