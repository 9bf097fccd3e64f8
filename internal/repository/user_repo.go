package repository

import (
	"context"

	"formsportal/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Delete(ctx context.Context, id string) error

	GetAccess(ctx context.Context, userID string) (*model.UserAccess, error)
	SaveAccess(ctx context.Context, access *model.UserAccess) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translateError(GetDB(ctx, r.db).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	return r.first(ctx, "employee_id = ?", employeeID)
}

func (r *userRepository) first(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, cond, arg).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetAccess(ctx context.Context, userID string) (*model.UserAccess, error) {
	var access model.UserAccess
	if err := GetDB(ctx, r.db).First(&access, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err)
	}
	return &access, nil
}

// SaveAccess upserts the access entry keyed by user_id.
func (r *userRepository) SaveAccess(ctx context.Context, access *model.UserAccess) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "access_forms", "updated_at"}),
	}).Create(access).Error
}
