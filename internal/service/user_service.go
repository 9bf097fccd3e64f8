package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type CreateUserRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Role          string `json:"role" binding:"required"`
	Branch        string `json:"branch"`
	Department    string `json:"department"`
	SignatureRef  string `json:"signature_ref"`
	ProfileImgRef string `json:"profile_img_ref"`
}

type UserAccessRequest struct {
	Role        string   `json:"role" binding:"required"`
	AccessForms []string `json:"access_forms"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	EmployeeID    string    `json:"employee_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Branch        string    `json:"branch"`
	Department    string    `json:"department"`
	SignatureRef  string    `json:"signature_ref"`
	ProfileImgRef string    `json:"profile_img_ref"`
	CreatedAt     string    `json:"created_at"`
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	DeleteUser(ctx context.Context, id string) error

	GetAccess(ctx context.Context, userID string) (*model.UserAccess, error)
	SetAccess(ctx context.Context, userID string, req UserAccessRequest) (*model.UserAccess, error)
}

type userService struct {
	repo       repository.UserRepository
	bcryptCost int
	log        *zap.Logger
}

func NewUserService(repo repository.UserRepository, bcryptCost int, log *zap.Logger) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, bcryptCost: bcryptCost, log: log}
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		EmployeeID:    user.EmployeeID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		Branch:        user.Branch,
		Department:    user.Department,
		SignatureRef:  user.SignatureRef,
		ProfileImgRef: user.ProfileImgRef,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, validationError("invalid role %q", req.Role)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, conflictError(nil, "email already exists")
	}
	if _, err := s.repo.GetByEmployeeID(ctx, req.EmployeeID); err == nil {
		return nil, conflictError(nil, "employee id already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, internalError("failed to hash password", err)
	}

	user := &model.User{
		EmployeeID:    strings.TrimSpace(req.EmployeeID),
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		Password:      string(hashed),
		Role:          req.Role,
		Branch:        req.Branch,
		Department:    req.Department,
		SignatureRef:  req.SignatureRef,
		ProfileImgRef: req.ProfileImgRef,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictError(err, "user already exists")
		}
		s.log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, internalError("failed to create user", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("user not found")
	}
	if err != nil {
		return nil, internalError(MsgLoadFailed, err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		s.log.Error("failed to list users", zap.Error(err))
		return nil, 0, internalError(MsgLoadFailed, err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError("user not found")
	}
	if err != nil {
		return internalError("failed to delete user", err)
	}
	return nil
}

// GetAccess returns the stored access entry. A user without one gets an entry
// derived from the user's role with no forms.
func (s *userService) GetAccess(ctx context.Context, userID string) (*model.UserAccess, error) {
	access, err := s.repo.GetAccess(ctx, userID)
	if err == nil {
		return access, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(MsgLoadFailed, err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("user not found")
	}
	if err != nil {
		return nil, internalError(MsgLoadFailed, err)
	}
	return &model.UserAccess{
		UserID:      user.ID,
		Role:        user.Role,
		AccessForms: datatypes.NewJSONType([]string{}),
	}, nil
}

func (s *userService) SetAccess(ctx context.Context, userID string, req UserAccessRequest) (*model.UserAccess, error) {
	if !model.ValidRole(req.Role) {
		return nil, validationError("invalid role %q", req.Role)
	}
	forms := make([]string, 0, len(req.AccessForms))
	for _, key := range req.AccessForms {
		if key != "*" {
			if _, ok := model.LookupForm(key); !ok {
				return nil, validationError("unknown form %q", key)
			}
		}
		forms = append(forms, key)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("user not found")
	}
	if err != nil {
		return nil, internalError(MsgLoadFailed, err)
	}

	access := &model.UserAccess{
		UserID:      user.ID,
		Role:        req.Role,
		AccessForms: datatypes.NewJSONType(forms),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.SaveAccess(ctx, access); err != nil {
		s.log.Error("failed to save user access", zap.String("user_id", userID), zap.Error(err))
		return nil, internalError("failed to save access", err)
	}
	return access, nil
}
