package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleApprover   = "approver"
	RoleAccounting = "accounting"
	RoleEmployee   = "employee"
)

// ValidRole reports whether role is one the portal knows about.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleApprover, RoleAccounting, RoleEmployee:
		return true
	}
	return false
}

// User is the actor submitting or reviewing requests.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID    string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"employee_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"type:varchar(255);not null" json:"-"`
	Role          string         `gorm:"type:varchar(30);not null" json:"role"`
	Branch        string         `gorm:"type:varchar(100)" json:"branch"`
	Department    string         `gorm:"type:varchar(100)" json:"department"`
	SignatureRef  string         `gorm:"type:varchar(255)" json:"signature_ref"`
	ProfileImgRef string         `gorm:"type:varchar(255)" json:"profile_img_ref"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserAccess lists which forms a user may open, and with which role.
type UserAccess struct {
	ID          uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID                    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Role        string                       `gorm:"type:varchar(30);not null" json:"role"`
	AccessForms datatypes.JSONType[[]string] `gorm:"type:jsonb" json:"access_forms"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func (UserAccess) TableName() string {
	return "user_access"
}

// Allows reports whether the access entry opens formKey.
func (a UserAccess) Allows(formKey string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, f := range a.AccessForms.Data() {
		if f == formKey || f == "*" {
			return true
		}
	}
	return false
}
