package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Admin actions written to the audit trail. Request status changes have
// their own log in StatusLog.
const (
	ActionCreateUser       = "CREATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionSetAccess        = "SET_USER_ACCESS"
	ActionCreateBranch     = "CREATE_BRANCH"
	ActionDeleteBranch     = "DELETE_BRANCH"
	ActionCreateDepartment = "CREATE_DEPARTMENT"
	ActionDeleteDepartment = "DELETE_DEPARTMENT"
)

// AuditLog tracks who changed users, access and lookups, and when.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    string         `gorm:"type:varchar(64);index" json:"actor_id"`
	ActorName  string         `gorm:"type:varchar(255)" json:"actor_name"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(64);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
