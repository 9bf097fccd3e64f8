package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StatusLog records who moved a request from one status to another, and with
// which fields. Written in the same transaction as the status change.
type StatusLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FormType   string         `gorm:"type:varchar(50);not null;index:idx_status_logs_request" json:"form_type"`
	RequestID  int64          `gorm:"not null;index:idx_status_logs_request" json:"request_id"`
	FormCode   string         `gorm:"type:varchar(40);not null;index" json:"form_code"`
	FromStatus string         `gorm:"type:varchar(30)" json:"from_status"`
	ToStatus   string         `gorm:"type:varchar(30);not null" json:"to_status"`
	ActorID    string         `gorm:"type:varchar(64)" json:"actor_id"`
	ActorRole  string         `gorm:"type:varchar(30)" json:"actor_role"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (StatusLog) TableName() string {
	return "request_status_logs"
}
