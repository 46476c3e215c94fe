package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records who did what to which resource. Writes are best-effort;
// a failed append must never abort the operation that triggered it.
type AuditLog struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"index"`
	Username       string    `json:"username"`
	Action         string    `json:"action"          gorm:"index"`
	ResourceType   string    `json:"resource_type"`
	ResourceID     string    `json:"resource_id"     gorm:"index"`
	Detail         string    `json:"detail,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
