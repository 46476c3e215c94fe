package service

import (
	"context"
	"log/slog"

	"github.com/okumurakoki/contractguard-sub001/model"
	"gorm.io/gorm"
)

// Auditor appends who-did-what-to-what entries for compliance. Writes are
// best-effort: a failure is logged and swallowed, never surfaced to the
// operation that triggered it.
type Auditor struct {
	db *gorm.DB
}

func NewAuditor(db *gorm.DB) *Auditor {
	return &Auditor{db: db}
}

// Record appends one audit entry. Never returns an error.
func (a *Auditor) Record(ctx context.Context, orgID, username, action, resourceType, resourceID, detail string) {
	if a == nil || a.db == nil {
		return
	}

	entry := model.AuditLog{
		OrganizationID: orgID,
		Username:       username,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Detail:         detail,
	}

	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Warn("audit write failed",
			"error", err,
			"action", action,
			"resource_id", resourceID,
		)
	}
}

// Recent returns the latest entries for an organization, newest first.
func (a *Auditor) Recent(ctx context.Context, orgID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []model.AuditLog
	err := a.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
