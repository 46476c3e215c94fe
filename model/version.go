package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractVersion is an immutable snapshot of a contract's editable content.
// The composite unique index on (contract_id, version_number) is what forces
// concurrent writers to serialize: the second writer to claim a number fails
// with a duplicate-key error instead of silently overwriting.
type ContractVersion struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ContractID    string    `json:"contract_id"    gorm:"uniqueIndex:idx_contract_version;not null"`
	VersionNumber int       `json:"version_number" gorm:"uniqueIndex:idx_contract_version;not null"`
	Content       string    `json:"content"        gorm:"type:text"`
	CreatedBy     string    `json:"created_by"`
	ChangeSummary string    `json:"change_summary"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ContractVersion) TableName() string { return "contract_versions" }

func (v *ContractVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
