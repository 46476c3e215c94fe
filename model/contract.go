package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contract represents an organization-owned legal document.
// FilePath always points at the original upload and is never touched by
// versioning of EditedContent.
type Contract struct {
	ID               string     `json:"id"                gorm:"type:char(36);primaryKey"`
	OrganizationID   string     `json:"organization_id"   gorm:"index;not null"`
	UploaderName     string     `json:"uploader_name"`
	FileName         string     `json:"file_name"         gorm:"not null"`
	FilePath         string     `json:"file_path"         gorm:"not null"`
	FileSize         int64      `json:"file_size"`
	FileType         string     `json:"file_type"`
	Title            string     `json:"title"`
	CounterpartyName string     `json:"counterparty_name,omitempty"`
	OurPosition      string     `json:"our_position"` // party_a, party_b, neutral
	Status           string     `json:"status"            gorm:"index;default:'analyzing'"`
	CurrentVersion   int        `json:"current_version"   gorm:"default:0"`
	EditedContent    *string    `json:"edited_content,omitempty" gorm:"type:text"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Tags             []string   `json:"tags,omitempty"    gorm:"serializer:json"`
	FolderID         *string    `json:"folder_id,omitempty" gorm:"index"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Contract status constants
const (
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusDraft     = "draft"
	StatusFailed    = "failed"
)

// Counterparty positions
const (
	PositionPartyA  = "party_a"
	PositionPartyB  = "party_b"
	PositionNeutral = "neutral"
)
