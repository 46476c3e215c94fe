package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractReview is the single current AI risk assessment for a contract.
// Re-analysis overwrites the scalar fields in place; it never creates a
// second review row for the same contract.
type ContractReview struct {
	ID              string          `json:"id"               gorm:"type:char(36);primaryKey"`
	ContractID      string          `json:"contract_id"      gorm:"uniqueIndex;not null"`
	RiskLevel       string          `json:"risk_level"` // high, medium, low
	OverallScore    int             `json:"overall_score"`
	Summary         string          `json:"summary"          gorm:"type:text"`
	Checklist       []ChecklistItem `json:"checklist"        gorm:"serializer:json"`
	AIModel         string          `json:"ai_model"`
	DurationSeconds float64         `json:"duration_seconds"`
	IsMock          bool            `json:"is_mock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (ContractReview) TableName() string { return "contract_reviews" }

func (r *ContractReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ChecklistItem is one entry of a review's compliance checklist.
type ChecklistItem struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
	Note    string `json:"note,omitempty"`
}

// RiskItem is one discrete finding within a review. The whole set is
// replaced on re-analysis; item identity does not survive across runs.
type RiskItem struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ReviewID      string    `json:"review_id"      gorm:"index;not null"`
	RiskType      string    `json:"risk_type"`
	RiskLevel     string    `json:"risk_level"`
	SectionTitle  string    `json:"section_title"`
	OriginalText  string    `json:"original_text"  gorm:"type:text"`
	SuggestedText string    `json:"suggested_text" gorm:"type:text"`
	Reason        string    `json:"reason"         gorm:"type:text"`
	LegalBasis    string    `json:"legal_basis"`
	CreatedAt     time.Time `json:"created_at"`
}

func (RiskItem) TableName() string { return "risk_items" }

func (i *RiskItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Risk levels shared by reviews and risk items.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)
