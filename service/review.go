package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okumurakoki/contractguard-sub001/model"
	"gorm.io/gorm"
)

// ReviewStore persists analysis results: one review row per contract,
// replaced in place, with the risk-item set swapped wholesale.
type ReviewStore struct {
	db *gorm.DB
}

func NewReviewStore(db *gorm.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// SaveReview upserts the contract's single review row, replaces the full
// risk-item set (delete-all-then-insert-all, never an incremental diff),
// and flips the contract status to completed. Everything runs in one
// transaction so a concurrent reader never observes a partial item set.
func (s *ReviewStore) SaveReview(ctx context.Context, contractID string, result *AnalysisResult, aiModel string, durationSeconds float64, isMock bool) (*model.ContractReview, error) {
	var review model.ContractReview

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("contract_id = ?", contractID).First(&review).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load review: %w", err)
		}

		review.ContractID = contractID
		review.RiskLevel = result.RiskLevel
		review.OverallScore = result.OverallScore
		review.Summary = result.Summary
		review.Checklist = checklistFromResult(result.Checklist)
		review.AIModel = aiModel
		review.DurationSeconds = durationSeconds
		review.IsMock = isMock

		if err := tx.Save(&review).Error; err != nil {
			return fmt.Errorf("save review: %w", err)
		}

		// Full replacement: stale items from a prior analysis must not
		// survive, and item identity is not preserved across runs.
		if err := tx.Where("review_id = ?", review.ID).Delete(&model.RiskItem{}).Error; err != nil {
			return fmt.Errorf("clear risk items: %w", err)
		}

		items := riskItemsFromResult(review.ID, result.Risks)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert risk items: %w", err)
			}
		}

		return tx.Model(&model.Contract{}).
			Where("id = ?", contractID).
			Update("status", model.StatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// GetReview returns the contract's review with its risk items, checking
// organization ownership through the contract.
func (s *ReviewStore) GetReview(ctx context.Context, orgID, contractID string) (*model.ContractReview, []model.RiskItem, error) {
	var review model.ContractReview
	err := s.db.WithContext(ctx).
		Joins("JOIN contracts ON contracts.id = contract_reviews.contract_id").
		Where("contract_reviews.contract_id = ? AND contracts.organization_id = ?", contractID, orgID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load review: %w", err)
	}

	var items []model.RiskItem
	if err := s.db.WithContext(ctx).Where("review_id = ?", review.ID).Find(&items).Error; err != nil {
		return nil, nil, fmt.Errorf("load risk items: %w", err)
	}

	return &review, items, nil
}

func checklistFromResult(entries []ChecklistItemResult) []model.ChecklistItem {
	checklist := make([]model.ChecklistItem, len(entries))
	for i, entry := range entries {
		checklist[i] = model.ChecklistItem{
			Item:    entry.Item,
			Checked: entry.Checked,
			Note:    entry.Note,
		}
	}
	return checklist
}

func riskItemsFromResult(reviewID string, risks []RiskFinding) []model.RiskItem {
	items := make([]model.RiskItem, len(risks))
	for i, risk := range risks {
		items[i] = model.RiskItem{
			ReviewID:      reviewID,
			RiskType:      risk.RiskType,
			RiskLevel:     risk.RiskLevel,
			SectionTitle:  risk.SectionTitle,
			OriginalText:  risk.OriginalText,
			SuggestedText: risk.SuggestedText,
			Reason:        risk.Reason,
			LegalBasis:    risk.LegalBasis,
		}
	}
	return items
}
