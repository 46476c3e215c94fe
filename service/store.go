package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okumurakoki/contractguard-sub001/model"
	"gorm.io/gorm"
)

// ContractStore is the organization-scoped datastore for contract records.
// Every lookup filters by organization; a contract owned by someone else is
// indistinguishable from a missing one.
type ContractStore struct {
	db *gorm.DB
}

func NewContractStore(db *gorm.DB) *ContractStore {
	return &ContractStore{db: db}
}

// Create inserts a new contract record.
func (s *ContractStore) Create(ctx context.Context, contract *model.Contract) error {
	if err := s.db.WithContext(ctx).Create(contract).Error; err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}

// Get returns one contract, scoped to the caller's organization.
func (s *ContractStore) Get(ctx context.Context, orgID, id string) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	return &contract, nil
}

// ListByOrganization returns an organization's contracts, newest first.
func (s *ContractStore) ListByOrganization(ctx context.Context, orgID string) ([]model.Contract, error) {
	var contracts []model.Contract
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return contracts, nil
}

// UpdateStatus sets a contract's status after an ownership check.
func (s *ContractStore) UpdateStatus(ctx context.Context, orgID, id, status string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a contract and its versions, review, and risk items.
// The blob itself is the caller's responsibility.
func (s *ContractStore) Delete(ctx context.Context, orgID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contract model.Contract
		err := tx.Where("id = ? AND organization_id = ?", id, orgID).First(&contract).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load contract: %w", err)
		}

		var review model.ContractReview
		err = tx.Where("contract_id = ?", id).First(&review).Error
		if err == nil {
			if err := tx.Where("review_id = ?", review.ID).Delete(&model.RiskItem{}).Error; err != nil {
				return fmt.Errorf("delete risk items: %w", err)
			}
			if err := tx.Delete(&review).Error; err != nil {
				return fmt.Errorf("delete review: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load review: %w", err)
		}

		if err := tx.Where("contract_id = ?", id).Delete(&model.ContractVersion{}).Error; err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}

		return tx.Delete(&contract).Error
	})
}
