package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okumurakoki/contractguard-sub001/model"
	"gorm.io/gorm"
)

// VersionStore maintains the append-only ledger of contract content
// snapshots. Version numbers per contract are strictly increasing starting
// at 1; rows are never mutated or deleted.
type VersionStore struct {
	db *gorm.DB
}

func NewVersionStore(db *gorm.DB) *VersionStore {
	return &VersionStore{db: db}
}

// RecordEdit appends a new version carrying newContent and moves the
// contract's CurrentVersion pointer, both inside one transaction. When
// newContent equals the contract's current EditedContent the call is a
// no-op and returns the unchanged version number; no version is consumed.
//
// Two writers that both read the same CurrentVersion race on the
// (contract_id, version_number) unique index: the loser's insert fails
// with a duplicate-key error and is retried once against a fresh read.
func (s *VersionStore) RecordEdit(ctx context.Context, orgID, contractID, newContent, editor, summary string) (int, error) {
	version, err := s.appendVersion(ctx, orgID, contractID, newContent, editor, summary, true)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, err
	}

	// Lost the race; retry with a freshly read CurrentVersion.
	version, err = s.appendVersion(ctx, orgID, contractID, newContent, editor, summary, true)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrConcurrentVersionConflict
		}
		return 0, err
	}
	return version, nil
}

// Restore appends a new version whose content mirrors a past version.
// History stays append-only: restoring to version 3 when current is 7
// yields version 8, and version 3 itself is untouched.
func (s *VersionStore) Restore(ctx context.Context, orgID, contractID, versionID, restorer string) (int, error) {
	var target model.ContractVersion
	err := s.db.WithContext(ctx).
		Joins("JOIN contracts ON contracts.id = contract_versions.contract_id").
		Where("contract_versions.id = ? AND contract_versions.contract_id = ? AND contracts.organization_id = ?",
			versionID, contractID, orgID).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load version: %w", err)
	}

	summary := fmt.Sprintf("Restored from version %d", target.VersionNumber)

	version, err := s.appendVersion(ctx, orgID, contractID, target.Content, restorer, summary, false)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrConcurrentVersionConflict
		}
		return 0, err
	}
	return version, nil
}

// ListVersions returns a contract's versions newest-first. VersionNumber is
// the sole ordering key; timestamps are informational only.
func (s *VersionStore) ListVersions(ctx context.Context, orgID, contractID string) ([]model.ContractVersion, error) {
	if _, err := s.lookupContract(ctx, s.db, orgID, contractID); err != nil {
		return nil, err
	}

	var versions []model.ContractVersion
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// appendVersion runs the atomic insert-version + move-pointer sequence.
// skipIfUnchanged suppresses the write when content matches the contract's
// EditedContent (edits no-op; restores always append).
func (s *VersionStore) appendVersion(ctx context.Context, orgID, contractID, content, author, summary string, skipIfUnchanged bool) (int, error) {
	var versionNumber int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.lookupContract(ctx, tx, orgID, contractID)
		if err != nil {
			return err
		}

		if skipIfUnchanged && contract.EditedContent != nil && *contract.EditedContent == content {
			versionNumber = contract.CurrentVersion
			return nil
		}

		versionNumber = contract.CurrentVersion + 1

		version := model.ContractVersion{
			ContractID:    contractID,
			VersionNumber: versionNumber,
			Content:       content,
			CreatedBy:     author,
			ChangeSummary: summary,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		return tx.Model(&model.Contract{}).
			Where("id = ?", contractID).
			Updates(map[string]interface{}{
				"edited_content":  content,
				"current_version": versionNumber,
			}).Error
	})
	if err != nil {
		return 0, err
	}

	return versionNumber, nil
}

func (s *VersionStore) lookupContract(ctx context.Context, tx *gorm.DB, orgID, contractID string) (*model.Contract, error) {
	var contract model.Contract
	err := tx.WithContext(ctx).
		Where("id = ? AND organization_id = ?", contractID, orgID).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	return &contract, nil
}
