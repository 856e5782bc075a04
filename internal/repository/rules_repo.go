package repository

import (
	"context"
	"errors"

	"inventory-portal/internal/model"

	"gorm.io/gorm"
)

// RulesRepository exposes the global inventory rules and the approval
// policies. A missing rules row means defaults (negative stock forbidden).
type RulesRepository interface {
	AllowNegativeStock(ctx context.Context) (bool, error)
	ListPoliciesByType(ctx context.Context, entityType string) ([]model.ApprovalPolicy, error)
}

type rulesRepository struct {
	db *gorm.DB
}

func NewRulesRepository(db *gorm.DB) RulesRepository {
	return &rulesRepository{db: db}
}

func (r *rulesRepository) AllowNegativeStock(ctx context.Context) (bool, error) {
	var rule model.InventoryRule
	err := GetDB(ctx, r.db).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rule.AllowNegativeStock, nil
}

func (r *rulesRepository) ListPoliciesByType(ctx context.Context, entityType string) ([]model.ApprovalPolicy, error) {
	var policies []model.ApprovalPolicy
	if err := GetDB(ctx, r.db).
		Where("entity_type = ? AND enabled = ?", entityType, true).
		Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}
