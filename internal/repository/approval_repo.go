package repository

import (
	"context"
	"time"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	FindPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error)
	// TransitionFromPending conditionally moves the request out of PENDING
	// and reports the number of rows affected. Zero means someone else won
	// the race; the caller must not execute side effects in that case.
	TransitionFromPending(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, comment string) (int64, error)
	List(ctx context.Context, status string, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) FindPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := GetDB(ctx, r.db).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, model.ApprovalPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, comment string) (int64, error) {
	now := time.Now()
	result := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewed_by":    reviewerID,
			"reviewed_at":    now,
			"review_comment": comment,
			"updated_at":     now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *approvalRepository) List(ctx context.Context, status string, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var requests []model.ApprovalRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ApprovalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
