package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InspectionRepository interface {
	Create(ctx context.Context, insp *model.VendorDeliveryInspection) error
	CreateLine(ctx context.Context, line *model.InspectionMaterial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error)
	ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorDeliveryInspection, error)
}

type inspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) InspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) Create(ctx context.Context, insp *model.VendorDeliveryInspection) error {
	return GetDB(ctx, r.db).Create(insp).Error
}

func (r *inspectionRepository) CreateLine(ctx context.Context, line *model.InspectionMaterial) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *inspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error) {
	var insp model.VendorDeliveryInspection
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Vendor").
		First(&insp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &insp, nil
}

func (r *inspectionRepository) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorDeliveryInspection, error) {
	var list []model.VendorDeliveryInspection
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Vendor").
		Where("change_request_id = ?", crID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
