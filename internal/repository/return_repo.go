package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnRepository interface {
	Create(ctx context.Context, req *model.VendorReturnRequest) error
	CreateMaterial(ctx context.Context, mat *model.ReturnRequestMaterial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error)
	ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorReturnRequest, error)
	Update(ctx context.Context, req *model.VendorReturnRequest) error
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, req *model.VendorReturnRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *returnRepository) CreateMaterial(ctx context.Context, mat *model.ReturnRequestMaterial) error {
	return GetDB(ctx, r.db).Create(mat).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error) {
	var req model.VendorReturnRequest
	if err := GetDB(ctx, r.db).
		Preload("Materials").
		Preload("Vendor").
		Preload("NewVendor").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate locks the return-request row so TD decisions and
// resolution transitions serialize per request.
func (r *returnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error) {
	var req model.VendorReturnRequest
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *returnRepository) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorReturnRequest, error) {
	var list []model.VendorReturnRequest
	if err := GetDB(ctx, r.db).
		Preload("Materials").
		Preload("Vendor").
		Where("change_request_id = ?", crID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *returnRepository) Update(ctx context.Context, req *model.VendorReturnRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
