package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	FindPrice(ctx context.Context, vendorID uuid.UUID, materialName string) (*model.VendorPrice, error)
	UpsertPrice(ctx context.Context, price *model.VendorPrice) error
	List(ctx context.Context, page, limit int) ([]model.Vendor, int64, error)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return GetDB(ctx, r.db).Create(vendor).Error
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) FindPrice(ctx context.Context, vendorID uuid.UUID, materialName string) (*model.VendorPrice, error) {
	var price model.VendorPrice
	if err := GetDB(ctx, r.db).
		First(&price, "vendor_id = ? AND material_name = ?", vendorID, materialName).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *vendorRepository) UpsertPrice(ctx context.Context, price *model.VendorPrice) error {
	return GetDB(ctx, r.db).Save(price).Error
}

func (r *vendorRepository) List(ctx context.Context, page, limit int) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Vendor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Prices").Order("name ASC").Offset(offset).Limit(limit).Find(&vendors).Error; err != nil {
		return nil, 0, err
	}

	return vendors, total, nil
}
