package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type CatalogRepository interface {
	FindByMaterial(ctx context.Context, materialName string) (*model.CatalogItem, error)
	Upsert(ctx context.Context, item *model.CatalogItem) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindByMaterial(ctx context.Context, materialName string) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := GetDB(ctx, r.db).First(&item, "material_name = ?", materialName).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) Upsert(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}
