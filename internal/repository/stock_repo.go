package repository

import (
	"context"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	FindByMaterial(ctx context.Context, materialName string) (*model.StockItem, error)
	FindByMaterialForUpdate(ctx context.Context, materialName string) (*model.StockItem, error)
	Reserve(ctx context.Context, item *model.StockItem, qty decimal.Decimal) error
	Upsert(ctx context.Context, item *model.StockItem) error
	List(ctx context.Context, page, limit int) ([]model.StockItem, int64, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) FindByMaterial(ctx context.Context, materialName string) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).First(&item, "material_name = ?", materialName).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) FindByMaterialForUpdate(ctx context.Context, materialName string) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "material_name = ?", materialName).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Reserve moves qty from available to reserved. Caller must hold the
// row lock via FindByMaterialForUpdate.
func (r *stockRepository) Reserve(ctx context.Context, item *model.StockItem, qty decimal.Decimal) error {
	item.AvailableQty = item.AvailableQty.Sub(qty)
	item.ReservedQty = item.ReservedQty.Add(qty)
	return GetDB(ctx, r.db).Model(item).Updates(map[string]interface{}{
		"available_qty": item.AvailableQty,
		"reserved_qty":  item.ReservedQty,
	}).Error
}

func (r *stockRepository) Upsert(ctx context.Context, item *model.StockItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *stockRepository) List(ctx context.Context, page, limit int) ([]model.StockItem, int64, error) {
	var items []model.StockItem
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.StockItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("material_name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
