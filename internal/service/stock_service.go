package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UpsertStockRequest struct {
	MaterialName string `json:"material_name" binding:"required"`
	AvailableQty string `json:"available_qty" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
}

type UpsertCatalogRequest struct {
	MaterialName string `json:"material_name" binding:"required"`
	UnitPrice    string `json:"unit_price" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
}

// StockService maintains the internal store's inventory and the priced
// material catalog.
type StockService interface {
	UpsertStock(ctx context.Context, req UpsertStockRequest) (*model.StockItem, error)
	GetStock(ctx context.Context, materialName string) (*model.StockItem, error)
	ListStock(ctx context.Context, page, limit int) ([]model.StockItem, int64, error)
	UpsertCatalogItem(ctx context.Context, req UpsertCatalogRequest) (*model.CatalogItem, error)
}

type stockService struct {
	stockRepo   repository.StockRepository
	catalogRepo repository.CatalogRepository
	txManager   repository.TransactionManager
}

func NewStockService(
	stockRepo repository.StockRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TransactionManager,
) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
	}
}

// UpsertStock sets the available quantity for one material. Reserved
// quantity is owned by the routing flow and never touched here.
func (s *stockService) UpsertStock(ctx context.Context, req UpsertStockRequest) (*model.StockItem, error) {
	qty, err := decimal.NewFromString(req.AvailableQty)
	if err != nil || qty.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("invalid available quantity %q", req.AvailableQty)
	}

	var item *model.StockItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, findErr := s.stockRepo.FindByMaterialForUpdate(txCtx, req.MaterialName)
		switch {
		case findErr == nil:
			existing.AvailableQty = qty
			existing.Unit = req.Unit
			item = existing
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			item = &model.StockItem{
				MaterialName: req.MaterialName,
				AvailableQty: qty,
				ReservedQty:  decimal.Zero,
				Unit:         req.Unit,
			}
		default:
			return findErr
		}
		return s.stockRepo.Upsert(txCtx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save stock item: %w", err)
	}
	return item, nil
}

func (s *stockService) GetStock(ctx context.Context, materialName string) (*model.StockItem, error) {
	item, err := s.stockRepo.FindByMaterial(ctx, materialName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *stockService) ListStock(ctx context.Context, page, limit int) ([]model.StockItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.stockRepo.List(ctx, page, limit)
}

func (s *stockService) UpsertCatalogItem(ctx context.Context, req UpsertCatalogRequest) (*model.CatalogItem, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("invalid unit price %q", req.UnitPrice)
	}

	item := &model.CatalogItem{
		MaterialName: req.MaterialName,
		UnitPrice:    price,
		Unit:         req.Unit,
	}
	if existing, findErr := s.catalogRepo.FindByMaterial(ctx, req.MaterialName); findErr == nil {
		item.ID = existing.ID
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, findErr
	}
	if err := s.catalogRepo.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save catalog item: %w", err)
	}
	return item, nil
}
