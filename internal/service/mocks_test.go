package service

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Func-backed fakes for the repository interfaces. Tests set only the
// functions they exercise; unset lookups fall back to not-found and
// unset writes succeed.

type mockTxManager struct {
	RunInTxFn func(ctx context.Context, fn func(txCtx context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if m.RunInTxFn != nil {
		return m.RunInTxFn(ctx, fn)
	}
	return fn(ctx)
}

type mockCRRepo struct {
	CreateFn                func(ctx context.Context, cr *model.ChangeRequest) error
	FindByIDFn              func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	FindByIDWithMaterialsFn func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	FindByIDForUpdateFn     func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	ListFn                  func(ctx context.Context, status model.CRStatus, page, limit int) ([]model.ChangeRequest, int64, error)
	UpdateFn                func(ctx context.Context, cr *model.ChangeRequest) error
	UpdateStatusFn          func(ctx context.Context, id uuid.UUID, status model.CRStatus) error
	NextCRNumberFn          func(ctx context.Context) (int64, error)
}

func (m *mockCRRepo) Create(ctx context.Context, cr *model.ChangeRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, cr)
	}
	return nil
}

func (m *mockCRRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCRRepo) FindByIDWithMaterials(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	if m.FindByIDWithMaterialsFn != nil {
		return m.FindByIDWithMaterialsFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCRRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	if m.FindByIDForUpdateFn != nil {
		return m.FindByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCRRepo) List(ctx context.Context, status model.CRStatus, page, limit int) ([]model.ChangeRequest, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, status, page, limit)
	}
	return nil, 0, nil
}

func (m *mockCRRepo) Update(ctx context.Context, cr *model.ChangeRequest) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, cr)
	}
	return nil
}

func (m *mockCRRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CRStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockCRRepo) NextCRNumber(ctx context.Context) (int64, error) {
	if m.NextCRNumberFn != nil {
		return m.NextCRNumberFn(ctx)
	}
	return 1, nil
}

type mockRoutedRepo struct {
	ClaimFn               func(ctx context.Context, rm *model.RoutedMaterial) error
	ListByChangeRequestFn func(ctx context.Context, crID uuid.UUID) ([]model.RoutedMaterial, error)
}

func (m *mockRoutedRepo) Claim(ctx context.Context, rm *model.RoutedMaterial) error {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, rm)
	}
	return nil
}

func (m *mockRoutedRepo) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.RoutedMaterial, error) {
	if m.ListByChangeRequestFn != nil {
		return m.ListByChangeRequestFn(ctx, crID)
	}
	return nil, nil
}

type mockPOChildRepo struct {
	CreateFn              func(ctx context.Context, child *model.POChild) error
	CreateMaterialFn      func(ctx context.Context, mat *model.POChildMaterial) error
	FindByIDFn            func(ctx context.Context, id uuid.UUID) (*model.POChild, error)
	FindStoreChildFn      func(ctx context.Context, crID uuid.UUID) (*model.POChild, error)
	ListByChangeRequestFn func(ctx context.Context, crID uuid.UUID) ([]model.POChild, error)
	UpdateStatusFn        func(ctx context.Context, id uuid.UUID, status model.POChildStatus) error
	NextSuffixFn          func(ctx context.Context, crID uuid.UUID) (string, error)
}

func (m *mockPOChildRepo) Create(ctx context.Context, child *model.POChild) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, child)
	}
	return nil
}

func (m *mockPOChildRepo) CreateMaterial(ctx context.Context, mat *model.POChildMaterial) error {
	if m.CreateMaterialFn != nil {
		return m.CreateMaterialFn(ctx, mat)
	}
	return nil
}

func (m *mockPOChildRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.POChild, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPOChildRepo) FindStoreChild(ctx context.Context, crID uuid.UUID) (*model.POChild, error) {
	if m.FindStoreChildFn != nil {
		return m.FindStoreChildFn(ctx, crID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPOChildRepo) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.POChild, error) {
	if m.ListByChangeRequestFn != nil {
		return m.ListByChangeRequestFn(ctx, crID)
	}
	return nil, nil
}

func (m *mockPOChildRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.POChildStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockPOChildRepo) NextSuffix(ctx context.Context, crID uuid.UUID) (string, error) {
	if m.NextSuffixFn != nil {
		return m.NextSuffixFn(ctx, crID)
	}
	return ".1", nil
}

type mockStockRepo struct {
	FindByMaterialFn          func(ctx context.Context, materialName string) (*model.StockItem, error)
	FindByMaterialForUpdateFn func(ctx context.Context, materialName string) (*model.StockItem, error)
	ReserveFn                 func(ctx context.Context, item *model.StockItem, qty decimal.Decimal) error
	UpsertFn                  func(ctx context.Context, item *model.StockItem) error
	ListFn                    func(ctx context.Context, page, limit int) ([]model.StockItem, int64, error)
}

func (m *mockStockRepo) FindByMaterial(ctx context.Context, materialName string) (*model.StockItem, error) {
	if m.FindByMaterialFn != nil {
		return m.FindByMaterialFn(ctx, materialName)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStockRepo) FindByMaterialForUpdate(ctx context.Context, materialName string) (*model.StockItem, error) {
	if m.FindByMaterialForUpdateFn != nil {
		return m.FindByMaterialForUpdateFn(ctx, materialName)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStockRepo) Reserve(ctx context.Context, item *model.StockItem, qty decimal.Decimal) error {
	if m.ReserveFn != nil {
		return m.ReserveFn(ctx, item, qty)
	}
	return nil
}

func (m *mockStockRepo) Upsert(ctx context.Context, item *model.StockItem) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, item)
	}
	return nil
}

func (m *mockStockRepo) List(ctx context.Context, page, limit int) ([]model.StockItem, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit)
	}
	return nil, 0, nil
}

type mockVendorRepo struct {
	CreateFn      func(ctx context.Context, vendor *model.Vendor) error
	FindByIDFn    func(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	FindPriceFn   func(ctx context.Context, vendorID uuid.UUID, materialName string) (*model.VendorPrice, error)
	UpsertPriceFn func(ctx context.Context, price *model.VendorPrice) error
	ListFn        func(ctx context.Context, page, limit int) ([]model.Vendor, int64, error)
}

func (m *mockVendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, vendor)
	}
	return nil
}

func (m *mockVendorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVendorRepo) FindPrice(ctx context.Context, vendorID uuid.UUID, materialName string) (*model.VendorPrice, error) {
	if m.FindPriceFn != nil {
		return m.FindPriceFn(ctx, vendorID, materialName)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVendorRepo) UpsertPrice(ctx context.Context, price *model.VendorPrice) error {
	if m.UpsertPriceFn != nil {
		return m.UpsertPriceFn(ctx, price)
	}
	return nil
}

func (m *mockVendorRepo) List(ctx context.Context, page, limit int) ([]model.Vendor, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit)
	}
	return nil, 0, nil
}

type mockAuditRepo struct {
	LogFn  func(ctx context.Context, entry *model.AuditLog) error
	ListFn func(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error)
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if m.LogFn != nil {
		return m.LogFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit)
	}
	return nil, 0, nil
}

type mockInspectionRepo struct {
	CreateFn              func(ctx context.Context, insp *model.VendorDeliveryInspection) error
	CreateLineFn          func(ctx context.Context, line *model.InspectionMaterial) error
	FindByIDFn            func(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error)
	ListByChangeRequestFn func(ctx context.Context, crID uuid.UUID) ([]model.VendorDeliveryInspection, error)
}

func (m *mockInspectionRepo) Create(ctx context.Context, insp *model.VendorDeliveryInspection) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, insp)
	}
	return nil
}

func (m *mockInspectionRepo) CreateLine(ctx context.Context, line *model.InspectionMaterial) error {
	if m.CreateLineFn != nil {
		return m.CreateLineFn(ctx, line)
	}
	return nil
}

func (m *mockInspectionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInspectionRepo) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorDeliveryInspection, error) {
	if m.ListByChangeRequestFn != nil {
		return m.ListByChangeRequestFn(ctx, crID)
	}
	return nil, nil
}

type mockReturnRepo struct {
	CreateFn              func(ctx context.Context, req *model.VendorReturnRequest) error
	CreateMaterialFn      func(ctx context.Context, mat *model.ReturnRequestMaterial) error
	FindByIDFn            func(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error)
	FindByIDForUpdateFn   func(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error)
	ListByChangeRequestFn func(ctx context.Context, crID uuid.UUID) ([]model.VendorReturnRequest, error)
	UpdateFn              func(ctx context.Context, req *model.VendorReturnRequest) error
}

func (m *mockReturnRepo) Create(ctx context.Context, req *model.VendorReturnRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	return nil
}

func (m *mockReturnRepo) CreateMaterial(ctx context.Context, mat *model.ReturnRequestMaterial) error {
	if m.CreateMaterialFn != nil {
		return m.CreateMaterialFn(ctx, mat)
	}
	return nil
}

func (m *mockReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReturnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.VendorReturnRequest, error) {
	if m.FindByIDForUpdateFn != nil {
		return m.FindByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReturnRepo) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.VendorReturnRequest, error) {
	if m.ListByChangeRequestFn != nil {
		return m.ListByChangeRequestFn(ctx, crID)
	}
	return nil, nil
}

func (m *mockReturnRepo) Update(ctx context.Context, req *model.VendorReturnRequest) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, req)
	}
	return nil
}

type mockIterationRepo struct {
	AllocateFn                 func(ctx context.Context, node *model.InspectionIteration) error
	FindByIDFn                 func(ctx context.Context, id uuid.UUID) (*model.InspectionIteration, error)
	FindBySpawningInspectionFn func(ctx context.Context, inspectionID uuid.UUID) (*model.InspectionIteration, error)
	ListByChangeRequestFn      func(ctx context.Context, crID uuid.UUID) ([]model.InspectionIteration, error)
	UpdateFn                   func(ctx context.Context, node *model.InspectionIteration) error
}

func (m *mockIterationRepo) Allocate(ctx context.Context, node *model.InspectionIteration) error {
	if m.AllocateFn != nil {
		return m.AllocateFn(ctx, node)
	}
	return nil
}

func (m *mockIterationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InspectionIteration, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIterationRepo) FindBySpawningInspection(ctx context.Context, inspectionID uuid.UUID) (*model.InspectionIteration, error) {
	if m.FindBySpawningInspectionFn != nil {
		return m.FindBySpawningInspectionFn(ctx, inspectionID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIterationRepo) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.InspectionIteration, error) {
	if m.ListByChangeRequestFn != nil {
		return m.ListByChangeRequestFn(ctx, crID)
	}
	return nil, nil
}

func (m *mockIterationRepo) Update(ctx context.Context, node *model.InspectionIteration) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, node)
	}
	return nil
}

type mockCatalogRepo struct {
	FindByMaterialFn func(ctx context.Context, materialName string) (*model.CatalogItem, error)
	UpsertFn         func(ctx context.Context, item *model.CatalogItem) error
}

func (m *mockCatalogRepo) FindByMaterial(ctx context.Context, materialName string) (*model.CatalogItem, error) {
	if m.FindByMaterialFn != nil {
		return m.FindByMaterialFn(ctx, materialName)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) Upsert(ctx context.Context, item *model.CatalogItem) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, item)
	}
	return nil
}
