package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testCR(id uuid.UUID) *model.ChangeRequest {
	return &model.ChangeRequest{
		ID:       id,
		CRNumber: 500,
		Status:   model.CRStatusSentToVendor,
		Materials: []model.ChangeRequestMaterial{
			{Name: "cement 42.5", Quantity: qty("100"), Unit: "bag"},
			{Name: "rebar 12mm", Quantity: qty("40"), Unit: "pcs"},
		},
	}
}

func TestRouteMaterials(t *testing.T) {
	ctx := context.Background()
	crID := uuid.New()
	vendorID := uuid.New()
	actor := uuid.NewString()

	t.Run("unknown material", func(t *testing.T) {
		crRepo := &mockCRRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
		}
		vendorRepo := &mockVendorRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
				return &model.Vendor{ID: vendorID}, nil
			},
		}
		svc := NewRoutingService(crRepo, &mockRoutedRepo{}, &mockPOChildRepo{}, &mockStockRepo{}, vendorRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"plywood 18mm"},
			Destination:   model.RoutingVendor,
			VendorID:      vendorID.String(),
		})
		if !errors.Is(err, ErrMaterialNotFound) {
			t.Fatalf("error = %v, want ErrMaterialNotFound", err)
		}
	})

	t.Run("material already claimed", func(t *testing.T) {
		cr := testCR(crID)
		cr.RoutedMaterials = []model.RoutedMaterial{{ChangeRequestID: crID, MaterialName: "cement 42.5"}}
		crRepo := &mockCRRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return cr, nil
			},
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return cr, nil
			},
		}
		svc := NewRoutingService(crRepo, &mockRoutedRepo{}, &mockPOChildRepo{}, &mockStockRepo{}, &mockVendorRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"cement 42.5"},
			Destination:   model.RoutingVendor,
			VendorID:      vendorID.String(),
		})
		if !errors.Is(err, ErrAlreadyRouted) {
			t.Fatalf("error = %v, want ErrAlreadyRouted", err)
		}
	})

	t.Run("claim race surfaces as already routed", func(t *testing.T) {
		crRepo := &mockCRRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
		}
		routedRepo := &mockRoutedRepo{
			ClaimFn: func(ctx context.Context, rm *model.RoutedMaterial) error {
				return repository.ErrMaterialClaimed
			},
		}
		vendorRepo := &mockVendorRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
				return &model.Vendor{ID: vendorID}, nil
			},
			FindPriceFn: func(ctx context.Context, vID uuid.UUID, name string) (*model.VendorPrice, error) {
				return &model.VendorPrice{VendorID: vID, MaterialName: name, UnitPrice: qty("10")}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			CreateFn: func(ctx context.Context, child *model.POChild) error {
				child.ID = uuid.New()
				return nil
			},
		}
		svc := NewRoutingService(crRepo, routedRepo, poChildRepo, &mockStockRepo{}, vendorRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"cement 42.5"},
			Destination:   model.RoutingVendor,
			VendorID:      vendorID.String(),
		})
		if !errors.Is(err, ErrAlreadyRouted) {
			t.Fatalf("error = %v, want ErrAlreadyRouted", err)
		}
	})

	t.Run("vendor price missing", func(t *testing.T) {
		crRepo := &mockCRRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
		}
		vendorRepo := &mockVendorRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
				return &model.Vendor{ID: vendorID}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			CreateFn: func(ctx context.Context, child *model.POChild) error {
				child.ID = uuid.New()
				return nil
			},
		}
		svc := NewRoutingService(crRepo, &mockRoutedRepo{}, poChildRepo, &mockStockRepo{}, vendorRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"cement 42.5"},
			Destination:   model.RoutingVendor,
			VendorID:      vendorID.String(),
		})
		if !errors.Is(err, ErrVendorPricingMissing) {
			t.Fatalf("error = %v, want ErrVendorPricingMissing", err)
		}
	})

	t.Run("store routing with insufficient stock", func(t *testing.T) {
		crRepo := &mockCRRepo{
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
		}
		stockRepo := &mockStockRepo{
			FindByMaterialFn: func(ctx context.Context, name string) (*model.StockItem, error) {
				return &model.StockItem{MaterialName: name, AvailableQty: qty("5")}, nil
			},
		}
		svc := NewRoutingService(crRepo, &mockRoutedRepo{}, &mockPOChildRepo{}, stockRepo, &mockVendorRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"cement 42.5"},
			Destination:   model.RoutingStore,
		})
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("error = %v, want ErrInsufficientStock", err)
		}
	})

	t.Run("full vendor routing marks the CR split", func(t *testing.T) {
		var claims []model.RoutedMaterial
		var crStatus model.CRStatus
		var reserved bool

		crRepo := &mockCRRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
			FindByIDWithMaterialsFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return testCR(crID), nil
			},
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status model.CRStatus) error {
				crStatus = status
				return nil
			},
		}
		routedRepo := &mockRoutedRepo{
			ClaimFn: func(ctx context.Context, rm *model.RoutedMaterial) error {
				claims = append(claims, *rm)
				return nil
			},
		}
		vendorRepo := &mockVendorRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
				return &model.Vendor{ID: vendorID}, nil
			},
			FindPriceFn: func(ctx context.Context, vID uuid.UUID, name string) (*model.VendorPrice, error) {
				return &model.VendorPrice{VendorID: vID, MaterialName: name, UnitPrice: qty("10")}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			CreateFn: func(ctx context.Context, child *model.POChild) error {
				child.ID = uuid.New()
				return nil
			},
			NextSuffixFn: func(ctx context.Context, id uuid.UUID) (string, error) {
				return ".3", nil
			},
		}
		stockRepo := &mockStockRepo{
			ReserveFn: func(ctx context.Context, item *model.StockItem, q decimal.Decimal) error {
				reserved = true
				return nil
			},
		}
		svc := NewRoutingService(crRepo, routedRepo, poChildRepo, stockRepo, vendorRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		result, err := svc.RouteMaterials(ctx, crID.String(), actor, RouteMaterialsRequest{
			MaterialNames: []string{"cement 42.5", "rebar 12mm"},
			Destination:   model.RoutingVendor,
			VendorID:      vendorID.String(),
		})
		if err != nil {
			t.Fatalf("RouteMaterials() error: %v", err)
		}
		if !result.FullyRouted {
			t.Error("FullyRouted = false, want true")
		}
		if result.PONumber != "PO-500.3" {
			t.Errorf("PONumber = %s, want PO-500.3", result.PONumber)
		}
		if crStatus != model.CRStatusSplitToSubCRs {
			t.Errorf("CR status = %s, want split_to_sub_crs", crStatus)
		}
		if len(claims) != 2 {
			t.Errorf("claimed %d materials, want 2", len(claims))
		}
		if reserved {
			t.Error("vendor routing must not touch stock reservations")
		}
	})
}

func TestUpdateChildStatus(t *testing.T) {
	ctx := context.Background()
	crID := uuid.New()
	childID := uuid.New()
	actor := uuid.NewString()

	newSvc := func(current model.POChildStatus, updated *model.POChildStatus) RoutingService {
		crRepo := &mockCRRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return &model.ChangeRequest{ID: crID, CRNumber: 500}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.POChild, error) {
				return &model.POChild{ID: childID, ChangeRequestID: crID, Suffix: ".1", RoutingType: model.RoutingVendor, Status: current}, nil
			},
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status model.POChildStatus) error {
				*updated = status
				return nil
			},
		}
		return NewRoutingService(crRepo, &mockRoutedRepo{}, poChildRepo, &mockStockRepo{}, &mockVendorRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil)
	}

	t.Run("open to dispatched", func(t *testing.T) {
		var updated model.POChildStatus
		svc := newSvc(model.POChildStatusOpen, &updated)

		resp, err := svc.UpdateChildStatus(ctx, childID.String(), actor, model.POChildStatusDispatched)
		if err != nil {
			t.Fatalf("UpdateChildStatus() error: %v", err)
		}
		if updated != model.POChildStatusDispatched {
			t.Errorf("persisted status = %s, want dispatched", updated)
		}
		if resp.Status != model.POChildStatusDispatched {
			t.Errorf("response status = %s, want dispatched", resp.Status)
		}
	})

	t.Run("open cannot jump to delivered", func(t *testing.T) {
		var updated model.POChildStatus
		svc := newSvc(model.POChildStatusOpen, &updated)

		_, err := svc.UpdateChildStatus(ctx, childID.String(), actor, model.POChildStatusDelivered)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("completed is terminal", func(t *testing.T) {
		var updated model.POChildStatus
		svc := newSvc(model.POChildStatusCompleted, &updated)

		_, err := svc.UpdateChildStatus(ctx, childID.String(), actor, model.POChildStatusCancelled)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("error = %v, want ErrInvalidState", err)
		}
	})
}
