package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RouteMaterialsRequest struct {
	MaterialNames []string          `json:"material_names" binding:"required,min=1"`
	Destination   model.RoutingType `json:"destination" binding:"required,oneof=vendor store"`
	VendorID      string            `json:"vendor_id"` // required when destination is vendor
}

type RouteResult struct {
	POChildID      string   `json:"po_child_id"`
	Suffix         string   `json:"suffix"`
	PONumber       string   `json:"po_number"`
	RoutedMaterial []string `json:"routed_materials"`
	FullyRouted    bool     `json:"fully_routed"`
	CRStatus       string   `json:"cr_status"`
}

// --- Interface ---

// RoutingService is the material router: it claims a subset of a CR's
// materials for one destination and splits the work into sub-orders.
type RoutingService interface {
	RouteMaterials(ctx context.Context, crID string, actorID string, req RouteMaterialsRequest) (RouteResult, error)
	ListChildren(ctx context.Context, crID string) ([]POChildResponse, error)
	UpdateChildStatus(ctx context.Context, childID, actorID string, status model.POChildStatus) (POChildResponse, error)
}

type POChildResponse struct {
	ID                    string                  `json:"id"`
	PONumber              string                  `json:"po_number"`
	Suffix                string                  `json:"suffix"`
	RoutingType           model.RoutingType       `json:"routing_type"`
	VendorID              *string                 `json:"vendor_id,omitempty"`
	VendorName            string                  `json:"vendor_name,omitempty"`
	Status                model.POChildStatus     `json:"status"`
	Materials             []model.POChildMaterial `json:"materials"`
}

type routingService struct {
	crRepo      repository.ChangeRequestRepository
	routedRepo  repository.RoutedMaterialRepository
	poChildRepo repository.POChildRepository
	stockRepo   repository.StockRepository
	vendorRepo  repository.VendorRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewRoutingService(
	crRepo repository.ChangeRequestRepository,
	routedRepo repository.RoutedMaterialRepository,
	poChildRepo repository.POChildRepository,
	stockRepo repository.StockRepository,
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) RoutingService {
	return &routingService{
		crRepo:      crRepo,
		routedRepo:  routedRepo,
		poChildRepo: poChildRepo,
		stockRepo:   stockRepo,
		vendorRepo:  vendorRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *routingService) RouteMaterials(ctx context.Context, crID string, actorID string, req RouteMaterialsRequest) (RouteResult, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return RouteResult{}, fmt.Errorf("invalid change request id: %w", err)
	}
	if len(req.MaterialNames) == 0 {
		return RouteResult{}, ErrEmptyMaterialList
	}

	var vendorID *uuid.UUID
	if req.Destination == model.RoutingVendor {
		parsed, parseErr := uuid.Parse(req.VendorID)
		if parseErr != nil {
			return RouteResult{}, fmt.Errorf("vendor destination requires a vendor_id: %w", parseErr)
		}
		vendorID = &parsed
	}

	// Availability pre-check outside the claiming transaction; no lock
	// is held across it. The reservation re-checks under the row lock.
	if req.Destination == model.RoutingStore {
		if err := s.precheckStock(ctx, id, req.MaterialNames); err != nil {
			return RouteResult{}, err
		}
	}

	var result RouteResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Serialize routing per CR on its row lock.
		if _, lockErr := s.crRepo.FindByIDForUpdate(txCtx, id); lockErr != nil {
			return fmt.Errorf("change request not found: %w", lockErr)
		}

		cr, loadErr := s.crRepo.FindByIDWithMaterials(txCtx, id)
		if loadErr != nil {
			return fmt.Errorf("failed to load change request: %w", loadErr)
		}

		if cr.Status.IsTerminal() || cr.Status == model.CRStatusSplitToSubCRs {
			return fmt.Errorf("%w: change request is %s", ErrInvalidState, cr.Status)
		}

		requested := make(map[string]model.ChangeRequestMaterial, len(cr.Materials))
		for _, m := range cr.Materials {
			requested[m.Name] = m
		}
		claimed := make(map[string]bool, len(cr.RoutedMaterials))
		for _, rm := range cr.RoutedMaterials {
			claimed[rm.MaterialName] = true
		}

		for _, name := range req.MaterialNames {
			if _, ok := requested[name]; !ok {
				return fmt.Errorf("%w: %s", ErrMaterialNotFound, name)
			}
			if claimed[name] {
				return fmt.Errorf("%w: %s", ErrAlreadyRouted, name)
			}
		}

		child, childErr := s.resolveChild(txCtx, cr, req.Destination, vendorID, actorID)
		if childErr != nil {
			return childErr
		}

		for _, name := range req.MaterialNames {
			mat := requested[name]

			unitPrice := mat.UnitPrice
			switch req.Destination {
			case model.RoutingVendor:
				price, priceErr := s.vendorRepo.FindPrice(txCtx, *vendorID, name)
				if priceErr != nil {
					if errors.Is(priceErr, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: %s", ErrVendorPricingMissing, name)
					}
					return fmt.Errorf("vendor price lookup failed: %w", priceErr)
				}
				unitPrice = &price.UnitPrice
			case model.RoutingStore:
				if reserveErr := s.reserveStock(txCtx, name, mat); reserveErr != nil {
					return reserveErr
				}
			}

			if createErr := s.poChildRepo.CreateMaterial(txCtx, &model.POChildMaterial{
				POChildID:    child.ID,
				MaterialName: name,
				Quantity:     mat.Quantity,
				Unit:         mat.Unit,
				UnitPrice:    unitPrice,
			}); createErr != nil {
				return fmt.Errorf("failed to add material to sub-order: %w", createErr)
			}

			rm := &model.RoutedMaterial{
				ChangeRequestID: cr.ID,
				MaterialName:    name,
				Routing:         req.Destination,
				POChildID:       child.ID,
				RoutedBy:        parseActor(actorID),
			}
			if claimErr := s.routedRepo.Claim(txCtx, rm); claimErr != nil {
				if errors.Is(claimErr, repository.ErrMaterialClaimed) {
					return fmt.Errorf("%w: %s", ErrAlreadyRouted, name)
				}
				return fmt.Errorf("failed to claim material: %w", claimErr)
			}
			claimed[name] = true
		}

		fullyRouted := true
		for _, m := range cr.Materials {
			if !claimed[m.Name] {
				fullyRouted = false
				break
			}
		}
		if fullyRouted {
			if updErr := s.crRepo.UpdateStatus(txCtx, cr.ID, model.CRStatusSplitToSubCRs); updErr != nil {
				return fmt.Errorf("failed to mark change request split: %w", updErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"po_number":   cr.PONumber(),
			"destination": req.Destination,
			"materials":   req.MaterialNames,
			"suffix":      child.Suffix,
		})
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionRouteMaterials,
			EntityID:   cr.ID.String(),
			EntityName: cr.PONumber(),
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		status := cr.Status
		if fullyRouted {
			status = model.CRStatusSplitToSubCRs
		}
		result = RouteResult{
			POChildID:      child.ID.String(),
			Suffix:         child.Suffix,
			PONumber:       child.PONumber(cr.CRNumber),
			RoutedMaterial: req.MaterialNames,
			FullyRouted:    fullyRouted,
			CRStatus:       string(status),
		}
		return nil
	})

	if err != nil {
		return RouteResult{}, err
	}

	publishEvent(s.hub, EventMaterialRouted, map[string]interface{}{
		"change_request_id": crID,
		"po_number":         result.PONumber,
		"destination":       req.Destination,
		"materials":         req.MaterialNames,
	})
	if result.FullyRouted {
		publishEvent(s.hub, EventCRFullyRouted, map[string]interface{}{
			"change_request_id": crID,
		})
	}

	return result, nil
}

// resolveChild reuses the CR's single store child, or creates a fresh
// sub-order (always fresh for vendor destinations: one child per
// vendor-selection event).
func (s *routingService) resolveChild(ctx context.Context, cr *model.ChangeRequest, dest model.RoutingType, vendorID *uuid.UUID, actorID string) (*model.POChild, error) {
	if dest == model.RoutingStore {
		child, err := s.poChildRepo.FindStoreChild(ctx, cr.ID)
		if err == nil {
			return child, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store sub-order lookup failed: %w", err)
		}
	}

	if dest == model.RoutingVendor {
		if _, err := s.vendorRepo.FindByID(ctx, *vendorID); err != nil {
			return nil, fmt.Errorf("vendor not found: %w", err)
		}
	}

	suffix, err := s.poChildRepo.NextSuffix(ctx, cr.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sub-order suffix: %w", err)
	}

	child := &model.POChild{
		ChangeRequestID: cr.ID,
		Suffix:          suffix,
		RoutingType:     dest,
		VendorID:        vendorID,
		Status:          model.POChildStatusOpen,
		CreatedBy:       parseActor(actorID),
	}
	if dest == model.RoutingVendor {
		child.VendorSelectionStatus = cr.VendorSelectionStatus
	} else {
		child.VendorSelectionStatus = model.VendorSelectionNone
	}

	if err := s.poChildRepo.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("failed to create sub-order: %w", err)
	}
	return child, nil
}

// precheckStock verifies availability before any lock is taken.
func (s *routingService) precheckStock(ctx context.Context, crID uuid.UUID, names []string) error {
	cr, err := s.crRepo.FindByIDWithMaterials(ctx, crID)
	if err != nil {
		return fmt.Errorf("change request not found: %w", err)
	}
	requested := make(map[string]model.ChangeRequestMaterial, len(cr.Materials))
	for _, m := range cr.Materials {
		requested[m.Name] = m
	}

	for _, name := range names {
		mat, ok := requested[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMaterialNotFound, name)
		}
		item, findErr := s.stockRepo.FindByMaterial(ctx, name)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s not stocked", ErrInsufficientStock, name)
			}
			return fmt.Errorf("stock lookup failed: %w", findErr)
		}
		if item.AvailableQty.LessThan(mat.Quantity) {
			return fmt.Errorf("%w: %s (available %s, requested %s)",
				ErrInsufficientStock, name, item.AvailableQty.String(), mat.Quantity.String())
		}
	}
	return nil
}

// reserveStock re-checks availability under the row lock and reserves.
func (s *routingService) reserveStock(ctx context.Context, name string, mat model.ChangeRequestMaterial) error {
	item, err := s.stockRepo.FindByMaterialForUpdate(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s not stocked", ErrInsufficientStock, name)
		}
		return fmt.Errorf("stock lookup failed: %w", err)
	}
	if item.AvailableQty.LessThan(mat.Quantity) {
		return fmt.Errorf("%w: %s (available %s, requested %s)",
			ErrInsufficientStock, name, item.AvailableQty.String(), mat.Quantity.String())
	}
	if err := s.stockRepo.Reserve(ctx, item, mat.Quantity); err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	return nil
}

func (s *routingService) ListChildren(ctx context.Context, crID string) ([]POChildResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return nil, fmt.Errorf("invalid change request id: %w", err)
	}

	cr, err := s.crRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("change request not found: %w", err)
	}

	children, err := s.poChildRepo.ListByChangeRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	res := make([]POChildResponse, 0, len(children))
	for _, c := range children {
		resp := POChildResponse{
			ID:          c.ID.String(),
			PONumber:    c.PONumber(cr.CRNumber),
			Suffix:      c.Suffix,
			RoutingType: c.RoutingType,
			Status:      c.Status,
			Materials:   c.Materials,
		}
		if c.VendorID != nil {
			v := c.VendorID.String()
			resp.VendorID = &v
		}
		if c.Vendor != nil {
			resp.VendorName = c.Vendor.Name
		}
		res = append(res, resp)
	}
	return res, nil
}

// childTransitions lists the allowed forward moves of a sub-order.
// Delivered is set by the inspection flow, not through here.
var childTransitions = map[model.POChildStatus][]model.POChildStatus{
	model.POChildStatusOpen:       {model.POChildStatusDispatched, model.POChildStatusCancelled},
	model.POChildStatusDispatched: {model.POChildStatusDelivered, model.POChildStatusCancelled},
	model.POChildStatusDelivered:  {model.POChildStatusCompleted},
}

func (s *routingService) UpdateChildStatus(ctx context.Context, childID, actorID string, status model.POChildStatus) (POChildResponse, error) {
	id, err := uuid.Parse(childID)
	if err != nil {
		return POChildResponse{}, fmt.Errorf("invalid sub-order id: %w", err)
	}

	var child *model.POChild
	var crNumber int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		child, findErr = s.poChildRepo.FindByID(txCtx, id)
		if findErr != nil {
			return fmt.Errorf("sub-order not found: %w", findErr)
		}

		allowed := false
		for _, next := range childTransitions[child.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, child.Status, status)
		}

		cr, crErr := s.crRepo.FindByID(txCtx, child.ChangeRequestID)
		if crErr != nil {
			return fmt.Errorf("change request not found: %w", crErr)
		}
		crNumber = cr.CRNumber

		if updErr := s.poChildRepo.UpdateStatus(txCtx, child.ID, status); updErr != nil {
			return fmt.Errorf("failed to update sub-order: %w", updErr)
		}
		from := child.Status
		child.Status = status

		details, _ := json.Marshal(map[string]interface{}{
			"from": from,
			"to":   status,
		})
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionDispatchPO,
			EntityID:   child.ID.String(),
			EntityName: child.PONumber(crNumber),
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return POChildResponse{}, err
	}

	resp := POChildResponse{
		ID:          child.ID.String(),
		PONumber:    child.PONumber(crNumber),
		Suffix:      child.Suffix,
		RoutingType: child.RoutingType,
		Status:      child.Status,
		Materials:   child.Materials,
	}
	if child.VendorID != nil {
		v := child.VendorID.String()
		resp.VendorID = &v
	}
	return resp, nil
}

// parseActor converts a JWT subject into an audit-friendly uuid pointer.
func parseActor(actorID string) *uuid.UUID {
	if parsed, err := uuid.Parse(actorID); err == nil {
		return &parsed
	}
	return nil
}
