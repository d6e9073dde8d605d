package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitMaterialRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Unit     string `json:"unit" binding:"required"`
}

type SubmitChangeRequestDTO struct {
	ProjectID  string                  `json:"project_id" binding:"required"`
	BOQItemRef string                  `json:"boq_item_ref"`
	Materials  []SubmitMaterialRequest `json:"materials" binding:"required,min=1,dive"`
}

type SelectVendorDTO struct {
	VendorID        string                `json:"vendor_id" binding:"required"`
	DeliveryRouting model.DeliveryRouting `json:"delivery_routing" binding:"required,oneof=direct_to_site via_production_manager"`
}

type PriceMaterialDTO struct {
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type ChangeRequestResponse struct {
	ID                    string                        `json:"id"`
	PONumber              string                        `json:"po_number"`
	ProjectID             string                        `json:"project_id"`
	BOQItemRef            string                        `json:"boq_item_ref"`
	Status                model.CRStatus                `json:"status"`
	ApprovalRequiredFrom  model.ApproverRole            `json:"approval_required_from"`
	DeliveryRouting       model.DeliveryRouting         `json:"delivery_routing"`
	VendorSelectionStatus model.VendorSelectionStatus   `json:"vendor_selection_status"`
	SelectedVendor        string                        `json:"selected_vendor,omitempty"`
	RejectionReason       string                        `json:"rejection_reason,omitempty"`
	Materials             []model.ChangeRequestMaterial `json:"materials"`
	RoutedMaterials       []model.RoutedMaterial        `json:"routed_materials"`
	CreatedAt             string                        `json:"created_at"`
}

type CRFilter struct {
	Status model.CRStatus
	Page   int
	Limit  int
}

// --- Interface ---

// LifecycleService owns the top-level CR state machine. Every mutation
// is a short guarded transaction with an audit row.
type LifecycleService interface {
	Submit(ctx context.Context, actorID string, req SubmitChangeRequestDTO) (ChangeRequestResponse, error)
	Get(ctx context.Context, crID string) (ChangeRequestResponse, error)
	List(ctx context.Context, filter CRFilter) ([]ChangeRequestResponse, int64, error)
	AssignProjectManager(ctx context.Context, crID, pmID, actorID string) (ChangeRequestResponse, error)
	PMApprove(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error)
	PriceMaterials(ctx context.Context, crID, actorID string, prices []PriceMaterialDTO) (ChangeRequestResponse, error)
	AssignBuyer(ctx context.Context, crID, buyerID, actorID string) (ChangeRequestResponse, error)
	SelectVendor(ctx context.Context, crID, actorID string, req SelectVendorDTO) (ChangeRequestResponse, error)
	TDDecideVendor(ctx context.Context, crID, actorID string, approve bool, reason string) (ChangeRequestResponse, error)
	Dispatch(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error)
	Reject(ctx context.Context, crID, actorID, reason string) (ChangeRequestResponse, error)
	CompletePurchase(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error)
}

type lifecycleService struct {
	crRepo      repository.ChangeRequestRepository
	poChildRepo repository.POChildRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewLifecycleService(
	crRepo repository.ChangeRequestRepository,
	poChildRepo repository.POChildRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) LifecycleService {
	return &lifecycleService{
		crRepo:      crRepo,
		poChildRepo: poChildRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *lifecycleService) Submit(ctx context.Context, actorID string, req SubmitChangeRequestDTO) (ChangeRequestResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid project id: %w", err)
	}
	if len(req.Materials) == 0 {
		return ChangeRequestResponse{}, ErrEmptyMaterialList
	}

	// Resolve each material against the priced catalog. Unknown names
	// are flagged new and go through the estimator.
	materials := make([]model.ChangeRequestMaterial, 0, len(req.Materials))
	for i, m := range req.Materials {
		qty, qtyErr := decimal.NewFromString(m.Quantity)
		if qtyErr != nil || qty.LessThanOrEqual(decimal.Zero) {
			return ChangeRequestResponse{}, fmt.Errorf("invalid quantity for %s", m.Name)
		}

		mat := model.ChangeRequestMaterial{
			Position: i,
			Name:     m.Name,
			Quantity: qty,
			Unit:     m.Unit,
		}
		item, lookupErr := s.catalogRepo.FindByMaterial(ctx, m.Name)
		switch {
		case lookupErr == nil:
			price := item.UnitPrice
			mat.UnitPrice = &price
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			mat.IsNew = true
		default:
			return ChangeRequestResponse{}, fmt.Errorf("catalog lookup failed: %w", lookupErr)
		}
		materials = append(materials, mat)
	}

	decision := DecideRouting(materials)

	var cr model.ChangeRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.crRepo.NextCRNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to allocate CR number: %w", numErr)
		}

		cr = model.ChangeRequest{
			CRNumber:             number,
			ProjectID:            projectID,
			BOQItemRef:           req.BOQItemRef,
			Status:               model.CRStatusPending,
			ApprovalRequiredFrom: decision.NextApprover,
			DeliveryRouting:      model.DeliveryDirectToSite,
			Materials:            materials,
			CreatedBy:            parseActor(actorID),
		}
		if createErr := s.crRepo.Create(txCtx, &cr); createErr != nil {
			return fmt.Errorf("failed to create change request: %w", createErr)
		}

		return s.audit(txCtx, actorID, model.ActionSubmitChangeRequest, &cr, map[string]interface{}{
			"routing_kind":  decision.RoutingKind,
			"next_approver": decision.NextApprover,
			"materials":     len(materials),
		})
	})
	if err != nil {
		return ChangeRequestResponse{}, err
	}

	return s.Get(ctx, cr.ID.String())
}

func (s *lifecycleService) Get(ctx context.Context, crID string) (ChangeRequestResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid change request id: %w", err)
	}
	cr, err := s.crRepo.FindByIDWithMaterials(ctx, id)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("change request not found: %w", err)
	}
	return toCRResponse(cr), nil
}

func (s *lifecycleService) List(ctx context.Context, filter CRFilter) ([]ChangeRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	crs, total, err := s.crRepo.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ChangeRequestResponse, 0, len(crs))
	for i := range crs {
		res = append(res, toCRResponse(&crs[i]))
	}
	return res, total, nil
}

func (s *lifecycleService) AssignProjectManager(ctx context.Context, crID, pmID, actorID string) (ChangeRequestResponse, error) {
	pm, err := uuid.Parse(pmID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid project manager id: %w", err)
	}
	return s.transition(ctx, crID, actorID, model.ActionAssignPM, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusPending {
			return fmt.Errorf("%w: expected pending, got %s", ErrInvalidState, cr.Status)
		}
		cr.Status = model.CRStatusAssignedToPM
		cr.ProjectManagerID = &pm
		return nil
	})
}

func (s *lifecycleService) PMApprove(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error) {
	return s.transition(ctx, crID, actorID, model.ActionPMApprove, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusAssignedToPM {
			return fmt.Errorf("%w: expected assigned_to_pm, got %s", ErrInvalidState, cr.Status)
		}
		cr.Status = model.CRStatusPMApproved
		return nil
	})
}

// PriceMaterials lets the estimator fill in unit prices for new
// materials and hands the CR to the buyer queue.
func (s *lifecycleService) PriceMaterials(ctx context.Context, crID, actorID string, prices []PriceMaterialDTO) (ChangeRequestResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid change request id: %w", err)
	}

	priceMap := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		value, parseErr := decimal.NewFromString(p.UnitPrice)
		if parseErr != nil || value.LessThanOrEqual(decimal.Zero) {
			return ChangeRequestResponse{}, fmt.Errorf("invalid unit price for %s", p.Name)
		}
		priceMap[p.Name] = value
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lockErr := s.crRepo.FindByIDForUpdate(txCtx, id); lockErr != nil {
			return fmt.Errorf("change request not found: %w", lockErr)
		}
		cr, loadErr := s.crRepo.FindByIDWithMaterials(txCtx, id)
		if loadErr != nil {
			return loadErr
		}
		if cr.ApprovalRequiredFrom != model.ApproverEstimator {
			return fmt.Errorf("%w: change request is not waiting on the estimator", ErrInvalidState)
		}
		if cr.Status.IsTerminal() {
			return fmt.Errorf("%w: change request is %s", ErrInvalidState, cr.Status)
		}

		for i := range cr.Materials {
			m := &cr.Materials[i]
			if price, ok := priceMap[m.Name]; ok {
				p := price
				m.UnitPrice = &p
				m.IsNew = false
			}
			if m.UnitPrice == nil {
				return fmt.Errorf("%w: %s still unpriced", ErrMaterialNotFound, m.Name)
			}
		}
		cr.ApprovalRequiredFrom = model.ApproverBuyer

		if saveErr := s.crRepo.Update(txCtx, cr); saveErr != nil {
			return fmt.Errorf("failed to update change request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, model.ActionPriceMaterials, cr, map[string]interface{}{
			"priced": len(priceMap),
		})
	})
	if err != nil {
		return ChangeRequestResponse{}, err
	}
	return s.Get(ctx, crID)
}

func (s *lifecycleService) AssignBuyer(ctx context.Context, crID, buyerID, actorID string) (ChangeRequestResponse, error) {
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid buyer id: %w", err)
	}
	return s.transition(ctx, crID, actorID, model.ActionAssignBuyer, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusPMApproved {
			return fmt.Errorf("%w: expected pm_approved, got %s", ErrInvalidState, cr.Status)
		}
		if cr.ApprovalRequiredFrom != model.ApproverBuyer {
			return fmt.Errorf("%w: materials not fully priced yet", ErrInvalidState)
		}
		cr.Status = model.CRStatusBuyerAssigned
		cr.BuyerID = &buyer
		return nil
	})
}

func (s *lifecycleService) SelectVendor(ctx context.Context, crID, actorID string, req SelectVendorDTO) (ChangeRequestResponse, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}
	return s.transition(ctx, crID, actorID, model.ActionSelectVendor, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusBuyerAssigned {
			return fmt.Errorf("%w: expected buyer_assigned, got %s", ErrInvalidState, cr.Status)
		}
		cr.Status = model.CRStatusPendingTDApproval
		cr.SelectedVendorID = &vendorID
		cr.VendorSelectionStatus = model.VendorSelectionPending
		cr.DeliveryRouting = req.DeliveryRouting
		return nil
	})
}

func (s *lifecycleService) TDDecideVendor(ctx context.Context, crID, actorID string, approve bool, reason string) (ChangeRequestResponse, error) {
	return s.transition(ctx, crID, actorID, model.ActionTDDecideVendor, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusPendingTDApproval || cr.VendorSelectionStatus != model.VendorSelectionPending {
			return fmt.Errorf("%w: no vendor selection awaiting TD approval", ErrInvalidState)
		}
		now := time.Now()
		cr.VendorTDDecidedBy = parseActor(actorID)
		cr.VendorTDDecidedAt = &now
		if approve {
			cr.Status = model.CRStatusApproved
			cr.VendorSelectionStatus = model.VendorSelectionApproved
		} else {
			cr.Status = model.CRStatusRejected
			cr.VendorSelectionStatus = model.VendorSelectionRejected
			cr.RejectedBy = parseActor(actorID)
			cr.RejectedAt = &now
			cr.RejectionReason = reason
		}
		return nil
	})
}

// Dispatch sends the approved PO out: to the vendor, or to the store
// when the delivery is received internally first.
func (s *lifecycleService) Dispatch(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error) {
	return s.transition(ctx, crID, actorID, model.ActionDispatchPO, func(cr *model.ChangeRequest) error {
		if cr.Status != model.CRStatusApproved {
			return fmt.Errorf("%w: expected approved, got %s", ErrInvalidState, cr.Status)
		}
		if cr.VendorSelectionStatus != model.VendorSelectionApproved {
			return ErrVendorNotApproved
		}
		if cr.DeliveryRouting == model.DeliveryViaProductionManager {
			cr.Status = model.CRStatusSentToStore
		} else {
			cr.Status = model.CRStatusSentToVendor
		}
		return nil
	})
}

func (s *lifecycleService) Reject(ctx context.Context, crID, actorID, reason string) (ChangeRequestResponse, error) {
	return s.transition(ctx, crID, actorID, model.ActionRejectCR, func(cr *model.ChangeRequest) error {
		if !cr.Status.IsPreApproval() {
			return fmt.Errorf("%w: cannot reject in state %s", ErrInvalidState, cr.Status)
		}
		now := time.Now()
		cr.Status = model.CRStatusRejected
		cr.RejectedBy = parseActor(actorID)
		cr.RejectedAt = &now
		cr.RejectionReason = reason
		return nil
	})
}

// CompletePurchase closes the CR once every sub-order reached a
// terminal state.
func (s *lifecycleService) CompletePurchase(ctx context.Context, crID, actorID string) (ChangeRequestResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid change request id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		cr, lockErr := s.crRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("change request not found: %w", lockErr)
		}
		if cr.Status != model.CRStatusSplitToSubCRs {
			return fmt.Errorf("%w: expected split_to_sub_crs, got %s", ErrInvalidState, cr.Status)
		}

		children, listErr := s.poChildRepo.ListByChangeRequest(txCtx, id)
		if listErr != nil {
			return fmt.Errorf("failed to list sub-orders: %w", listErr)
		}
		for _, child := range children {
			if !child.Status.IsTerminal() {
				return fmt.Errorf("%w: %s is %s", ErrChildrenOutstanding, child.Suffix, child.Status)
			}
		}

		cr.Status = model.CRStatusPurchaseCompleted
		if saveErr := s.crRepo.Update(txCtx, cr); saveErr != nil {
			return fmt.Errorf("failed to update change request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, model.ActionCompletePurchase, cr, map[string]interface{}{
			"children": len(children),
		})
	})
	if err != nil {
		return ChangeRequestResponse{}, err
	}
	return s.Get(ctx, crID)
}

// --- Helpers ---

// transition runs one guarded mutation of a locked CR row plus its
// audit entry in a single transaction.
func (s *lifecycleService) transition(ctx context.Context, crID, actorID, action string, mutate func(*model.ChangeRequest) error) (ChangeRequestResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return ChangeRequestResponse{}, fmt.Errorf("invalid change request id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		cr, lockErr := s.crRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("change request not found: %w", lockErr)
		}

		before := cr.Status
		if mutErr := mutate(cr); mutErr != nil {
			return mutErr
		}

		if saveErr := s.crRepo.Update(txCtx, cr); saveErr != nil {
			return fmt.Errorf("failed to update change request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, action, cr, map[string]interface{}{
			"from": before,
			"to":   cr.Status,
		})
	})
	if err != nil {
		return ChangeRequestResponse{}, err
	}
	return s.Get(ctx, crID)
}

func (s *lifecycleService) audit(ctx context.Context, actorID, action string, cr *model.ChangeRequest, extra map[string]interface{}) error {
	details, _ := json.Marshal(extra)
	entry := &model.AuditLog{
		UserID:     parseActor(actorID),
		Action:     action,
		EntityID:   cr.ID.String(),
		EntityName: cr.PONumber(),
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toCRResponse(cr *model.ChangeRequest) ChangeRequestResponse {
	resp := ChangeRequestResponse{
		ID:                    cr.ID.String(),
		PONumber:              cr.PONumber(),
		ProjectID:             cr.ProjectID.String(),
		BOQItemRef:            cr.BOQItemRef,
		Status:                cr.Status,
		ApprovalRequiredFrom:  cr.ApprovalRequiredFrom,
		DeliveryRouting:       cr.DeliveryRouting,
		VendorSelectionStatus: cr.VendorSelectionStatus,
		RejectionReason:       cr.RejectionReason,
		Materials:             cr.Materials,
		RoutedMaterials:       cr.RoutedMaterials,
		CreatedAt:             cr.CreatedAt.Format(time.RFC3339),
	}
	if cr.SelectedVendor != nil {
		resp.SelectedVendor = cr.SelectedVendor.Name
	}
	return resp
}
