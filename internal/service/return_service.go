package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateReturnRequestDTO struct {
	InspectionID   string               `json:"inspection_id" binding:"required"`
	ResolutionType model.ResolutionType `json:"resolution_type" binding:"required,oneof=refund replacement new_vendor"`
	NewVendorID    string               `json:"new_vendor_id"` // required for new_vendor
}

type SettleRefundDTO struct {
	CreditNoteRef    string `json:"credit_note_ref"`
	LPOAdjustmentRef string `json:"lpo_adjustment_ref"`
}

type ReturnRequestResponse struct {
	ID              string                        `json:"id"`
	InspectionID    string                        `json:"inspection_id"`
	ChangeRequestID string                        `json:"change_request_id"`
	VendorID        string                        `json:"vendor_id"`
	ResolutionType  model.ResolutionType          `json:"resolution_type"`
	Status          model.ReturnStatus            `json:"status"`
	TotalValue      string                        `json:"total_value"`
	NewVendorID     *string                       `json:"new_vendor_id,omitempty"`
	NewVendorStatus model.NewVendorStatus         `json:"new_vendor_status,omitempty"`
	IterationSuffix string                        `json:"iteration_suffix,omitempty"`
	Materials       []model.ReturnRequestMaterial `json:"materials"`
	TDDecidedAt     *string                       `json:"td_decided_at,omitempty"`
}

// --- Interface ---

// ReturnService drives the return & resolution workflow for rejected
// delivery materials: TD approval, the physical return, and one of the
// three resolutions (refund, replacement, new vendor).
type ReturnService interface {
	Create(ctx context.Context, actorID string, req CreateReturnRequestDTO) (ReturnRequestResponse, error)
	Get(ctx context.Context, id string) (ReturnRequestResponse, error)
	ListByChangeRequest(ctx context.Context, crID string) ([]ReturnRequestResponse, error)
	TDDecide(ctx context.Context, returnID, actorID string, approve bool, reason string) (ReturnRequestResponse, error)
	MarkReturnInProgress(ctx context.Context, returnID, actorID string) (ReturnRequestResponse, error)
	MarkReturnedToVendor(ctx context.Context, returnID, actorID string) (ReturnRequestResponse, error)
	SettleRefund(ctx context.Context, returnID, actorID string, req SettleRefundDTO) (ReturnRequestResponse, error)
	RecordReplacementDelivery(ctx context.Context, returnID, actorID string, lines []InspectionLineDTO) (ReturnRequestResponse, error)
	TDDecideNewVendor(ctx context.Context, returnID, actorID string, approve bool) (ReturnRequestResponse, error)
}

type returnService struct {
	returnRepo  repository.ReturnRepository
	inspRepo    repository.InspectionRepository
	iterRepo    repository.IterationRepository
	crRepo      repository.ChangeRequestRepository
	poChildRepo repository.POChildRepository
	vendorRepo  repository.VendorRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	inspRepo repository.InspectionRepository,
	iterRepo repository.IterationRepository,
	crRepo repository.ChangeRequestRepository,
	poChildRepo repository.POChildRepository,
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ReturnService {
	return &returnService{
		returnRepo:  returnRepo,
		inspRepo:    inspRepo,
		iterRepo:    iterRepo,
		crRepo:      crRepo,
		poChildRepo: poChildRepo,
		vendorRepo:  vendorRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

// Create snapshots the inspection's rejected lines into a new return
// request awaiting TD approval. The snapshot and its total value never
// change afterwards; disputes open a fresh request.
func (s *returnService) Create(ctx context.Context, actorID string, req CreateReturnRequestDTO) (ReturnRequestResponse, error) {
	inspID, err := uuid.Parse(req.InspectionID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid inspection id: %w", err)
	}

	var newVendorID *uuid.UUID
	if req.ResolutionType == model.ResolutionNewVendor {
		parsed, parseErr := uuid.Parse(req.NewVendorID)
		if parseErr != nil {
			return ReturnRequestResponse{}, fmt.Errorf("new_vendor resolution requires a new_vendor_id: %w", parseErr)
		}
		newVendorID = &parsed
	} else if req.NewVendorID != "" {
		return ReturnRequestResponse{}, fmt.Errorf("%w: new_vendor_id only valid for new_vendor resolution", ErrInvalidResolution)
	}

	var ret model.VendorReturnRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		insp, findErr := s.inspRepo.FindByID(txCtx, inspID)
		if findErr != nil {
			return fmt.Errorf("inspection not found: %w", findErr)
		}
		if insp.Status == model.InspectionFullyApproved || insp.Status == model.InspectionPending {
			return fmt.Errorf("%w", ErrNoRejectedMaterials)
		}

		if newVendorID != nil {
			if _, vendErr := s.vendorRepo.FindByID(txCtx, *newVendorID); vendErr != nil {
				return fmt.Errorf("replacement vendor not found: %w", vendErr)
			}
		}

		total := decimal.Zero
		var snapshot []model.ReturnRequestMaterial
		for _, l := range insp.Lines {
			if !l.RejectedQty.IsPositive() {
				continue
			}
			price := decimal.Zero
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			value := l.RejectedQty.Mul(price)
			total = total.Add(value)
			snapshot = append(snapshot, model.ReturnRequestMaterial{
				MaterialName: l.MaterialName,
				RejectedQty:  l.RejectedQty,
				Unit:         l.Unit,
				UnitPrice:    price,
				LineValue:    value,
				Category:     l.RejectionCategory,
			})
		}
		if len(snapshot) == 0 {
			return ErrNoRejectedMaterials
		}

		ret = model.VendorReturnRequest{
			InspectionID:    insp.ID,
			ChangeRequestID: insp.ChangeRequestID,
			VendorID:        insp.VendorID,
			ResolutionType:  req.ResolutionType,
			Status:          model.ReturnPendingTDApproval,
			TotalValue:      total,
			NewVendorID:     newVendorID,
			CreatedBy:       parseActor(actorID),
		}
		if req.ResolutionType == model.ResolutionNewVendor {
			ret.NewVendorStatus = model.NewVendorPendingTDApproval
		}
		if createErr := s.returnRepo.Create(txCtx, &ret); createErr != nil {
			return fmt.Errorf("failed to create return request: %w", createErr)
		}

		for i := range snapshot {
			snapshot[i].ReturnRequestID = ret.ID
			if matErr := s.returnRepo.CreateMaterial(txCtx, &snapshot[i]); matErr != nil {
				return fmt.Errorf("failed to snapshot rejected material: %w", matErr)
			}
		}

		return s.audit(txCtx, actorID, model.ActionCreateReturnReq, &ret, map[string]interface{}{
			"resolution_type": req.ResolutionType,
			"total_value":     total.StringFixed(4),
			"materials":       len(snapshot),
		})
	})
	if err != nil {
		return ReturnRequestResponse{}, err
	}
	return s.Get(ctx, ret.ID.String())
}

// TDDecide records the Technical Director's single irreversible
// decision. Retrying the same decision is a no-op returning the current
// state; a conflicting retry is an error.
func (s *returnService) TDDecide(ctx context.Context, returnID, actorID string, approve bool, reason string) (ReturnRequestResponse, error) {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid return request id: %w", err)
	}

	var spawned *model.InspectionIteration
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, lockErr := s.returnRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("return request not found: %w", lockErr)
		}

		if ret.Status != model.ReturnPendingTDApproval {
			// Idempotent retry of an identical decision.
			if approve && ret.Status != model.ReturnTDRejected {
				return nil
			}
			if !approve && ret.Status == model.ReturnTDRejected {
				return nil
			}
			return fmt.Errorf("%w: return request is %s", ErrAlreadyDecided, ret.Status)
		}

		now := time.Now()
		ret.TDDecidedBy = parseActor(actorID)
		ret.TDDecidedAt = &now

		if !approve {
			ret.Status = model.ReturnTDRejected
			ret.TDRejectionReason = reason
			if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
				return fmt.Errorf("failed to update return request: %w", saveErr)
			}
			return s.audit(txCtx, actorID, model.ActionTDDecideReturn, ret, map[string]interface{}{
				"decision": "rejected",
				"reason":   reason,
			})
		}

		ret.Status = model.ReturnTDApproved

		// Allocate the iteration node in the same transaction as the
		// approval so a crash can't leave an orphaned suffix.
		node, iterErr := s.spawnIteration(txCtx, ret)
		if iterErr != nil {
			return iterErr
		}
		ret.IterationID = &node.ID
		spawned = node

		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update return request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, model.ActionTDDecideReturn, ret, map[string]interface{}{
			"decision":         "approved",
			"iteration_suffix": node.Suffix,
		})
	})
	if err != nil {
		return ReturnRequestResponse{}, err
	}

	if spawned != nil {
		publishEvent(s.hub, EventIterationSpawned, map[string]interface{}{
			"change_request_id": spawned.ChangeRequestID.String(),
			"iteration_suffix":  spawned.Suffix,
			"return_request_id": returnID,
		})
	}
	return s.Get(ctx, returnID)
}

func (s *returnService) MarkReturnInProgress(ctx context.Context, returnID, actorID string) (ReturnRequestResponse, error) {
	return s.transition(ctx, returnID, actorID, func(ret *model.VendorReturnRequest) error {
		if ret.Status != model.ReturnTDApproved {
			return fmt.Errorf("%w: expected td_approved, got %s", ErrReturnNotActionable, ret.Status)
		}
		ret.Status = model.ReturnInProgress
		return nil
	})
}

// MarkReturnedToVendor confirms the vendor took the rejected materials
// back and advances into the resolution-specific pending state.
func (s *returnService) MarkReturnedToVendor(ctx context.Context, returnID, actorID string) (ReturnRequestResponse, error) {
	return s.transition(ctx, returnID, actorID, func(ret *model.VendorReturnRequest) error {
		if ret.Status != model.ReturnInProgress {
			return fmt.Errorf("%w: expected return_in_progress, got %s", ErrReturnNotActionable, ret.Status)
		}
		ret.Status = model.ReturnReturnedToVendor
		switch ret.ResolutionType {
		case model.ResolutionRefund:
			ret.Status = model.ReturnRefundPending
		case model.ResolutionReplacement:
			ret.Status = model.ReturnReplacementPending
		case model.ResolutionNewVendor:
			// stays returned_to_vendor until the new vendor is TD-approved
		}
		return nil
	})
}

func (s *returnService) SettleRefund(ctx context.Context, returnID, actorID string, req SettleRefundDTO) (ReturnRequestResponse, error) {
	resp, err := s.transition(ctx, returnID, actorID, func(ret *model.VendorReturnRequest) error {
		if ret.ResolutionType != model.ResolutionRefund {
			return fmt.Errorf("%w: resolution is %s", ErrInvalidResolution, ret.ResolutionType)
		}
		if ret.Status != model.ReturnRefundPending {
			return fmt.Errorf("%w: expected refund_pending, got %s", ErrReturnNotActionable, ret.Status)
		}
		ret.Status = model.ReturnRefundReceived
		ret.CreditNoteRef = req.CreditNoteRef
		ret.LPOAdjustmentRef = req.LPOAdjustmentRef
		return nil
	})
	if err != nil {
		return resp, err
	}
	publishEvent(s.hub, EventReturnResolved, map[string]interface{}{
		"return_request_id": returnID,
		"resolution":        model.ResolutionRefund,
	})
	return resp, nil
}

// RecordReplacementDelivery closes a replacement resolution: the new
// delivery is inspected as its own iteration, linked to the original
// inspection, all in one transaction.
func (s *returnService) RecordReplacementDelivery(ctx context.Context, returnID, actorID string, lineDTOs []InspectionLineDTO) (ReturnRequestResponse, error) {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid return request id: %w", err)
	}
	if len(lineDTOs) == 0 {
		return ReturnRequestResponse{}, ErrEmptyMaterialList
	}

	lines := make([]model.InspectionMaterial, 0, len(lineDTOs))
	for _, l := range lineDTOs {
		line, lineErr := buildInspectionLine(l)
		if lineErr != nil {
			return ReturnRequestResponse{}, lineErr
		}
		lines = append(lines, line)
	}

	var newInsp model.VendorDeliveryInspection
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, lockErr := s.returnRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("return request not found: %w", lockErr)
		}
		if ret.ResolutionType != model.ResolutionReplacement {
			return fmt.Errorf("%w: resolution is %s", ErrInvalidResolution, ret.ResolutionType)
		}
		if ret.Status != model.ReturnReplacementPending {
			return fmt.Errorf("%w: expected replacement_pending, got %s", ErrReturnNotActionable, ret.Status)
		}

		parent, parentErr := s.inspRepo.FindByID(txCtx, ret.InspectionID)
		if parentErr != nil {
			return fmt.Errorf("original inspection not found: %w", parentErr)
		}

		parentID := parent.ID
		newInsp = model.VendorDeliveryInspection{
			ChangeRequestID:    ret.ChangeRequestID,
			POChildID:          parent.POChildID,
			VendorID:           ret.VendorID,
			Status:             DeriveInspectionStatus(lines),
			IterationNumber:    parent.IterationNumber + 1,
			ParentInspectionID: &parentID,
			InspectedBy:        parseActor(actorID),
		}
		if createErr := s.inspRepo.Create(txCtx, &newInsp); createErr != nil {
			return fmt.Errorf("failed to create replacement inspection: %w", createErr)
		}
		for i := range lines {
			lines[i].InspectionID = newInsp.ID
			if lineErr := s.inspRepo.CreateLine(txCtx, &lines[i]); lineErr != nil {
				return fmt.Errorf("failed to create inspection line: %w", lineErr)
			}
		}

		ret.Status = model.ReturnReplacementDelivered
		ret.ReplacementInspectionID = &newInsp.ID
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update return request: %w", saveErr)
		}

		return s.audit(txCtx, actorID, model.ActionResolveReturn, ret, map[string]interface{}{
			"resolution":     model.ResolutionReplacement,
			"inspection_id":  newInsp.ID.String(),
			"new_iteration":  newInsp.IterationNumber,
			"verdict":        newInsp.Status,
		})
	})
	if err != nil {
		return ReturnRequestResponse{}, err
	}

	publishEvent(s.hub, EventReturnResolved, map[string]interface{}{
		"return_request_id": returnID,
		"resolution":        model.ResolutionReplacement,
		"inspection_id":     newInsp.ID.String(),
	})
	publishEvent(s.hub, EventInspectionRecorded, map[string]interface{}{
		"inspection_id":     newInsp.ID.String(),
		"change_request_id": newInsp.ChangeRequestID.String(),
		"status":            newInsp.Status,
		"iteration_number":  newInsp.IterationNumber,
	})
	return s.Get(ctx, returnID)
}

// TDDecideNewVendor approves or rejects the replacement vendor of a
// new_vendor resolution. Approval issues a fresh vendor sub-order.
func (s *returnService) TDDecideNewVendor(ctx context.Context, returnID, actorID string, approve bool) (ReturnRequestResponse, error) {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid return request id: %w", err)
	}

	var issued *model.POChild
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, lockErr := s.returnRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("return request not found: %w", lockErr)
		}
		if ret.ResolutionType != model.ResolutionNewVendor {
			return fmt.Errorf("%w: resolution is %s", ErrInvalidResolution, ret.ResolutionType)
		}
		if ret.Status != model.ReturnReturnedToVendor {
			return fmt.Errorf("%w: expected returned_to_vendor, got %s", ErrReturnNotActionable, ret.Status)
		}
		if ret.NewVendorStatus != model.NewVendorPendingTDApproval {
			return fmt.Errorf("%w: new vendor is %s", ErrAlreadyDecided, ret.NewVendorStatus)
		}

		if !approve {
			ret.NewVendorStatus = model.NewVendorRejected
			if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
				return fmt.Errorf("failed to update return request: %w", saveErr)
			}
			return s.audit(txCtx, actorID, model.ActionTDDecideReturn, ret, map[string]interface{}{
				"decision": "new_vendor_rejected",
			})
		}

		ret.NewVendorStatus = model.NewVendorApproved

		// Issue a fresh sub-order to the replacement vendor carrying
		// the returned materials.
		materials, matErr := s.returnMaterials(txCtx, ret)
		if matErr != nil {
			return matErr
		}
		suffix, sufErr := s.poChildRepo.NextSuffix(txCtx, ret.ChangeRequestID)
		if sufErr != nil {
			return fmt.Errorf("failed to allocate sub-order suffix: %w", sufErr)
		}
		child := &model.POChild{
			ChangeRequestID:       ret.ChangeRequestID,
			Suffix:                suffix,
			RoutingType:           model.RoutingVendor,
			VendorID:              ret.NewVendorID,
			VendorSelectionStatus: model.VendorSelectionApproved,
			Status:                model.POChildStatusOpen,
			CreatedBy:             parseActor(actorID),
		}
		if createErr := s.poChildRepo.Create(txCtx, child); createErr != nil {
			return fmt.Errorf("failed to create sub-order: %w", createErr)
		}
		for _, m := range materials {
			price := m.UnitPrice
			if matCreateErr := s.poChildRepo.CreateMaterial(txCtx, &model.POChildMaterial{
				POChildID:    child.ID,
				MaterialName: m.MaterialName,
				Quantity:     m.RejectedQty,
				Unit:         m.Unit,
				UnitPrice:    &price,
			}); matCreateErr != nil {
				return fmt.Errorf("failed to add material to sub-order: %w", matCreateErr)
			}
		}
		issued = child

		if ret.IterationID != nil {
			node, nodeErr := s.iterRepo.FindByID(txCtx, *ret.IterationID)
			if nodeErr == nil {
				node.POChildID = &child.ID
				node.VendorID = ret.NewVendorID
				if updErr := s.iterRepo.Update(txCtx, node); updErr != nil {
					return fmt.Errorf("failed to link iteration node: %w", updErr)
				}
			}
		}

		ret.Status = model.ReturnNewPOIssued
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update return request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, model.ActionResolveReturn, ret, map[string]interface{}{
			"resolution": model.ResolutionNewVendor,
			"po_child":   child.Suffix,
		})
	})
	if err != nil {
		return ReturnRequestResponse{}, err
	}

	if issued != nil {
		publishEvent(s.hub, EventReturnResolved, map[string]interface{}{
			"return_request_id": returnID,
			"resolution":        model.ResolutionNewVendor,
			"po_child_id":       issued.ID.String(),
		})
	}
	return s.Get(ctx, returnID)
}

func (s *returnService) Get(ctx context.Context, id string) (ReturnRequestResponse, error) {
	retID, err := uuid.Parse(id)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid return request id: %w", err)
	}
	ret, err := s.returnRepo.FindByID(ctx, retID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("return request not found: %w", err)
	}

	resp := toReturnResponse(ret)
	if ret.IterationID != nil {
		if node, nodeErr := s.iterRepo.FindByID(ctx, *ret.IterationID); nodeErr == nil {
			resp.IterationSuffix = node.Suffix
		}
	}
	return resp, nil
}

func (s *returnService) ListByChangeRequest(ctx context.Context, crID string) ([]ReturnRequestResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return nil, fmt.Errorf("invalid change request id: %w", err)
	}
	list, err := s.returnRepo.ListByChangeRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	res := make([]ReturnRequestResponse, 0, len(list))
	for i := range list {
		res = append(res, toReturnResponse(&list[i]))
	}
	return res, nil
}

// --- Helpers ---

// spawnIteration allocates the next suffix node for an approved return.
// The parent node, when the rejected inspection was itself a re-attempt
// delivery, is the node spawned from that delivery's parent inspection.
func (s *returnService) spawnIteration(ctx context.Context, ret *model.VendorReturnRequest) (*model.InspectionIteration, error) {
	insp, err := s.inspRepo.FindByID(ctx, ret.InspectionID)
	if err != nil {
		return nil, fmt.Errorf("inspection not found: %w", err)
	}

	var parentNodeID *uuid.UUID
	if insp.ParentInspectionID != nil {
		parent, lookupErr := s.iterRepo.FindBySpawningInspection(ctx, *insp.ParentInspectionID)
		if lookupErr != nil && !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parent iteration lookup failed: %w", lookupErr)
		}
		if lookupErr == nil {
			parentNodeID = &parent.ID
		}
	}

	vendorID := ret.VendorID
	if ret.ResolutionType == model.ResolutionNewVendor && ret.NewVendorID != nil {
		vendorID = *ret.NewVendorID
	}

	node := &model.InspectionIteration{
		ChangeRequestID:   ret.ChangeRequestID,
		ParentIterationID: parentNodeID,
		InspectionID:      &ret.InspectionID,
		ReturnRequestID:   &ret.ID,
		VendorID:          &vendorID,
	}
	if err := s.iterRepo.Allocate(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to allocate iteration: %w", err)
	}
	return node, nil
}

func (s *returnService) returnMaterials(ctx context.Context, ret *model.VendorReturnRequest) ([]model.ReturnRequestMaterial, error) {
	full, err := s.returnRepo.FindByID(ctx, ret.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load return materials: %w", err)
	}
	return full.Materials, nil
}

func (s *returnService) transition(ctx context.Context, returnID, actorID string, mutate func(*model.VendorReturnRequest) error) (ReturnRequestResponse, error) {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return ReturnRequestResponse{}, fmt.Errorf("invalid return request id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, lockErr := s.returnRepo.FindByIDForUpdate(txCtx, id)
		if lockErr != nil {
			return fmt.Errorf("return request not found: %w", lockErr)
		}

		before := ret.Status
		if mutErr := mutate(ret); mutErr != nil {
			return mutErr
		}
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update return request: %w", saveErr)
		}
		return s.audit(txCtx, actorID, model.ActionResolveReturn, ret, map[string]interface{}{
			"from": before,
			"to":   ret.Status,
		})
	})
	if err != nil {
		return ReturnRequestResponse{}, err
	}
	return s.Get(ctx, returnID)
}

func (s *returnService) audit(ctx context.Context, actorID, action string, ret *model.VendorReturnRequest, extra map[string]interface{}) error {
	details, _ := json.Marshal(extra)
	entry := &model.AuditLog{
		UserID:     parseActor(actorID),
		Action:     action,
		EntityID:   ret.ID.String(),
		EntityName: string(ret.ResolutionType),
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toReturnResponse(ret *model.VendorReturnRequest) ReturnRequestResponse {
	resp := ReturnRequestResponse{
		ID:              ret.ID.String(),
		InspectionID:    ret.InspectionID.String(),
		ChangeRequestID: ret.ChangeRequestID.String(),
		VendorID:        ret.VendorID.String(),
		ResolutionType:  ret.ResolutionType,
		Status:          ret.Status,
		TotalValue:      ret.TotalValue.StringFixed(4),
		NewVendorStatus: ret.NewVendorStatus,
		Materials:       ret.Materials,
	}
	if ret.NewVendorID != nil {
		v := ret.NewVendorID.String()
		resp.NewVendorID = &v
	}
	if ret.TDDecidedAt != nil {
		v := ret.TDDecidedAt.Format(time.RFC3339)
		resp.TDDecidedAt = &v
	}
	return resp
}
