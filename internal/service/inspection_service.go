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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type InspectionLineDTO struct {
	MaterialName      string `json:"material_name" binding:"required"`
	OrderedQty        string `json:"ordered_qty" binding:"required"`
	AcceptedQty       string `json:"accepted_qty" binding:"required"`
	RejectedQty       string `json:"rejected_qty" binding:"required"`
	Unit              string `json:"unit" binding:"required"`
	UnitPrice         string `json:"unit_price"`
	RejectionCategory string `json:"rejection_category"`
	EvidenceRefs      []string `json:"evidence_refs"`
}

type RecordInspectionDTO struct {
	ChangeRequestID    string              `json:"change_request_id" binding:"required"`
	POChildID          string              `json:"po_child_id"`
	VendorID           string              `json:"vendor_id" binding:"required"`
	ParentInspectionID string              `json:"parent_inspection_id"`
	Lines              []InspectionLineDTO `json:"lines" binding:"required,min=1,dive"`
	Notes              string              `json:"notes"`
}

type InspectionResponse struct {
	ID              string                     `json:"id"`
	ChangeRequestID string                     `json:"change_request_id"`
	POChildID       *string                    `json:"po_child_id,omitempty"`
	VendorID        string                     `json:"vendor_id"`
	Status          model.InspectionStatus     `json:"status"`
	IterationNumber int                        `json:"iteration_number"`
	ParentID        *string                    `json:"parent_inspection_id,omitempty"`
	Lines           []model.InspectionMaterial `json:"lines"`
	RejectedLines   int                        `json:"rejected_lines"`
	Notes           string                     `json:"notes,omitempty"`
}

// --- Interface ---

// InspectionService records PM accept/reject decisions over vendor
// deliveries. Writes are all-or-nothing: an invalid line rejects the
// whole call with nothing persisted.
type InspectionService interface {
	Record(ctx context.Context, actorID string, req RecordInspectionDTO) (InspectionResponse, error)
	Get(ctx context.Context, id string) (InspectionResponse, error)
	ListByChangeRequest(ctx context.Context, crID string) ([]InspectionResponse, error)
}

type inspectionService struct {
	inspRepo    repository.InspectionRepository
	crRepo      repository.ChangeRequestRepository
	poChildRepo repository.POChildRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewInspectionService(
	inspRepo repository.InspectionRepository,
	crRepo repository.ChangeRequestRepository,
	poChildRepo repository.POChildRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InspectionService {
	return &inspectionService{
		inspRepo:    inspRepo,
		crRepo:      crRepo,
		poChildRepo: poChildRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// DeriveInspectionStatus computes the overall verdict from the lines:
// fully_rejected iff every line is fully rejected, fully_approved iff
// nothing was rejected, partially_approved otherwise.
func DeriveInspectionStatus(lines []model.InspectionMaterial) model.InspectionStatus {
	if len(lines) == 0 {
		return model.InspectionPending
	}
	anyRejected := false
	allFullyRejected := true
	for _, l := range lines {
		if l.RejectedQty.IsPositive() {
			anyRejected = true
		}
		if l.AcceptedQty.IsPositive() {
			allFullyRejected = false
		}
	}
	switch {
	case !anyRejected:
		return model.InspectionFullyApproved
	case allFullyRejected:
		return model.InspectionFullyRejected
	default:
		return model.InspectionPartiallyApproved
	}
}

// --- Implementation ---

func (s *inspectionService) Record(ctx context.Context, actorID string, req RecordInspectionDTO) (InspectionResponse, error) {
	crID, err := uuid.Parse(req.ChangeRequestID)
	if err != nil {
		return InspectionResponse{}, fmt.Errorf("invalid change request id: %w", err)
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return InspectionResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}

	var poChildID *uuid.UUID
	if req.POChildID != "" {
		parsed, parseErr := uuid.Parse(req.POChildID)
		if parseErr != nil {
			return InspectionResponse{}, fmt.Errorf("invalid po child id: %w", parseErr)
		}
		poChildID = &parsed
	}
	var parentID *uuid.UUID
	if req.ParentInspectionID != "" {
		parsed, parseErr := uuid.Parse(req.ParentInspectionID)
		if parseErr != nil {
			return InspectionResponse{}, fmt.Errorf("invalid parent inspection id: %w", parseErr)
		}
		parentID = &parsed
	}

	// Validate every line before touching the database.
	lines := make([]model.InspectionMaterial, 0, len(req.Lines))
	for _, l := range req.Lines {
		line, lineErr := buildInspectionLine(l)
		if lineErr != nil {
			return InspectionResponse{}, lineErr
		}
		lines = append(lines, line)
	}

	var insp model.VendorDeliveryInspection
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		cr, findErr := s.crRepo.FindByID(txCtx, crID)
		if findErr != nil {
			return fmt.Errorf("change request not found: %w", findErr)
		}

		if poChildID != nil {
			child, childErr := s.poChildRepo.FindByID(txCtx, *poChildID)
			if childErr != nil {
				return fmt.Errorf("sub-order not found: %w", childErr)
			}
			if child.RoutingType != model.RoutingVendor {
				return fmt.Errorf("%w: store sub-orders are not inspected", ErrInvalidState)
			}
		}

		iteration := 0
		if parentID != nil {
			parent, parentErr := s.inspRepo.FindByID(txCtx, *parentID)
			if parentErr != nil {
				if errors.Is(parentErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: parent inspection missing", ErrInvalidState)
				}
				return parentErr
			}
			iteration = parent.IterationNumber + 1
		}

		insp = model.VendorDeliveryInspection{
			ChangeRequestID:    crID,
			POChildID:          poChildID,
			VendorID:           vendorID,
			Status:             DeriveInspectionStatus(lines),
			IterationNumber:    iteration,
			ParentInspectionID: parentID,
			InspectedBy:        parseActor(actorID),
			Notes:              req.Notes,
		}
		if createErr := s.inspRepo.Create(txCtx, &insp); createErr != nil {
			return fmt.Errorf("failed to create inspection: %w", createErr)
		}

		for i := range lines {
			lines[i].InspectionID = insp.ID
			if lineErr := s.inspRepo.CreateLine(txCtx, &lines[i]); lineErr != nil {
				return fmt.Errorf("failed to create inspection line: %w", lineErr)
			}
		}

		if poChildID != nil {
			if updErr := s.poChildRepo.UpdateStatus(txCtx, *poChildID, model.POChildStatusDelivered); updErr != nil {
				return fmt.Errorf("failed to update sub-order status: %w", updErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"status":    insp.Status,
			"iteration": iteration,
			"lines":     len(lines),
		})
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionRecordInspect,
			EntityID:   insp.ID.String(),
			EntityName: cr.PONumber(),
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return InspectionResponse{}, err
	}

	publishEvent(s.hub, EventInspectionRecorded, map[string]interface{}{
		"inspection_id":     insp.ID.String(),
		"change_request_id": req.ChangeRequestID,
		"status":            insp.Status,
		"iteration_number":  insp.IterationNumber,
	})

	return s.Get(ctx, insp.ID.String())
}

func (s *inspectionService) Get(ctx context.Context, id string) (InspectionResponse, error) {
	inspID, err := uuid.Parse(id)
	if err != nil {
		return InspectionResponse{}, fmt.Errorf("invalid inspection id: %w", err)
	}
	insp, err := s.inspRepo.FindByID(ctx, inspID)
	if err != nil {
		return InspectionResponse{}, fmt.Errorf("inspection not found: %w", err)
	}
	return toInspectionResponse(insp), nil
}

func (s *inspectionService) ListByChangeRequest(ctx context.Context, crID string) ([]InspectionResponse, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return nil, fmt.Errorf("invalid change request id: %w", err)
	}
	list, err := s.inspRepo.ListByChangeRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	res := make([]InspectionResponse, 0, len(list))
	for i := range list {
		res = append(res, toInspectionResponse(&list[i]))
	}
	return res, nil
}

// --- Helpers ---

// buildInspectionLine validates one DTO line and enforces the
// conservation invariant accepted + rejected == ordered.
func buildInspectionLine(l InspectionLineDTO) (model.InspectionMaterial, error) {
	ordered, err := decimal.NewFromString(l.OrderedQty)
	if err != nil || ordered.LessThanOrEqual(decimal.Zero) {
		return model.InspectionMaterial{}, fmt.Errorf("invalid ordered_qty for %s", l.MaterialName)
	}
	accepted, err := decimal.NewFromString(l.AcceptedQty)
	if err != nil || accepted.IsNegative() {
		return model.InspectionMaterial{}, fmt.Errorf("invalid accepted_qty for %s", l.MaterialName)
	}
	rejected, err := decimal.NewFromString(l.RejectedQty)
	if err != nil || rejected.IsNegative() {
		return model.InspectionMaterial{}, fmt.Errorf("invalid rejected_qty for %s", l.MaterialName)
	}
	if !accepted.Add(rejected).Equal(ordered) {
		return model.InspectionMaterial{}, fmt.Errorf("%w: %s", ErrLineConservation, l.MaterialName)
	}
	if rejected.IsPositive() && l.RejectionCategory == "" {
		return model.InspectionMaterial{}, fmt.Errorf("rejection_category required for %s", l.MaterialName)
	}

	line := model.InspectionMaterial{
		MaterialName:      l.MaterialName,
		OrderedQty:        ordered,
		AcceptedQty:       accepted,
		RejectedQty:       rejected,
		Unit:              l.Unit,
		RejectionCategory: model.RejectionCategory(l.RejectionCategory),
	}
	if l.UnitPrice != "" {
		price, priceErr := decimal.NewFromString(l.UnitPrice)
		if priceErr != nil {
			return model.InspectionMaterial{}, fmt.Errorf("invalid unit_price for %s", l.MaterialName)
		}
		line.UnitPrice = &price
	}
	if len(l.EvidenceRefs) > 0 {
		refs, _ := json.Marshal(l.EvidenceRefs)
		line.EvidenceRefs = string(refs)
	}
	return line, nil
}

func toInspectionResponse(insp *model.VendorDeliveryInspection) InspectionResponse {
	resp := InspectionResponse{
		ID:              insp.ID.String(),
		ChangeRequestID: insp.ChangeRequestID.String(),
		VendorID:        insp.VendorID.String(),
		Status:          insp.Status,
		IterationNumber: insp.IterationNumber,
		Lines:           insp.Lines,
		Notes:           insp.Notes,
	}
	if insp.POChildID != nil {
		v := insp.POChildID.String()
		resp.POChildID = &v
	}
	if insp.ParentInspectionID != nil {
		v := insp.ParentInspectionID.String()
		resp.ParentID = &v
	}
	for _, l := range insp.Lines {
		if l.RejectedQty.IsPositive() {
			resp.RejectedLines++
		}
	}
	return resp
}
