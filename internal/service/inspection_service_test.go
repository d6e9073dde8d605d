package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveInspectionStatus(t *testing.T) {
	tests := []struct {
		name  string
		lines []model.InspectionMaterial
		want  model.InspectionStatus
	}{
		{
			name:  "no lines",
			lines: nil,
			want:  model.InspectionPending,
		},
		{
			name: "nothing rejected",
			lines: []model.InspectionMaterial{
				{AcceptedQty: qty("10"), RejectedQty: qty("0")},
				{AcceptedQty: qty("5"), RejectedQty: qty("0")},
			},
			want: model.InspectionFullyApproved,
		},
		{
			name: "everything rejected",
			lines: []model.InspectionMaterial{
				{AcceptedQty: qty("0"), RejectedQty: qty("10")},
				{AcceptedQty: qty("0"), RejectedQty: qty("5")},
			},
			want: model.InspectionFullyRejected,
		},
		{
			name: "mixed verdict",
			lines: []model.InspectionMaterial{
				{AcceptedQty: qty("10"), RejectedQty: qty("0")},
				{AcceptedQty: qty("2"), RejectedQty: qty("3")},
			},
			want: model.InspectionPartiallyApproved,
		},
		{
			name: "partial within a single line",
			lines: []model.InspectionMaterial{
				{AcceptedQty: qty("7"), RejectedQty: qty("3")},
			},
			want: model.InspectionPartiallyApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveInspectionStatus(tt.lines); got != tt.want {
				t.Errorf("DeriveInspectionStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildInspectionLine(t *testing.T) {
	t.Run("valid line", func(t *testing.T) {
		line, err := buildInspectionLine(InspectionLineDTO{
			MaterialName:      "cement 42.5",
			OrderedQty:        "10",
			AcceptedQty:       "7",
			RejectedQty:       "3",
			Unit:              "bag",
			UnitPrice:         "25.5",
			RejectionCategory: string(model.RejectionQualityDefect),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !line.RejectedQty.Equal(qty("3")) {
			t.Errorf("RejectedQty = %s, want 3", line.RejectedQty)
		}
		if line.UnitPrice == nil || !line.UnitPrice.Equal(qty("25.5")) {
			t.Errorf("UnitPrice = %v, want 25.5", line.UnitPrice)
		}
	})

	t.Run("conservation violation", func(t *testing.T) {
		_, err := buildInspectionLine(InspectionLineDTO{
			MaterialName: "cement 42.5",
			OrderedQty:   "10",
			AcceptedQty:  "7",
			RejectedQty:  "2",
			Unit:         "bag",
		})
		if !errors.Is(err, ErrLineConservation) {
			t.Fatalf("error = %v, want ErrLineConservation", err)
		}
	})

	t.Run("rejection without category", func(t *testing.T) {
		_, err := buildInspectionLine(InspectionLineDTO{
			MaterialName: "cement 42.5",
			OrderedQty:   "10",
			AcceptedQty:  "7",
			RejectedQty:  "3",
			Unit:         "bag",
		})
		if err == nil {
			t.Fatal("expected error for missing rejection category")
		}
	})

	t.Run("negative accepted quantity", func(t *testing.T) {
		_, err := buildInspectionLine(InspectionLineDTO{
			MaterialName: "cement 42.5",
			OrderedQty:   "10",
			AcceptedQty:  "-1",
			RejectedQty:  "11",
			Unit:         "bag",
		})
		if err == nil {
			t.Fatal("expected error for negative accepted quantity")
		}
	})

	t.Run("zero ordered quantity", func(t *testing.T) {
		_, err := buildInspectionLine(InspectionLineDTO{
			MaterialName: "cement 42.5",
			OrderedQty:   "0",
			AcceptedQty:  "0",
			RejectedQty:  "0",
			Unit:         "bag",
		})
		if err == nil {
			t.Fatal("expected error for zero ordered quantity")
		}
	})
}

func TestRecordInspection(t *testing.T) {
	ctx := context.Background()
	crID := uuid.New()
	vendorID := uuid.New()
	childID := uuid.New()

	t.Run("vendor delivery with mixed verdict", func(t *testing.T) {
		var stored *model.VendorDeliveryInspection
		var storedLines []model.InspectionMaterial
		var childStatus model.POChildStatus

		inspRepo := &mockInspectionRepo{
			CreateFn: func(ctx context.Context, insp *model.VendorDeliveryInspection) error {
				insp.ID = uuid.New()
				stored = insp
				return nil
			},
			CreateLineFn: func(ctx context.Context, line *model.InspectionMaterial) error {
				storedLines = append(storedLines, *line)
				return nil
			},
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error) {
				cp := *stored
				cp.Lines = storedLines
				return &cp, nil
			},
		}
		crRepo := &mockCRRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return &model.ChangeRequest{ID: crID, CRNumber: 500}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.POChild, error) {
				return &model.POChild{ID: childID, RoutingType: model.RoutingVendor, Status: model.POChildStatusDispatched}, nil
			},
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status model.POChildStatus) error {
				childStatus = status
				return nil
			},
		}

		svc := NewInspectionService(inspRepo, crRepo, poChildRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		resp, err := svc.Record(ctx, uuid.NewString(), RecordInspectionDTO{
			ChangeRequestID: crID.String(),
			POChildID:       childID.String(),
			VendorID:        vendorID.String(),
			Lines: []InspectionLineDTO{
				{MaterialName: "cement 42.5", OrderedQty: "10", AcceptedQty: "10", RejectedQty: "0", Unit: "bag"},
				{MaterialName: "rebar 12mm", OrderedQty: "20", AcceptedQty: "15", RejectedQty: "5", Unit: "pcs",
					UnitPrice: "4", RejectionCategory: string(model.RejectionDamagedInTransit)},
			},
		})
		if err != nil {
			t.Fatalf("Record() error: %v", err)
		}
		if resp.Status != model.InspectionPartiallyApproved {
			t.Errorf("Status = %s, want partially_approved", resp.Status)
		}
		if resp.IterationNumber != 0 {
			t.Errorf("IterationNumber = %d, want 0", resp.IterationNumber)
		}
		if len(storedLines) != 2 {
			t.Errorf("stored %d lines, want 2", len(storedLines))
		}
		if childStatus != model.POChildStatusDelivered {
			t.Errorf("sub-order status = %s, want delivered", childStatus)
		}
	})

	t.Run("store sub-order is not inspectable", func(t *testing.T) {
		crRepo := &mockCRRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return &model.ChangeRequest{ID: crID, CRNumber: 500}, nil
			},
		}
		poChildRepo := &mockPOChildRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.POChild, error) {
				return &model.POChild{ID: childID, RoutingType: model.RoutingStore}, nil
			},
		}

		svc := NewInspectionService(&mockInspectionRepo{}, crRepo, poChildRepo, &mockAuditRepo{}, &mockTxManager{}, nil)

		_, err := svc.Record(ctx, uuid.NewString(), RecordInspectionDTO{
			ChangeRequestID: crID.String(),
			POChildID:       childID.String(),
			VendorID:        vendorID.String(),
			Lines: []InspectionLineDTO{
				{MaterialName: "cement 42.5", OrderedQty: "10", AcceptedQty: "10", RejectedQty: "0", Unit: "bag"},
			},
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("replacement inherits iteration from parent", func(t *testing.T) {
		parentID := uuid.New()
		var stored *model.VendorDeliveryInspection

		inspRepo := &mockInspectionRepo{
			CreateFn: func(ctx context.Context, insp *model.VendorDeliveryInspection) error {
				insp.ID = uuid.New()
				stored = insp
				return nil
			},
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.VendorDeliveryInspection, error) {
				if id == parentID {
					return &model.VendorDeliveryInspection{ID: parentID, IterationNumber: 1}, nil
				}
				return stored, nil
			},
		}
		crRepo := &mockCRRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
				return &model.ChangeRequest{ID: crID, CRNumber: 500}, nil
			},
		}

		svc := NewInspectionService(inspRepo, crRepo, &mockPOChildRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil)

		resp, err := svc.Record(ctx, uuid.NewString(), RecordInspectionDTO{
			ChangeRequestID:    crID.String(),
			VendorID:           vendorID.String(),
			ParentInspectionID: parentID.String(),
			Lines: []InspectionLineDTO{
				{MaterialName: "cement 42.5", OrderedQty: "10", AcceptedQty: "10", RejectedQty: "0", Unit: "bag"},
			},
		})
		if err != nil {
			t.Fatalf("Record() error: %v", err)
		}
		if resp.IterationNumber != 2 {
			t.Errorf("IterationNumber = %d, want 2", resp.IterationNumber)
		}
	})
}
