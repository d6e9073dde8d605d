package service

import (
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

func TestDecideRouting(t *testing.T) {
	price := decimal.NewFromInt(10)

	tests := []struct {
		name         string
		materials    []model.ChangeRequestMaterial
		wantApprover model.ApproverRole
		wantKind     RoutingKind
	}{
		{
			name:         "empty list defaults to buyer",
			materials:    nil,
			wantApprover: model.ApproverBuyer,
			wantKind:     RoutingKindExternalBuy,
		},
		{
			name: "all priced catalog materials go to buyer",
			materials: []model.ChangeRequestMaterial{
				{Name: "cement 42.5", UnitPrice: &price},
				{Name: "rebar 12mm", UnitPrice: &price},
			},
			wantApprover: model.ApproverBuyer,
			wantKind:     RoutingKindExternalBuy,
		},
		{
			name: "new material forces estimator",
			materials: []model.ChangeRequestMaterial{
				{Name: "cement 42.5", UnitPrice: &price},
				{Name: "custom cladding", UnitPrice: &price, IsNew: true},
			},
			wantApprover: model.ApproverEstimator,
			wantKind:     RoutingKindNewMaterials,
		},
		{
			name: "unpriced material forces estimator",
			materials: []model.ChangeRequestMaterial{
				{Name: "cement 42.5", UnitPrice: &price},
				{Name: "gravel 20mm"},
			},
			wantApprover: model.ApproverEstimator,
			wantKind:     RoutingKindNewMaterials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideRouting(tt.materials)
			if got.NextApprover != tt.wantApprover {
				t.Errorf("NextApprover = %s, want %s", got.NextApprover, tt.wantApprover)
			}
			if got.RoutingKind != tt.wantKind {
				t.Errorf("RoutingKind = %s, want %s", got.RoutingKind, tt.wantKind)
			}
		})
	}
}
