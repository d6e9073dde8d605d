package service

import (
	"log"

	"backend/internal/model"
)

// RoutingDecision is what the routing policy returns for a submitted CR:
// which role approves next and how procurement proceeds.
type RoutingDecision struct {
	NextApprover model.ApproverRole
	RoutingKind  RoutingKind
}

// RoutingKind classifies a CR's procurement path at submission time.
type RoutingKind string

const (
	RoutingKindExternalBuy  RoutingKind = "external_buy"
	RoutingKindNewMaterials RoutingKind = "new_materials"
)

// DecideRouting is a pure function over the requested materials: if every
// material carries a priced catalog reference the CR goes straight to a
// buyer, otherwise an estimator must price the new materials first.
//
// An empty list falls through to the buyer path. That mirrors the legacy
// behavior; upstream validation rejects empty submissions before this
// runs, so the fallback only fires for pre-validation callers.
func DecideRouting(materials []model.ChangeRequestMaterial) RoutingDecision {
	if len(materials) == 0 {
		log.Println("routing policy: empty material list, defaulting to external buy")
		return RoutingDecision{NextApprover: model.ApproverBuyer, RoutingKind: RoutingKindExternalBuy}
	}

	for _, m := range materials {
		if m.IsNew || m.UnitPrice == nil {
			return RoutingDecision{NextApprover: model.ApproverEstimator, RoutingKind: RoutingKindNewMaterials}
		}
	}

	return RoutingDecision{NextApprover: model.ApproverBuyer, RoutingKind: RoutingKindExternalBuy}
}
